package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type FeedbackHandler struct {
	feedbackService services.FeedbackService
}

func NewFeedbackHandler(feedbackService services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (fh *FeedbackHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req struct {
		Rating  int    `json:"rating" form:"rating"`
		Comment string `json:"comment" form:"comment"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	feedback, err := fh.feedbackService.Submit(c.Request.Context(), id, req.Rating, req.Comment)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"feedback": feedback})
}

func (fh *FeedbackHandler) Pending(c *gin.Context) {
	lessons, err := fh.feedbackService.PendingForMe(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lessons": lessons})
}
