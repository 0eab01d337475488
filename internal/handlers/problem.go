package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type ProblemHandler struct {
	problemService services.ProblemService
}

func NewProblemHandler(problemService services.ProblemService) *ProblemHandler {
	return &ProblemHandler{problemService: problemService}
}

func (ph *ProblemHandler) Report(c *gin.Context) {
	var req struct {
		LessonID    uuid.UUID `json:"lesson_id" form:"lesson_id"`
		ProblemType string    `json:"problem_type" form:"problem_type"`
		Description string    `json:"description" form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	report, err := ph.problemService.Report(c.Request.Context(), services.ReportProblemRequest{
		LessonID:    req.LessonID,
		ProblemType: req.ProblemType,
		Description: req.Description,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}

func (ph *ProblemHandler) ListOpen(c *gin.Context) {
	reports, err := ph.problemService.ListOpen(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"reports": reports})
}

func (ph *ProblemHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	report, err := ph.problemService.Resolve(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"report": report})
}
