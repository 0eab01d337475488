package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type AssignmentHandler struct {
	assignmentService services.AssignmentService
	fileService       services.FileService
}

func NewAssignmentHandler(assignmentService services.AssignmentService, fileService services.FileService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, fileService: fileService}
}

func (ah *AssignmentHandler) Create(c *gin.Context) {
	var req struct {
		Title       string     `json:"title" form:"title"`
		Description string     `json:"description" form:"description"`
		StudentID   uuid.UUID  `json:"student_id" form:"student_id"`
		LessonID    *uuid.UUID `json:"lesson_id" form:"lesson_id"`
		DueDate     time.Time  `json:"due_date" form:"due_date" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	assignment, err := ah.assignmentService.Create(c.Request.Context(), services.CreateAssignmentRequest{
		Title:       req.Title,
		Description: req.Description,
		StudentID:   req.StudentID,
		LessonID:    req.LessonID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) List(c *gin.Context) {
	assignments, err := ah.assignmentService.ListMine(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignments": assignments})
}

func (ah *AssignmentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	assignment, err := ah.assignmentService.Get(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) Start(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	assignment, err := ah.assignmentService.Start(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

// Submit takes a multipart form: a "file" part plus a "comments" field.
// A missing file is rejected downstream by the assignment service.
func (ah *AssignmentHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	input := services.SubmissionInput{Comments: c.PostForm("comments")}

	if header, err := c.FormFile("file"); err == nil && header != nil {
		f, err := header.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_form", err)
			return
		}
		defer f.Close()
		stored, err := ah.fileService.StoreSubmission(c.Request.Context(), id, services.FileUpload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      f,
		})
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		stored.Comments = input.Comments
		input = *stored
	}

	submission, err := ah.assignmentService.Submit(c.Request.Context(), id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"submission": submission})
}

func (ah *AssignmentHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req struct {
		Grade    int    `json:"grade" form:"grade"`
		Comments string `json:"comments" form:"comments"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	assignment, err := ah.assignmentService.Review(c.Request.Context(), id, services.ReviewRequest{
		Grade:    req.Grade,
		Comments: req.Comments,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) RequestRevision(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req struct {
		Comments string `json:"comments" form:"comments"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	assignment, err := ah.assignmentService.RequestRevision(c.Request.Context(), id, req.Comments)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	assignment, err := ah.assignmentService.Complete(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}
