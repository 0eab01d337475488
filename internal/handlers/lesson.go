package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/services"
)

type LessonHandler struct {
	log        *logger.Logger
	scheduler  services.LessonScheduler
	expander   services.RecurrenceExpander
	completion services.CompletionService
	calendar   services.CalendarService
	files      services.FileService
}

func NewLessonHandler(
	log *logger.Logger,
	scheduler services.LessonScheduler,
	expander services.RecurrenceExpander,
	completion services.CompletionService,
	calendar services.CalendarService,
	files services.FileService,
) *LessonHandler {
	return &LessonHandler{
		log:        log.With("handler", "LessonHandler"),
		scheduler:  scheduler,
		expander:   expander,
		completion: completion,
		calendar:   calendar,
		files:      files,
	}
}

var errMissingFiles = errors.New("no files in request")

type lessonBody struct {
	Title           string    `json:"title" form:"title"`
	Description     string    `json:"description" form:"description"`
	SubjectID       uuid.UUID `json:"subject_id" form:"subject_id"`
	TeacherID       uuid.UUID `json:"teacher_id" form:"teacher_id"`
	StudentID       uuid.UUID `json:"student_id" form:"student_id"`
	MeetingLink     string    `json:"meeting_link" form:"meeting_link"`
	Date            string    `json:"date" form:"date"`
	StartTime       string    `json:"start_time" form:"start_time"`
	DurationMinutes int       `json:"duration_minutes" form:"duration_minutes"`
	Timezone        string    `json:"timezone" form:"timezone"`
	RepeatWeeks     int       `json:"repeat_weeks" form:"repeat_weeks"`
}

func (b lessonBody) toScheduleRequest() services.ScheduleRequest {
	return services.ScheduleRequest{
		Title:       b.Title,
		Description: b.Description,
		SubjectID:   b.SubjectID,
		TeacherID:   b.TeacherID,
		StudentID:   b.StudentID,
		MeetingLink: b.MeetingLink,
		Window: services.WindowInput{
			Date:            b.Date,
			StartClock:      b.StartTime,
			DurationMinutes: b.DurationMinutes,
			Zone:            b.Timezone,
		},
	}
}

func (lh *LessonHandler) Create(c *gin.Context) {
	var req lessonBody
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	lesson, err := lh.scheduler.Create(c.Request.Context(), req.toScheduleRequest())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	resp := gin.H{"lesson": lesson}
	if req.RepeatWeeks > 0 {
		report, err := lh.expander.ExpandWeekly(c.Request.Context(), lesson.ID, req.RepeatWeeks)
		if err != nil {
			// The base lesson exists at this point; report the series
			// failure without pretending the create failed.
			lh.log.Warn("recurrence expansion failed", "lesson_id", lesson.ID, "error", err)
			resp["recurrence_error"] = err.Error()
		} else {
			resp["recurrence"] = report
		}
	}
	RespondOK(c, resp)
}

func (lh *LessonHandler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req struct {
		Date            string `json:"date" form:"date"`
		StartTime       string `json:"start_time" form:"start_time"`
		DurationMinutes int    `json:"duration_minutes" form:"duration_minutes"`
		Timezone        string `json:"timezone" form:"timezone"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	lesson, err := lh.scheduler.Reschedule(c.Request.Context(), id, services.WindowInput{
		Date:            req.Date,
		StartClock:      req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Zone:            req.Timezone,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lesson": lesson})
}

func (lh *LessonHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	lesson, err := lh.scheduler.Cancel(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lesson": lesson})
}

func (lh *LessonHandler) Edit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req lessonBody
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	lesson, err := lh.scheduler.Edit(c.Request.Context(), id, req.toScheduleRequest())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lesson": lesson})
}

func (lh *LessonHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req struct {
		Rating  *int   `json:"rating" form:"rating"`
		Comment string `json:"comment" form:"comment"`
	}
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	lesson, err := lh.completion.Confirm(c.Request.Context(), id, services.ConfirmRequest{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lesson": lesson})
}

// Sweep is the manual trigger for the elapsed-lesson auto-complete; the
// ticker in app runs the same operation on an interval.
func (lh *LessonHandler) Sweep(c *gin.Context) {
	swept, err := lh.completion.SweepElapsed(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"completed": swept})
}

func (lh *LessonHandler) Range(c *gin.Context) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_query", err)
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_query", err)
			return
		}
		to = t
	}
	entries, err := lh.calendar.Range(c.Request.Context(), from, to)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"lessons": entries})
}

func (lh *LessonHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	detail, err := lh.calendar.Detail(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

func (lh *LessonHandler) UploadMaterials(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_form", err)
		return
	}
	teacherMaterial, _ := strconv.ParseBool(c.PostForm("teacher_material"))

	headers := form.File["files"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "bad_form", errMissingFiles)
		return
	}
	uploads := make([]services.FileUpload, 0, len(headers))
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			uploads = append(uploads, services.FileUpload{Name: h.Filename})
			continue
		}
		opened = append(opened, f)
		uploads = append(uploads, services.FileUpload{
			Name:            h.Filename,
			ContentType:     h.Header.Get("Content-Type"),
			Size:            h.Size,
			Reader:          f,
			TeacherMaterial: teacherMaterial,
		})
	}
	results, err := lh.files.AttachToLesson(c.Request.Context(), id, uploads)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"files": results})
}

func (lh *LessonHandler) DownloadMaterial(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	file, rc, err := lh.files.OpenLessonFile(c.Request.Context(), fileID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	defer rc.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.OriginalName+`"`)
	c.DataFromReader(http.StatusOK, file.FileSize, contentType, rc, nil)
}
