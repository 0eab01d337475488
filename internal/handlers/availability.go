package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type AvailabilityHandler struct {
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandler(availabilityService services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

type slotBody struct {
	DayOfWeek   int  `json:"day_of_week" form:"day_of_week"`
	StartMinute int  `json:"start_minute" form:"start_minute"`
	EndMinute   int  `json:"end_minute" form:"end_minute"`
	IsAvailable bool `json:"is_available" form:"is_available"`
}

func (b slotBody) toRequest() services.SlotRequest {
	return services.SlotRequest{
		DayOfWeek:   b.DayOfWeek,
		StartMinute: b.StartMinute,
		EndMinute:   b.EndMinute,
		IsAvailable: b.IsAvailable,
	}
}

func (avh *AvailabilityHandler) Add(c *gin.Context) {
	var req slotBody
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	slot, err := avh.availabilityService.AddSlot(c.Request.Context(), req.toRequest())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"slot": slot})
}

func (avh *AvailabilityHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	var req slotBody
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	slot, err := avh.availabilityService.UpdateSlot(c.Request.Context(), id, req.toRequest())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"slot": slot})
}

func (avh *AvailabilityHandler) Remove(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	if err := avh.availabilityService.RemoveSlot(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (avh *AvailabilityHandler) ListForTeacher(c *gin.Context) {
	teacherID, err := uuid.Parse(c.Param("teacherID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	slots, err := avh.availabilityService.ListForTeacher(c.Request.Context(), teacherID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"slots": slots})
}
