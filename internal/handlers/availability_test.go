package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type stubAvailabilityService struct {
	lastAdd services.SlotRequest
}

func (s *stubAvailabilityService) AddSlot(ctx context.Context, req services.SlotRequest) (*types.AvailabilitySlot, error) {
	s.lastAdd = req
	return &types.AvailabilitySlot{}, nil
}

func (s *stubAvailabilityService) UpdateSlot(ctx context.Context, id uuid.UUID, req services.SlotRequest) (*types.AvailabilitySlot, error) {
	return &types.AvailabilitySlot{}, nil
}

func (s *stubAvailabilityService) RemoveSlot(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubAvailabilityService) ListForTeacher(ctx context.Context, teacherID uuid.UUID) ([]*types.AvailabilitySlot, error) {
	return nil, nil
}

// Mutating endpoints bind both JSON and form-encoded bodies.
func TestAddSlotBindsJSONAndForm(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &stubAvailabilityService{}
	r := gin.New()
	r.POST("/availability", NewAvailabilityHandler(stub).Add)

	want := services.SlotRequest{DayOfWeek: 2, StartMinute: 540, EndMinute: 780, IsAvailable: true}

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{
			"json body",
			"application/json",
			`{"day_of_week":2,"start_minute":540,"end_minute":780,"is_available":true}`,
		},
		{
			"form body",
			"application/x-www-form-urlencoded",
			url.Values{
				"day_of_week":  {"2"},
				"start_minute": {"540"},
				"end_minute":   {"780"},
				"is_available": {"true"},
			}.Encode(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub.lastAdd = services.SlotRequest{}
			req := httptest.NewRequest(http.MethodPost, "/availability", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
			}
			if stub.lastAdd != want {
				t.Fatalf("bound request: want=%+v got=%+v", want, stub.lastAdd)
			}
		})
	}
}
