package schedule

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/smarttalks/booker-agent/internal/model/booking"
	scheduleStore "github.com/smarttalks/booker-agent/internal/schedule"
)

func setup() http.Handler {
	r := chi.NewRouter()
	New(scheduleStore.NewMemoryStore()).RegisterRoutes(r)
	return r
}

func TestDayReturnsDefaultSlots(t *testing.T) {
	r := setup()

	req := httptest.NewRequest(http.MethodGet, "/schedule/2025-01-07", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var day booking.DaySchedule
	if err := json.NewDecoder(rec.Body).Decode(&day); err != nil {
		t.Fatalf("decode day err: %v", err)
	}
	if day.Date != "2025-01-07" {
		t.Fatalf("date = %q", day.Date)
	}
	if len(day.Slots) != len(booking.DefaultSlotTimes) {
		t.Fatalf("expected %d slots, got %d", len(booking.DefaultSlotTimes), len(day.Slots))
	}
	for _, slot := range day.Slots {
		if slot.Status != booking.StatusAvailable {
			t.Fatalf("fresh day has non-available slot: %+v", slot)
		}
	}
}

func TestDayRejectsMalformedDate(t *testing.T) {
	r := setup()

	req := httptest.NewRequest(http.MethodGet, "/schedule/tomorrow", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
