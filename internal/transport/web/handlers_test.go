package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"interview-scheduler/internal/booking"
	"interview-scheduler/internal/domain"
	"interview-scheduler/internal/hub"
	"interview-scheduler/internal/seed"
	"interview-scheduler/internal/store/memory"
)

type testEnv struct {
	server *Server
	hub    *hub.Hub
	store  *memory.Store
}

func newTestEnv(t *testing.T, allowReset, failWrites bool) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.New(seed.Blank, failWrites)
	h := hub.New(logger)
	t.Cleanup(h.CloseAll)

	svc := booking.NewService(st, h, booking.Config{AllowReset: allowReset})
	handlers := NewScheduleHandlers(svc, validator.New(), logger)
	socket := NewSocketHandler(h, logger)
	server := NewServer(":0", handlers, socket, logger)

	return &testEnv{server: server, hub: h, store: st}
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func TestGetDays(t *testing.T) {
	env := newTestEnv(t, false, false)

	w := env.do(http.MethodGet, "/api/days", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var days []domain.Day
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&days))
	assert.Len(t, days, 5)
	assert.Equal(t, "Monday", days[0].Name)
	for _, day := range days {
		assert.Equal(t, len(day.Appointments), day.Spots)
		assert.NotEmpty(t, day.Interviewers)
	}
}

func TestGetAppointmentsKeyedByID(t *testing.T) {
	env := newTestEnv(t, false, false)

	w := env.do(http.MethodGet, "/api/appointments", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var appts map[string]domain.Appointment
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&appts))
	assert.Len(t, appts, 25)
	assert.Equal(t, 1, appts["1"].ID)
	assert.Nil(t, appts["1"].Interview)
}

func TestGetInterviewersKeyedByID(t *testing.T) {
	env := newTestEnv(t, false, false)

	w := env.do(http.MethodGet, "/api/interviewers", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var interviewers map[string]domain.Interviewer
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&interviewers))
	assert.Len(t, interviewers, 5)
	assert.Equal(t, "Sylvia Palmer", interviewers["1"].Name)
	assert.NotEmpty(t, interviewers["1"].Avatar)
}

func TestPutAppointment(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "books a free slot",
			path:       "/api/appointments/1",
			body:       `{"interview":{"student":"Archie Cohen","interviewer":1}}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "null interview clears the slot",
			path:       "/api/appointments/1",
			body:       `{"interview":null}`,
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "non-numeric id",
			path:       "/api/appointments/abc",
			body:       `{"interview":{"student":"Archie Cohen","interviewer":1}}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "id must be a number",
		},
		{
			name:       "malformed body",
			path:       "/api/appointments/1",
			body:       `{"interview":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "malformed body",
		},
		{
			name:       "missing student",
			path:       "/api/appointments/1",
			body:       `{"interview":{"interviewer":1}}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "unable to save appointment",
		},
		{
			name:       "interviewer not on the day",
			path:       "/api/appointments/1",
			body:       `{"interview":{"student":"Joan Blige","interviewer":99}}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "unable to save appointment",
		},
		{
			name:       "unknown appointment id",
			path:       "/api/appointments/999",
			body:       `{"interview":{"student":"Joan Blige","interviewer":1}}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "unable to save appointment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, false)

			w := env.do(http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantError != "" {
				var resp map[string]string
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, tt.wantError, resp["error"])
			}
		})
	}
}

func TestPutAppointmentPersists(t *testing.T) {
	env := newTestEnv(t, false, false)

	w := env.do(http.MethodPut, "/api/appointments/3", `{"interview":{"student":"Lydia Miller-Jones","interviewer":2}}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	appt, err := env.store.GetAppointment(context.Background(), 3)
	assert.NoError(t, err)
	if assert.NotNil(t, appt.Interview) {
		assert.Equal(t, "Lydia Miller-Jones", appt.Interview.Student)
		assert.Equal(t, 2, appt.Interview.Interviewer)
	}
}

func TestDeleteAppointment(t *testing.T) {
	env := newTestEnv(t, false, false)

	w := env.do(http.MethodPut, "/api/appointments/2", `{"interview":{"student":"Chad Takahashi","interviewer":1}}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, "/api/appointments/2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	appt, err := env.store.GetAppointment(context.Background(), 2)
	assert.NoError(t, err)
	assert.Nil(t, appt.Interview)

	// deleting an already-free slot still succeeds
	w = env.do(http.MethodDelete, "/api/appointments/2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, "/api/appointments/999", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unable to cancel appointment", resp["error"])
}

func TestForcedWriteFailureKeepsStateAndStaysSilent(t *testing.T) {
	env := newTestEnv(t, false, true)

	listener := env.hub.Register()

	w := env.do(http.MethodPut, "/api/appointments/1", `{"interview":{"student":"Archie Cohen","interviewer":1}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]string
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unable to save appointment", resp["error"])

	appt, err := env.store.GetAppointment(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, appt.Interview)

	select {
	case payload := <-listener.Outbound():
		t.Fatalf("broadcast sent after failed write: %s", payload)
	default:
	}

	// reads keep working while writes fail
	w = env.do(http.MethodGet, "/api/days", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDebugResetForbiddenInProduction(t *testing.T) {
	env := newTestEnv(t, false, false)

	w := env.do(http.MethodGet, "/api/debug/reset", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp map[string]string
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "reset is disabled in production", resp["error"])
}

func TestDebugResetRestoresSeedState(t *testing.T) {
	env := newTestEnv(t, true, false)

	w := env.do(http.MethodPut, "/api/appointments/1", `{"interview":{"student":"Sharon Machado","interviewer":1}}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/debug/reset", "")
	assert.Equal(t, http.StatusOK, w.Code)

	appt, err := env.store.GetAppointment(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, appt.Interview)
}
