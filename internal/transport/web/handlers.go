package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"interview-scheduler/internal/booking"
	"interview-scheduler/internal/domain"
	"interview-scheduler/internal/store"
)

type scheduleService interface {
	ListDays(ctx context.Context) ([]domain.Day, error)
	ListAppointments(ctx context.Context) (map[int]domain.Appointment, error)
	ListInterviewers(ctx context.Context) (map[int]domain.Interviewer, error)
	SetInterview(ctx context.Context, id int, interview *domain.Interview) error
	ClearInterview(ctx context.Context, id int) error
	ResetToSeed(ctx context.Context) error
}

type ScheduleHandlers struct {
	svc      scheduleService
	validate *validator.Validate
	log      *slog.Logger
}

func NewScheduleHandlers(svc scheduleService, validate *validator.Validate, log *slog.Logger) *ScheduleHandlers {
	if log == nil {
		log = slog.Default()
	}
	return &ScheduleHandlers{
		svc:      svc,
		validate: validate,
		log:      log.With(slog.String("component", "web.schedule")),
	}
}

func (h *ScheduleHandlers) GetDays(c echo.Context) error {
	days, err := h.svc.ListDays(c.Request().Context())
	if err != nil {
		h.log.Error("days list failed", slog.Any("err", err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to load days"})
	}
	return c.JSON(http.StatusOK, days)
}

func (h *ScheduleHandlers) GetAppointments(c echo.Context) error {
	appts, err := h.svc.ListAppointments(c.Request().Context())
	if err != nil {
		h.log.Error("appointments list failed", slog.Any("err", err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to load appointments"})
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *ScheduleHandlers) GetInterviewers(c echo.Context) error {
	interviewers, err := h.svc.ListInterviewers(c.Request().Context())
	if err != nil {
		h.log.Error("interviewers list failed", slog.Any("err", err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to load interviewers"})
	}
	return c.JSON(http.StatusOK, interviewers)
}

type interviewPayload struct {
	Student     string `json:"student" validate:"required"`
	Interviewer int    `json:"interviewer" validate:"required,gt=0"`
}

type putAppointmentRequest struct {
	Interview *interviewPayload `json:"interview"`
}

// PutAppointment books or clears one slot. Every write failure, whatever
// the cause, surfaces as the same generic 500 body; details go to the log
// only.
func (h *ScheduleHandlers) PutAppointment(c echo.Context) error {
	log := h.log.With(slog.String("route", "PutAppointment"))

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a number"})
	}
	log = log.With(slog.Int("appointment_id", id))

	var req putAppointmentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("malformed body", slog.Any("err", err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed body"})
	}

	var interview *domain.Interview
	if req.Interview != nil {
		if err := h.validate.Struct(req.Interview); err != nil {
			log.Warn("invalid interview payload", slog.Any("err", err))
			return saveFailed(c)
		}
		interview = &domain.Interview{
			Student:     req.Interview.Student,
			Interviewer: req.Interview.Interviewer,
		}
	}

	if err := h.svc.SetInterview(c.Request().Context(), id, interview); err != nil {
		logWriteFailure(log, "appointment save failed", err)
		return saveFailed(c)
	}

	log.Info("appointment saved", slog.Bool("booked", interview != nil))
	return c.NoContent(http.StatusNoContent)
}

func (h *ScheduleHandlers) DeleteAppointment(c echo.Context) error {
	log := h.log.With(slog.String("route", "DeleteAppointment"))

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id must be a number"})
	}
	log = log.With(slog.Int("appointment_id", id))

	if err := h.svc.ClearInterview(c.Request().Context(), id); err != nil {
		logWriteFailure(log, "appointment cancel failed", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to cancel appointment"})
	}

	log.Info("appointment cancelled")
	return c.NoContent(http.StatusNoContent)
}

func (h *ScheduleHandlers) DebugReset(c echo.Context) error {
	log := h.log.With(slog.String("route", "DebugReset"))

	if err := h.svc.ResetToSeed(c.Request().Context()); err != nil {
		if errors.Is(err, booking.ErrResetForbidden) {
			log.Warn("reset rejected")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "reset is disabled in production"})
		}
		log.Error("reset failed", slog.Any("err", err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to reset schedule"})
	}

	log.Info("schedule reset")
	return c.NoContent(http.StatusOK)
}

func saveFailed(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unable to save appointment"})
}

func logWriteFailure(log *slog.Logger, msg string, err error) {
	var vErr *booking.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Info(msg, slog.String("reason", "not_found"))
	case errors.As(err, &vErr):
		log.Warn(msg, slog.String("reason", vErr.Error()))
	default:
		log.Error(msg, slog.Any("err", err))
	}
}
