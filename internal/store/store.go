package store

import (
	"context"

	"interview-scheduler/internal/domain"
)

// ScheduleStore is the durable record of days, interviewers, and
// appointments. Every operation is atomic; day spots are derived at read
// time and never go stale.
type ScheduleStore interface {
	GetDay(ctx context.Context, id int) (domain.Day, error)
	ListDays(ctx context.Context) ([]domain.Day, error)

	GetAppointment(ctx context.Context, id int) (domain.Appointment, error)
	ListAppointments(ctx context.Context) ([]domain.Appointment, error)

	ListInterviewers(ctx context.Context) ([]domain.Interviewer, error)

	// SetAppointmentInterview books or clears a slot; a nil interview
	// clears it. Returns ErrNotFound when id has no backing slot,
	// ErrStorageFailure-wrapped errors for anything else.
	SetAppointmentInterview(ctx context.Context, id int, interview *domain.Interview) error

	// Reseed replaces all schedule state with freshly generated seed data.
	Reseed(ctx context.Context) error
}
