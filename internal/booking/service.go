package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview-scheduler/internal/domain"
	"interview-scheduler/internal/store"
)

// ErrResetForbidden is returned by ResetToSeed in production mode.
var ErrResetForbidden = errors.New("reset is not allowed in production")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Notifier receives a change event after every successful mutation.
// Delivery is best-effort and never affects the mutation outcome.
type Notifier interface {
	AppointmentChanged(id int, interview *domain.Interview)
}

type noopNotifier struct{}

func (noopNotifier) AppointmentChanged(int, *domain.Interview) {}

const defaultStoreTimeout = 5 * time.Second

type Config struct {
	StoreTimeout time.Duration // zero means the 5s default
	AllowReset   bool          // production wiring leaves this false
}

type Service struct {
	store        store.ScheduleStore
	notifier     Notifier
	storeTimeout time.Duration
	allowReset   bool
}

func NewService(st store.ScheduleStore, notifier Notifier, cfg Config) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Service{
		store:        st,
		notifier:     notifier,
		storeTimeout: timeout,
		allowReset:   cfg.AllowReset,
	}
}

func (s *Service) ListDays(ctx context.Context) ([]domain.Day, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.ListDays(ctx)
}

func (s *Service) ListAppointments(ctx context.Context) (map[int]domain.Appointment, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	appts, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]domain.Appointment, len(appts))
	for _, appt := range appts {
		out[appt.ID] = appt
	}
	return out, nil
}

func (s *Service) ListInterviewers(ctx context.Context) (map[int]domain.Interviewer, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	interviewers, err := s.store.ListInterviewers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]domain.Interviewer, len(interviewers))
	for _, iv := range interviewers {
		out[iv.ID] = iv
	}
	return out, nil
}

// SetInterview books interview into appointment id, replacing whatever was
// there; nil clears the slot. Exactly one change notification goes out on
// success, none on failure.
func (s *Service) SetInterview(ctx context.Context, id int, interview *domain.Interview) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if interview != nil {
		normalized, err := s.validateInterview(ctx, id, *interview)
		if err != nil {
			return err
		}
		interview = &normalized
	}

	if err := s.store.SetAppointmentInterview(ctx, id, interview); err != nil {
		return err
	}

	s.notifier.AppointmentChanged(id, interview)
	return nil
}

// ClearInterview frees the slot. Clearing an already-free slot succeeds
// and still notifies.
func (s *Service) ClearInterview(ctx context.Context, id int) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.SetAppointmentInterview(ctx, id, nil); err != nil {
		return err
	}

	s.notifier.AppointmentChanged(id, nil)
	return nil
}

// ResetToSeed replaces all schedule state with freshly generated seed
// data. Production mode rejects the call before touching the store.
func (s *Service) ResetToSeed(ctx context.Context) error {
	if !s.allowReset {
		return ErrResetForbidden
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.Reseed(ctx)
}

func (s *Service) validateInterview(ctx context.Context, id int, interview domain.Interview) (domain.Interview, error) {
	interview.Student = strings.TrimSpace(interview.Student)
	if interview.Student == "" {
		return domain.Interview{}, validationError("student is required")
	}
	if interview.Interviewer <= 0 {
		return domain.Interview{}, validationError("interviewer is required")
	}

	day, err := s.dayFor(ctx, id)
	if err != nil {
		return domain.Interview{}, err
	}
	for _, ivID := range day.Interviewers {
		if ivID == interview.Interviewer {
			return interview, nil
		}
	}
	return domain.Interview{}, validationError(
		fmt.Sprintf("interviewer %d is not available on %s", interview.Interviewer, day.Name))
}

func (s *Service) dayFor(ctx context.Context, appointmentID int) (domain.Day, error) {
	days, err := s.store.ListDays(ctx)
	if err != nil {
		return domain.Day{}, err
	}
	for _, day := range days {
		for _, apptID := range day.Appointments {
			if apptID == appointmentID {
				return day, nil
			}
		}
	}
	return domain.Day{}, store.ErrNotFound
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
