package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"interview-scheduler/internal/domain"
	"interview-scheduler/internal/seed"
	"interview-scheduler/internal/store"
)

// Store keeps the whole schedule in process memory. A single write lock
// serializes mutations; reads share an RLock and derive day spots per call.
type Store struct {
	generate   func() seed.Data
	failWrites bool

	mu           sync.RWMutex
	days         map[int]domain.Day
	appointments map[int]domain.Appointment
	interviewers map[int]domain.Interviewer
}

// New builds a store seeded from generate, which is re-invoked on every
// Reseed. When failWrites is set, writes fail before touching state.
func New(generate func() seed.Data, failWrites bool) *Store {
	s := &Store{
		generate:   generate,
		failWrites: failWrites,
	}
	s.load(generate())
	return s
}

func (s *Store) load(d seed.Data) {
	s.days = make(map[int]domain.Day, len(d.Days))
	for _, day := range d.Days {
		s.days[day.ID] = copyDay(day)
	}
	s.appointments = make(map[int]domain.Appointment, len(d.Appointments))
	for _, appt := range d.Appointments {
		s.appointments[appt.ID] = copyAppointment(appt)
	}
	s.interviewers = make(map[int]domain.Interviewer, len(d.Interviewers))
	for _, iv := range d.Interviewers {
		s.interviewers[iv.ID] = iv
	}
}

func (s *Store) GetDay(ctx context.Context, id int) (domain.Day, error) {
	if err := ctx.Err(); err != nil {
		return domain.Day{}, readError(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	day, ok := s.days[id]
	if !ok {
		return domain.Day{}, store.ErrNotFound
	}
	return s.projectDay(day), nil
}

func (s *Store) ListDays(ctx context.Context) ([]domain.Day, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Day, 0, len(s.days))
	for _, day := range s.days {
		out = append(out, s.projectDay(day))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// projectDay fills the derived spots count. Callers hold at least the
// read lock.
func (s *Store) projectDay(day domain.Day) domain.Day {
	out := copyDay(day)
	appts := make([]domain.Appointment, 0, len(day.Appointments))
	for _, apptID := range day.Appointments {
		if appt, ok := s.appointments[apptID]; ok {
			appts = append(appts, appt)
		}
	}
	out.Spots = domain.FreeSlots(appts)
	return out
}

func (s *Store) GetAppointment(ctx context.Context, id int) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, readError(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.appointments[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return copyAppointment(appt), nil
}

func (s *Store) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Appointment, 0, len(s.appointments))
	for _, appt := range s.appointments {
		out = append(out, copyAppointment(appt))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListInterviewers(ctx context.Context) ([]domain.Interviewer, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Interviewer, 0, len(s.interviewers))
	for _, iv := range s.interviewers {
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetAppointmentInterview(ctx context.Context, id int, interview *domain.Interview) error {
	if s.failWrites {
		return fmt.Errorf("%w: forced write failure", store.ErrStorageFailure)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return store.ErrNotFound
	}
	appt.Interview = copyInterview(interview)
	s.appointments[id] = appt
	return nil
}

func (s *Store) Reseed(ctx context.Context) error {
	if s.failWrites {
		return fmt.Errorf("%w: forced write failure", store.ErrStorageFailure)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
	}

	fresh := s.generate()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(fresh)
	return nil
}

func readError(err error) error {
	return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
}

func copyDay(day domain.Day) domain.Day {
	out := day
	out.Appointments = append([]int(nil), day.Appointments...)
	out.Interviewers = append([]int(nil), day.Interviewers...)
	out.Spots = 0
	return out
}

func copyAppointment(appt domain.Appointment) domain.Appointment {
	out := appt
	out.Interview = copyInterview(appt.Interview)
	return out
}

func copyInterview(interview *domain.Interview) *domain.Interview {
	if interview == nil {
		return nil
	}
	c := *interview
	return &c
}
