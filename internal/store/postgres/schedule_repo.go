package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"interview-scheduler/internal/domain"
	"interview-scheduler/internal/seed"
	"interview-scheduler/internal/store"
)

type dayRow struct {
	bun.BaseModel `bun:"table:days"`

	ID   int    `bun:"id,pk"`
	Name string `bun:"name,notnull"`
}

type interviewerRow struct {
	bun.BaseModel `bun:"table:interviewers"`

	ID     int    `bun:"id,pk"`
	Name   string `bun:"name,notnull"`
	Avatar string `bun:"avatar,notnull"`
}

type appointmentRow struct {
	bun.BaseModel `bun:"table:appointments"`

	ID            int     `bun:"id,pk"`
	DayID         int     `bun:"day_id,notnull"`
	Time          string  `bun:"time,notnull"`
	Student       *string `bun:"student"`
	InterviewerID *int    `bun:"interviewer_id"`
}

type dayInterviewerRow struct {
	bun.BaseModel `bun:"table:day_interviewers"`

	DayID         int `bun:"day_id,pk"`
	InterviewerID int `bun:"interviewer_id,pk"`
}

// ScheduleRepo persists the schedule in Postgres. Writes to a single
// appointment are serialized with a per-id advisory transaction lock.
type ScheduleRepo struct {
	db         *bun.DB
	generate   func() seed.Data
	failWrites bool
}

func NewScheduleRepo(db *bun.DB, generate func() seed.Data, failWrites bool) *ScheduleRepo {
	return &ScheduleRepo{db: db, generate: generate, failWrites: failWrites}
}

// EnsureSeeded populates an empty database from the generate callback. It
// runs even in forced-failure mode so the read paths have data to serve.
func (r *ScheduleRepo) EnsureSeeded(ctx context.Context) error {
	n, err := r.db.NewSelect().Model((*dayRow)(nil)).Count(ctx)
	if err != nil {
		return storageError(err)
	}
	if n > 0 {
		return nil
	}

	data := r.generate()
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return insertSeed(ctx, tx, data)
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}

// GetDay reads the day row, its appointments, and its interviewer links in
// one transaction; spots is derived from that snapshot.
func (r *ScheduleRepo) GetDay(ctx context.Context, id int) (domain.Day, error) {
	var out domain.Day
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var day dayRow
		if err := tx.NewSelect().Model(&day).Where("id = ?", id).Scan(ctx); err != nil {
			return err
		}

		var appts []appointmentRow
		if err := tx.NewSelect().Model(&appts).Where("day_id = ?", id).OrderExpr("id ASC").Scan(ctx); err != nil {
			return err
		}

		var links []dayInterviewerRow
		if err := tx.NewSelect().Model(&links).Where("day_id = ?", id).OrderExpr("interviewer_id ASC").Scan(ctx); err != nil {
			return err
		}

		out = buildDay(day, appts, links)
		return nil
	})
	if err != nil {
		return domain.Day{}, readError(err)
	}
	return out, nil
}

func (r *ScheduleRepo) ListDays(ctx context.Context) ([]domain.Day, error) {
	var out []domain.Day
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var days []dayRow
		if err := tx.NewSelect().Model(&days).OrderExpr("id ASC").Scan(ctx); err != nil {
			return err
		}

		var appts []appointmentRow
		if err := tx.NewSelect().Model(&appts).OrderExpr("id ASC").Scan(ctx); err != nil {
			return err
		}
		apptsByDay := make(map[int][]appointmentRow)
		for _, a := range appts {
			apptsByDay[a.DayID] = append(apptsByDay[a.DayID], a)
		}

		var links []dayInterviewerRow
		if err := tx.NewSelect().Model(&links).OrderExpr("interviewer_id ASC").Scan(ctx); err != nil {
			return err
		}
		linksByDay := make(map[int][]dayInterviewerRow)
		for _, l := range links {
			linksByDay[l.DayID] = append(linksByDay[l.DayID], l)
		}

		out = make([]domain.Day, 0, len(days))
		for _, d := range days {
			out = append(out, buildDay(d, apptsByDay[d.ID], linksByDay[d.ID]))
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return out, nil
}

func (r *ScheduleRepo) GetAppointment(ctx context.Context, id int) (domain.Appointment, error) {
	var row appointmentRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, readError(err)
	}
	return rowToAppointment(row), nil
}

func (r *ScheduleRepo) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	var rows []appointmentRow
	err := r.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	out := make([]domain.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToAppointment(row))
	}
	return out, nil
}

func (r *ScheduleRepo) ListInterviewers(ctx context.Context) ([]domain.Interviewer, error) {
	var rows []interviewerRow
	err := r.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	out := make([]domain.Interviewer, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Interviewer{ID: row.ID, Name: row.Name, Avatar: row.Avatar})
	}
	return out, nil
}

func (r *ScheduleRepo) SetAppointmentInterview(ctx context.Context, id int, interview *domain.Interview) error {
	if r.failWrites {
		return fmt.Errorf("%w: forced write failure", store.ErrStorageFailure)
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockAppointment(ctx, tx, id); err != nil {
			return err
		}

		var student *string
		var interviewerID *int
		if interview != nil {
			student = &interview.Student
			interviewerID = &interview.Interviewer
		}

		res, err := tx.NewUpdate().
			Model((*appointmentRow)(nil)).
			Set("student = ?", student).
			Set("interviewer_id = ?", interviewerID).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return storageError(err)
	}
	return nil
}

func (r *ScheduleRepo) Reseed(ctx context.Context) error {
	if r.failWrites {
		return fmt.Errorf("%w: forced write failure", store.ErrStorageFailure)
	}

	data := r.generate()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewRaw("TRUNCATE day_interviewers, appointments, interviewers, days").Exec(ctx)
		if err != nil {
			return err
		}
		return insertSeed(ctx, tx, data)
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}

func lockAppointment(ctx context.Context, tx bun.Tx, id int) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(?)", int64(id)).Exec(ctx)
	return err
}

func insertSeed(ctx context.Context, tx bun.Tx, data seed.Data) error {
	dayOf := make(map[int]int, len(data.Appointments))

	days := make([]dayRow, 0, len(data.Days))
	links := make([]dayInterviewerRow, 0)
	for _, d := range data.Days {
		days = append(days, dayRow{ID: d.ID, Name: d.Name})
		for _, apptID := range d.Appointments {
			dayOf[apptID] = d.ID
		}
		for _, ivID := range d.Interviewers {
			links = append(links, dayInterviewerRow{DayID: d.ID, InterviewerID: ivID})
		}
	}

	interviewers := make([]interviewerRow, 0, len(data.Interviewers))
	for _, iv := range data.Interviewers {
		interviewers = append(interviewers, interviewerRow{ID: iv.ID, Name: iv.Name, Avatar: iv.Avatar})
	}

	appts := make([]appointmentRow, 0, len(data.Appointments))
	for _, a := range data.Appointments {
		row := appointmentRow{ID: a.ID, DayID: dayOf[a.ID], Time: a.Time}
		if a.Interview != nil {
			student := a.Interview.Student
			interviewerID := a.Interview.Interviewer
			row.Student = &student
			row.InterviewerID = &interviewerID
		}
		appts = append(appts, row)
	}

	if _, err := tx.NewInsert().Model(&days).Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewInsert().Model(&interviewers).Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return err
	}
	if _, err := tx.NewInsert().Model(&appts).Exec(ctx); err != nil {
		return err
	}
	return nil
}

func buildDay(day dayRow, appts []appointmentRow, links []dayInterviewerRow) domain.Day {
	out := domain.Day{
		ID:           day.ID,
		Name:         day.Name,
		Appointments: make([]int, 0, len(appts)),
		Interviewers: make([]int, 0, len(links)),
	}
	for _, a := range appts {
		out.Appointments = append(out.Appointments, a.ID)
		if a.Student == nil {
			out.Spots++
		}
	}
	for _, l := range links {
		out.Interviewers = append(out.Interviewers, l.InterviewerID)
	}
	return out
}

func rowToAppointment(row appointmentRow) domain.Appointment {
	appt := domain.Appointment{ID: row.ID, Time: row.Time}
	if row.Student != nil && row.InterviewerID != nil {
		appt.Interview = &domain.Interview{Student: *row.Student, Interviewer: *row.InterviewerID}
	}
	return appt
}

func readError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return storageError(err)
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", store.ErrStorageFailure, err)
}
