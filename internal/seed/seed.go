package seed

import (
	"math/rand"

	"interview-scheduler/internal/domain"
)

const (
	dayCount    = 5
	slotsPerDay = 5
)

var dayNames = [dayCount]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var slotTimes = [slotsPerDay]string{"12pm", "1pm", "2pm", "3pm", "4pm"}

var interviewers = [...]domain.Interviewer{
	{ID: 1, Name: "Sylvia Palmer", Avatar: "https://i.imgur.com/LpaY82x.png"},
	{ID: 2, Name: "Tori Malcolm", Avatar: "https://i.imgur.com/Nmx0Qxo.png"},
	{ID: 3, Name: "Mildred Nazir", Avatar: "https://i.imgur.com/T2WwVfS.png"},
	{ID: 4, Name: "Cohana Roy", Avatar: "https://i.imgur.com/FK8V841.jpg"},
	{ID: 5, Name: "Sven Jones", Avatar: "https://i.imgur.com/twYrpay.jpg"},
}

var students = [...]string{
	"Archie Cohen",
	"Lydia Miller-Jones",
	"Chad Takahashi",
	"Leopold Silvers",
	"Jamal Jordan",
	"Joan Blige",
	"Sharon Machado",
	"Rhoda Hall",
}

// Data is a complete schedule snapshot. Day spots are left zero; stores
// derive them from appointment state.
type Data struct {
	Days         []domain.Day
	Appointments []domain.Appointment
	Interviewers []domain.Interviewer
}

// Blank returns the canonical layout with every slot free: five days, five
// slots each, all interviewers eligible on every day. Slot ids are assigned
// in day order.
func Blank() Data {
	interviewerIDs := make([]int, len(interviewers))
	for i, iv := range interviewers {
		interviewerIDs[i] = iv.ID
	}

	var d Data
	d.Interviewers = append(d.Interviewers, interviewers[:]...)

	nextID := 1
	for i := 0; i < dayCount; i++ {
		day := domain.Day{
			ID:           i + 1,
			Name:         dayNames[i],
			Interviewers: append([]int(nil), interviewerIDs...),
		}
		for s := 0; s < slotsPerDay; s++ {
			d.Appointments = append(d.Appointments, domain.Appointment{
				ID:   nextID,
				Time: slotTimes[s],
			})
			day.Appointments = append(day.Appointments, nextID)
			nextID++
		}
		d.Days = append(d.Days, day)
	}
	return d
}

// Generate returns the canonical layout with a random subset of slots booked.
func Generate(rng *rand.Rand) Data {
	d := Blank()
	for i := range d.Appointments {
		if rng.Intn(2) == 0 {
			continue
		}
		d.Appointments[i].Interview = &domain.Interview{
			Student:     students[rng.Intn(len(students))],
			Interviewer: interviewers[rng.Intn(len(interviewers))].ID,
		}
	}
	return d
}
