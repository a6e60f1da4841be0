package domain

// Day groups appointment slots and the interviewers eligible on it. Spots
// is derived from appointment state and never stored.
type Day struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Appointments []int  `json:"appointments"`
	Interviewers []int  `json:"interviewers"`
	Spots        int    `json:"spots"`
}

type Interview struct {
	Student     string `json:"student"`
	Interviewer int    `json:"interviewer"`
}

// Appointment is a bookable time slot. Slot ids are stable: booking and
// cancelling only set or clear the Interview, never the slot itself.
type Appointment struct {
	ID        int        `json:"id"`
	Time      string     `json:"time"`
	Interview *Interview `json:"interview"`
}

func (a Appointment) Booked() bool {
	return a.Interview != nil
}

type Interviewer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// FreeSlots counts the appointments with no interview.
func FreeSlots(appointments []Appointment) int {
	free := 0
	for _, a := range appointments {
		if !a.Booked() {
			free++
		}
	}
	return free
}
