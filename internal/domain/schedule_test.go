package domain

import "testing"

func TestBooked(t *testing.T) {
	free := Appointment{ID: 1, Time: "12pm"}
	if free.Booked() {
		t.Errorf("Booked() = true for empty slot")
	}

	taken := Appointment{ID: 2, Time: "1pm", Interview: &Interview{Student: "Archie Cohen", Interviewer: 1}}
	if !taken.Booked() {
		t.Errorf("Booked() = false for occupied slot")
	}
}

func TestFreeSlots(t *testing.T) {
	appts := []Appointment{
		{ID: 1},
		{ID: 2, Interview: &Interview{Student: "Joan Blige", Interviewer: 2}},
		{ID: 3},
		{ID: 4, Interview: &Interview{Student: "Rhoda Hall", Interviewer: 1}},
		{ID: 5},
	}

	if got := FreeSlots(appts); got != 3 {
		t.Errorf("FreeSlots() = %d, want 3", got)
	}
	if got := FreeSlots(nil); got != 0 {
		t.Errorf("FreeSlots(nil) = %d, want 0", got)
	}
}
