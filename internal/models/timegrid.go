package models

// TimeSlot describes one column of the weekly timetable grid. Break columns
// carry slot ID 0 and are never placement candidates.
type TimeSlot struct {
	ID        int    `json:"id"`
	Label     string `json:"label"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsBreak   bool   `json:"is_break"`
}

// TimeGrid is the fixed weekly layout every timetable operation works against.
type TimeGrid struct {
	Days  []string   `json:"days"`
	Slots []TimeSlot `json:"slots"`
}

// School days in display order.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
)

// DefaultTimeGrid returns the deployed school week: five days, seven teaching
// periods and three breaks, in chronological order.
func DefaultTimeGrid() TimeGrid {
	return TimeGrid{
		Days: []string{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday},
		Slots: []TimeSlot{
			{ID: 1, Label: "Period 1", StartTime: "08:30", EndTime: "09:20"},
			{ID: 2, Label: "Period 2", StartTime: "09:20", EndTime: "10:10"},
			{ID: 0, Label: "Break", StartTime: "10:10", EndTime: "10:20", IsBreak: true},
			{ID: 3, Label: "Period 3", StartTime: "10:20", EndTime: "11:10"},
			{ID: 4, Label: "Period 4", StartTime: "11:10", EndTime: "12:00"},
			{ID: 0, Label: "Lunch", StartTime: "12:00", EndTime: "13:00", IsBreak: true},
			{ID: 5, Label: "Period 5", StartTime: "13:00", EndTime: "13:50"},
			{ID: 6, Label: "Period 6", StartTime: "13:50", EndTime: "14:40"},
			{ID: 0, Label: "Break", StartTime: "14:40", EndTime: "14:50", IsBreak: true},
			{ID: 7, Label: "Period 7", StartTime: "14:50", EndTime: "15:40"},
		},
	}
}

// TeachingSlots returns only the placeable periods, preserving order.
func (g TimeGrid) TeachingSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, len(g.Slots))
	for _, slot := range g.Slots {
		if !slot.IsBreak {
			slots = append(slots, slot)
		}
	}
	return slots
}

// IsTeachingSlot reports whether the given slot ID is a placeable period.
func (g TimeGrid) IsTeachingSlot(id int) bool {
	for _, slot := range g.Slots {
		if !slot.IsBreak && slot.ID == id {
			return true
		}
	}
	return false
}

// SlotByID resolves a teaching slot by its ID.
func (g TimeGrid) SlotByID(id int) (TimeSlot, bool) {
	for _, slot := range g.Slots {
		if !slot.IsBreak && slot.ID == id {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// IsSchoolDay reports whether the given day belongs to the grid.
func (g TimeGrid) IsSchoolDay(day string) bool {
	for _, d := range g.Days {
		if d == day {
			return true
		}
	}
	return false
}
