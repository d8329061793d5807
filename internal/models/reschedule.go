package models

// Reschedule is a one-off, same-day time shift for a single occurrence.
// It only applies when AppliedDate == OriginalDate == the date being
// viewed; the daily reset prunes it once AppliedDate is in the past.
type Reschedule struct {
	MedicationID string `json:"medicationId"`
	OriginalDate string `json:"originalDate"` // YYYY-MM-DD the dose was scheduled for
	OriginalTime string `json:"originalTime"` // HH:MM original scheduled time
	NewTime      string `json:"newTime"`      // HH:MM effective time on OriginalDate
	AppliedDate  string `json:"appliedDate"`  // YYYY-MM-DD the reschedule was created on
}

// SameSlot reports whether two reschedules target the same occurrence
func (r Reschedule) SameSlot(other Reschedule) bool {
	return r.MedicationID == other.MedicationID &&
		r.OriginalDate == other.OriginalDate &&
		r.OriginalTime == other.OriginalTime
}

// UpsertReschedule replaces any reschedule for the same occurrence slot and
// appends the new one, so at most one reschedule is active per slot.
func UpsertReschedule(reschedules []Reschedule, r Reschedule) []Reschedule {
	out := make([]Reschedule, 0, len(reschedules)+1)
	for _, existing := range reschedules {
		if !existing.SameSlot(r) {
			out = append(out, existing)
		}
	}
	return append(out, r)
}
