package models

// TakenEntry records the state of one dose occurrence
type TakenEntry struct {
	Taken           bool   `json:"taken"`
	ActualTakenTime string `json:"actualTakenTime,omitempty"` // HH:MM, set when taken at a different time
}

// TakenLog maps medication id -> date (YYYY-MM-DD) -> original scheduled
// time (HH:MM) -> entry. The key is always the original scheduled time,
// never a rescheduled one; that is the stable identity of an occurrence.
type TakenLog map[string]map[string]map[string]TakenEntry

// Taken reports whether the occurrence is marked taken. Any absent level
// of the path reads as not taken.
func (l TakenLog) Taken(medID, date, scheduledTime string) bool {
	entry, ok := l.Entry(medID, date, scheduledTime)
	return ok && entry.Taken
}

// Entry looks up the log entry for one occurrence
func (l TakenLog) Entry(medID, date, scheduledTime string) (TakenEntry, bool) {
	dates, ok := l[medID]
	if !ok {
		return TakenEntry{}, false
	}
	times, ok := dates[date]
	if !ok {
		return TakenEntry{}, false
	}
	entry, ok := times[scheduledTime]
	return entry, ok
}

// Clone returns a deep copy sharing no map references with the receiver
func (l TakenLog) Clone() TakenLog {
	out := make(TakenLog, len(l))
	for medID, dates := range l {
		outDates := make(map[string]map[string]TakenEntry, len(dates))
		for date, times := range dates {
			outTimes := make(map[string]TakenEntry, len(times))
			for t, entry := range times {
				outTimes[t] = entry
			}
			outDates[date] = outTimes
		}
		out[medID] = outDates
	}
	return out
}

// WithEntry returns a copy of the log with the entry for one occurrence
// replaced. The receiver is not modified.
func (l TakenLog) WithEntry(medID, date, scheduledTime string, entry TakenEntry) TakenLog {
	out := l.Clone()
	if out[medID] == nil {
		out[medID] = make(map[string]map[string]TakenEntry)
	}
	if out[medID][date] == nil {
		out[medID][date] = make(map[string]TakenEntry)
	}
	out[medID][date][scheduledTime] = entry
	return out
}

// WithoutMedication returns a copy of the log with every entry for the
// medication removed
func (l TakenLog) WithoutMedication(medID string) TakenLog {
	out := l.Clone()
	delete(out, medID)
	return out
}
