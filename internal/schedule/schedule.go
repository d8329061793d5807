// Package schedule resolves the concrete dose occurrences a medication's
// recurrence rule implies for a calendar date. Everything here is pure:
// identical inputs always produce identical, identically-ordered output.
package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/mrcode/medtrack/internal/models"
)

// Item is one resolved dose occurrence for a specific date.
// Intake.Time is the effective time, which may differ from ScheduledTime
// when a same-day reschedule applies; ScheduledTime stays the stable
// identity used for the taken log and the notification dedup keys.
type Item struct {
	Medication    models.Medication
	Intake        models.Intake
	ScheduledTime string
	IsTaken       bool
	IsRescheduled bool
	Date          string // YYYY-MM-DD
}

// NominalIntakes returns the doses the medication's recurrence rule
// implies for the date, with no taken-state or reschedule applied.
// Incomplete rule configurations resolve to an empty list, never an error.
func NominalIntakes(med models.Medication, date time.Time) []models.Intake {
	switch med.FrequencyType {
	case models.FrequencyDaily:
		return append([]models.Intake(nil), med.DailyIntakes...)

	case models.FrequencyCustomWeekly:
		weekday := strings.ToLower(date.Weekday().String())
		return append([]models.Intake(nil), med.CustomWeekly[weekday]...)

	case models.FrequencyCyclical:
		if med.CycleLength <= 0 || med.CycleStartDate == "" {
			return nil
		}
		start, err := time.ParseInLocation(models.DateLayout, med.CycleStartDate, date.Location())
		if err != nil {
			return nil
		}
		offset := daysBetween(start, date)
		if offset < 0 {
			return nil
		}
		// Cycle days are matched by their 1-indexed Day field, not by
		// position; patterns may be sparse or reordered.
		dayNumber := offset%med.CycleLength + 1
		for _, cycleDay := range med.CyclicalPattern {
			if cycleDay.Day == dayNumber {
				return append([]models.Intake(nil), cycleDay.Intakes...)
			}
		}
		return nil
	}
	return nil
}

// daysBetween counts whole calendar days from one date to another.
// Both dates are re-anchored to midnight UTC before subtracting so a DST
// transition between them cannot shave an hour off the difference and
// truncate the count one day low.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// effectiveTime applies a same-day reschedule to one nominal occurrence.
// A reschedule matches only when it was both intended for and created on
// the viewed date; it never retroactively alters another day's view of the
// same recurring slot.
func effectiveTime(medID, dateStr, originalTime string, reschedules []models.Reschedule) (string, bool) {
	for _, r := range reschedules {
		if r.MedicationID == medID &&
			r.OriginalDate == dateStr &&
			r.OriginalTime == originalTime &&
			r.AppliedDate == dateStr {
			return r.NewTime, true
		}
	}
	return originalTime, false
}

// ForDate resolves every dose occurrence across all medications for one
// calendar date, sorted ascending by effective time. Ties keep medication
// and intake input order. This is the single entry point for both the
// presentation layer and the notification engine.
func ForDate(meds []models.Medication, log models.TakenLog, reschedules []models.Reschedule, date time.Time) []Item {
	dateStr := date.Format(models.DateLayout)

	var items []Item
	for _, med := range meds {
		for _, intake := range NominalIntakes(med, date) {
			original := intake.Time
			newTime, rescheduled := effectiveTime(med.ID, dateStr, original, reschedules)

			effective := intake
			effective.Time = newTime

			items = append(items, Item{
				Medication:    med,
				Intake:        effective,
				ScheduledTime: original,
				IsTaken:       log.Taken(med.ID, dateStr, original),
				IsRescheduled: rescheduled,
				Date:          dateStr,
			})
		}
	}

	// HH:MM is fixed-width zero-padded, so string order is time order
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Intake.Time < items[j].Intake.Time
	})
	return items
}
