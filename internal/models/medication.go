// Package models contains data structures used throughout the application
package models

import (
	"fmt"
	"strconv"
	"time"
)

// Date and clock layouts used for all persisted date/time strings
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// FrequencyType identifies the shape of a medication's recurrence rule
type FrequencyType string

const (
	FrequencyDaily        FrequencyType = "daily"
	FrequencyCyclical     FrequencyType = "cyclical"
	FrequencyCustomWeekly FrequencyType = "custom_weekly"
)

// DosageUnit is the unit a dose is measured in
type DosageUnit string

const (
	UnitPill   DosageUnit = "pill"
	UnitMl     DosageUnit = "ml"
	UnitMg     DosageUnit = "mg"
	UnitG      DosageUnit = "g"
	UnitDrop   DosageUnit = "drop"
	UnitPuff   DosageUnit = "puff"
	UnitPatch  DosageUnit = "patch"
	UnitUnit   DosageUnit = "unit"
	UnitCustom DosageUnit = "custom"
)

var knownUnits = map[DosageUnit]bool{
	UnitPill: true, UnitMl: true, UnitMg: true, UnitG: true,
	UnitDrop: true, UnitPuff: true, UnitPatch: true, UnitUnit: true,
	UnitCustom: true,
}

// Intake is one scheduled dose within a day
type Intake struct {
	Time       string     `json:"time"` // HH:MM, 24h
	Dosage     float64    `json:"dosage"`
	Unit       DosageUnit `json:"unit"`
	CustomUnit string     `json:"customUnit,omitempty"` // required when Unit is UnitCustom
}

// DisplayUnit returns the unit label to show next to the dosage
func (i Intake) DisplayUnit() string {
	if i.Unit == UnitCustom {
		return i.CustomUnit
	}
	return string(i.Unit)
}

// DisplayDosage returns the dosage magnitude without trailing zeros
func (i Intake) DisplayDosage() string {
	return strconv.FormatFloat(i.Dosage, 'f', -1, 64)
}

// Validate checks the intake's invariants
func (i Intake) Validate() error {
	if !ValidClock(i.Time) {
		return fmt.Errorf("invalid intake time %q, want HH:MM", i.Time)
	}
	if i.Dosage <= 0 {
		return fmt.Errorf("dosage must be positive, got %v", i.Dosage)
	}
	if !knownUnits[i.Unit] {
		return fmt.Errorf("unknown dosage unit %q", i.Unit)
	}
	if i.Unit == UnitCustom && i.CustomUnit == "" {
		return fmt.Errorf("custom unit requires a label")
	}
	return nil
}

// CycleDay holds the intakes for one day of a cyclical pattern.
// Day is 1-indexed; entries may be sparse and in any order.
type CycleDay struct {
	Day     int      `json:"day"`
	Intakes []Intake `json:"intakes"`
}

// Medication is a user-defined medication with its recurrence rule
type Medication struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Color         string        `json:"color"` // hex color for display
	FrequencyType FrequencyType `json:"frequencyType"`

	// FrequencyDaily
	DailyIntakes []Intake `json:"dailyIntakes,omitempty"`

	// FrequencyCyclical
	CyclicalPattern []CycleDay `json:"cyclicalPattern,omitempty"`
	CycleLength     int        `json:"cycleLength,omitempty"`
	CycleStartDate  string     `json:"cycleStartDate,omitempty"` // YYYY-MM-DD

	// FrequencyCustomWeekly, keyed by lowercase weekday name
	CustomWeekly map[string][]Intake `json:"customWeeklyDosages,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks that the medication is well-formed for its frequency kind
func (m *Medication) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("medication name is required")
	}
	switch m.FrequencyType {
	case FrequencyDaily:
		if len(m.DailyIntakes) == 0 {
			return fmt.Errorf("daily medication needs at least one intake")
		}
		for _, intake := range m.DailyIntakes {
			if err := intake.Validate(); err != nil {
				return err
			}
		}
	case FrequencyCyclical:
		if m.CycleLength <= 0 {
			return fmt.Errorf("cycle length must be positive, got %d", m.CycleLength)
		}
		if !ValidDate(m.CycleStartDate) {
			return fmt.Errorf("invalid cycle start date %q, want YYYY-MM-DD", m.CycleStartDate)
		}
		for _, day := range m.CyclicalPattern {
			if day.Day < 1 || day.Day > m.CycleLength {
				return fmt.Errorf("cycle day %d outside 1..%d", day.Day, m.CycleLength)
			}
			for _, intake := range day.Intakes {
				if err := intake.Validate(); err != nil {
					return err
				}
			}
		}
	case FrequencyCustomWeekly:
		for weekday, intakes := range m.CustomWeekly {
			if !validWeekdays[weekday] {
				return fmt.Errorf("unknown weekday %q", weekday)
			}
			for _, intake := range intakes {
				if err := intake.Validate(); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("unknown frequency type %q", m.FrequencyType)
	}
	return nil
}

var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ValidClock reports whether s is a zero-padded 24h HH:MM string
func ValidClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// ValidDate reports whether s is a YYYY-MM-DD date string
func ValidDate(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
