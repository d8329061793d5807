package models

import (
	"testing"
)

func validIntake() Intake {
	return Intake{Time: "08:00", Dosage: 1, Unit: UnitPill}
}

func TestIntake_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intake  Intake
		wantErr bool
	}{
		{"valid", Intake{Time: "08:00", Dosage: 1, Unit: UnitPill}, false},
		{"valid custom unit", Intake{Time: "23:59", Dosage: 0.5, Unit: UnitCustom, CustomUnit: "sachet"}, false},
		{"custom unit without label", Intake{Time: "08:00", Dosage: 1, Unit: UnitCustom}, true},
		{"zero dosage", Intake{Time: "08:00", Dosage: 0, Unit: UnitPill}, true},
		{"negative dosage", Intake{Time: "08:00", Dosage: -2, Unit: UnitMl}, true},
		{"unknown unit", Intake{Time: "08:00", Dosage: 1, Unit: "barrel"}, true},
		{"missing time", Intake{Dosage: 1, Unit: UnitPill}, true},
		{"unpadded time", Intake{Time: "8:00", Dosage: 1, Unit: UnitPill}, true},
		{"out of range time", Intake{Time: "25:00", Dosage: 1, Unit: UnitPill}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intake.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMedication_Validate(t *testing.T) {
	tests := []struct {
		name    string
		med     Medication
		wantErr bool
	}{
		{
			"valid daily",
			Medication{Name: "Aspirin", FrequencyType: FrequencyDaily, DailyIntakes: []Intake{validIntake()}},
			false,
		},
		{
			"daily without intakes",
			Medication{Name: "Aspirin", FrequencyType: FrequencyDaily},
			true,
		},
		{
			"missing name",
			Medication{FrequencyType: FrequencyDaily, DailyIntakes: []Intake{validIntake()}},
			true,
		},
		{
			"valid cyclical",
			Medication{
				Name: "Cortisone", FrequencyType: FrequencyCyclical,
				CycleLength: 2, CycleStartDate: "2024-01-01",
				CyclicalPattern: []CycleDay{{Day: 1, Intakes: []Intake{validIntake()}}},
			},
			false,
		},
		{
			"cyclical day outside cycle",
			Medication{
				Name: "Cortisone", FrequencyType: FrequencyCyclical,
				CycleLength: 2, CycleStartDate: "2024-01-01",
				CyclicalPattern: []CycleDay{{Day: 3, Intakes: []Intake{validIntake()}}},
			},
			true,
		},
		{
			"cyclical with bad start date",
			Medication{
				Name: "Cortisone", FrequencyType: FrequencyCyclical,
				CycleLength: 2, CycleStartDate: "01/01/2024",
			},
			true,
		},
		{
			"valid custom weekly",
			Medication{
				Name: "Methotrexate", FrequencyType: FrequencyCustomWeekly,
				CustomWeekly: map[string][]Intake{"friday": {validIntake()}},
			},
			false,
		},
		{
			"custom weekly with bad weekday",
			Medication{
				Name: "Methotrexate", FrequencyType: FrequencyCustomWeekly,
				CustomWeekly: map[string][]Intake{"funday": {validIntake()}},
			},
			true,
		},
		{
			"unknown frequency",
			Medication{Name: "Aspirin", FrequencyType: "hourly"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.med.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIntake_DisplayUnit(t *testing.T) {
	plain := Intake{Time: "08:00", Dosage: 1, Unit: UnitMg}
	if got := plain.DisplayUnit(); got != "mg" {
		t.Errorf("DisplayUnit() = %s, want mg", got)
	}

	custom := Intake{Time: "08:00", Dosage: 1, Unit: UnitCustom, CustomUnit: "sachet"}
	if got := custom.DisplayUnit(); got != "sachet" {
		t.Errorf("DisplayUnit() = %s, want sachet", got)
	}
}

func TestIntake_DisplayDosage(t *testing.T) {
	tests := []struct {
		dosage float64
		want   string
	}{
		{1, "1"},
		{0.5, "0.5"},
		{2.25, "2.25"},
	}
	for _, tt := range tests {
		intake := Intake{Dosage: tt.dosage}
		if got := intake.DisplayDosage(); got != tt.want {
			t.Errorf("DisplayDosage(%v) = %s, want %s", tt.dosage, got, tt.want)
		}
	}
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()

	if !prefs.RemindersEnabled || !prefs.MissedAlertsEnabled {
		t.Error("alerts should be enabled by default")
	}
	if prefs.PreDoseLeadMinutes != 10 {
		t.Errorf("PreDoseLeadMinutes = %d, want 10", prefs.PreDoseLeadMinutes)
	}
	if prefs.MissedGraceMinutes != 1 {
		t.Errorf("MissedGraceMinutes = %d, want 1", prefs.MissedGraceMinutes)
	}
}

func TestPreferences_Normalized(t *testing.T) {
	prefs := Preferences{PreDoseLeadMinutes: -5, MissedGraceMinutes: 0}.Normalized()
	if prefs.PreDoseLeadMinutes != 10 || prefs.MissedGraceMinutes != 1 {
		t.Errorf("Normalized() = %+v, want default offsets", prefs)
	}

	prefs = Preferences{PreDoseLeadMinutes: 30, MissedGraceMinutes: 5}.Normalized()
	if prefs.PreDoseLeadMinutes != 30 || prefs.MissedGraceMinutes != 5 {
		t.Errorf("Normalized() = %+v, want offsets kept", prefs)
	}
}
