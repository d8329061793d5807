package models

import "testing"

func TestTakenLog_TakenDefaultsFalse(t *testing.T) {
	log := TakenLog{}

	if log.Taken("m1", "2024-01-01", "08:00") {
		t.Error("empty log should read as not taken")
	}

	log = TakenLog{"m1": {"2024-01-01": {}}}
	if log.Taken("m1", "2024-01-01", "08:00") {
		t.Error("absent time entry should read as not taken")
	}
	if log.Taken("m2", "2024-01-01", "08:00") {
		t.Error("absent medication should read as not taken")
	}
}

func TestTakenLog_WithEntry(t *testing.T) {
	log := TakenLog{}
	updated := log.WithEntry("m1", "2024-01-01", "08:00", TakenEntry{Taken: true, ActualTakenTime: "08:12"})

	if !updated.Taken("m1", "2024-01-01", "08:00") {
		t.Error("entry not recorded")
	}
	entry, ok := updated.Entry("m1", "2024-01-01", "08:00")
	if !ok || entry.ActualTakenTime != "08:12" {
		t.Errorf("entry = %+v, want actual taken time 08:12", entry)
	}

	// The original log is untouched
	if log.Taken("m1", "2024-01-01", "08:00") {
		t.Error("WithEntry modified the receiver")
	}
}

func TestTakenLog_WithEntryDoesNotAlias(t *testing.T) {
	log := TakenLog{}.WithEntry("m1", "2024-01-01", "08:00", TakenEntry{Taken: true})
	updated := log.WithEntry("m1", "2024-01-01", "20:00", TakenEntry{Taken: true})

	updated["m1"]["2024-01-01"]["08:00"] = TakenEntry{Taken: false}
	if !log.Taken("m1", "2024-01-01", "08:00") {
		t.Error("mutating the copy reached the original through a shared map")
	}
}

func TestTakenLog_MarkThenUnmark(t *testing.T) {
	log := TakenLog{}.WithEntry("m1", "2024-01-01", "08:00", TakenEntry{Taken: true, ActualTakenTime: "08:02"})
	log = log.WithEntry("m1", "2024-01-01", "08:00", TakenEntry{Taken: false})

	if log.Taken("m1", "2024-01-01", "08:00") {
		t.Error("unmarked occurrence still reads taken")
	}
	entry, _ := log.Entry("m1", "2024-01-01", "08:00")
	if entry.ActualTakenTime != "" {
		t.Errorf("unmark kept actual taken time %q", entry.ActualTakenTime)
	}
}

func TestTakenLog_WithoutMedication(t *testing.T) {
	log := TakenLog{}.
		WithEntry("m1", "2024-01-01", "08:00", TakenEntry{Taken: true}).
		WithEntry("m2", "2024-01-01", "09:00", TakenEntry{Taken: true})

	pruned := log.WithoutMedication("m1")
	if _, ok := pruned["m1"]; ok {
		t.Error("medication entries not removed")
	}
	if !pruned.Taken("m2", "2024-01-01", "09:00") {
		t.Error("other medication's entries lost")
	}
	if !log.Taken("m1", "2024-01-01", "08:00") {
		t.Error("WithoutMedication modified the receiver")
	}
}

func TestUpsertReschedule(t *testing.T) {
	first := Reschedule{MedicationID: "m1", OriginalDate: "2024-01-01", OriginalTime: "08:00", NewTime: "09:00", AppliedDate: "2024-01-01"}
	second := Reschedule{MedicationID: "m1", OriginalDate: "2024-01-01", OriginalTime: "08:00", NewTime: "10:30", AppliedDate: "2024-01-01"}
	other := Reschedule{MedicationID: "m2", OriginalDate: "2024-01-01", OriginalTime: "08:00", NewTime: "08:45", AppliedDate: "2024-01-01"}

	list := UpsertReschedule(nil, first)
	list = UpsertReschedule(list, other)
	list = UpsertReschedule(list, second)

	if len(list) != 2 {
		t.Fatalf("len = %d, want 2 (same slot replaces, never accumulates)", len(list))
	}
	for _, r := range list {
		if r.SameSlot(first) && r.NewTime != "10:30" {
			t.Errorf("slot kept old time %s, want 10:30", r.NewTime)
		}
	}
}
