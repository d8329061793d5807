package store

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mrcode/medtrack/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s, err := Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_MissingRecordsReadAsDefaults(t *testing.T) {
	s := testStore(t)

	if meds := s.Medications(); len(meds) != 0 {
		t.Errorf("Medications() = %v, want empty", meds)
	}
	if log := s.TakenLog(); len(log) != 0 {
		t.Errorf("TakenLog() = %v, want empty", log)
	}
	if rs := s.Reschedules(); len(rs) != 0 {
		t.Errorf("Reschedules() = %v, want empty", rs)
	}
	if d := s.LastResetDate(); d != "" {
		t.Errorf("LastResetDate() = %q, want empty", d)
	}
	if prefs := s.Preferences(); prefs != models.DefaultPreferences() {
		t.Errorf("Preferences() = %+v, want defaults", prefs)
	}
}

func TestStore_MedicationsRoundTrip(t *testing.T) {
	s := testStore(t)

	meds := []models.Medication{{
		ID:            "m1",
		Name:          "Aspirin",
		Color:         "#ff0000",
		FrequencyType: models.FrequencyDaily,
		DailyIntakes:  []models.Intake{{Time: "08:00", Dosage: 1, Unit: models.UnitPill}},
	}}
	if err := s.SaveMedications(meds); err != nil {
		t.Fatalf("SaveMedications() error = %v", err)
	}

	got := s.Medications()
	if len(got) != 1 || got[0].Name != "Aspirin" || got[0].DailyIntakes[0].Time != "08:00" {
		t.Errorf("Medications() = %+v, want the saved medication back", got)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := testStore(t)

	if err := s.SaveLastResetDate("2024-01-01"); err != nil {
		t.Fatalf("SaveLastResetDate() error = %v", err)
	}
	if err := s.SaveLastResetDate("2024-01-02"); err != nil {
		t.Fatalf("SaveLastResetDate() error = %v", err)
	}
	if d := s.LastResetDate(); d != "2024-01-02" {
		t.Errorf("LastResetDate() = %q, want 2024-01-02", d)
	}
}

func TestStore_TakenLogRoundTrip(t *testing.T) {
	s := testStore(t)

	log := models.TakenLog{}.WithEntry("m1", "2024-01-01", "08:00",
		models.TakenEntry{Taken: true, ActualTakenTime: "08:10"})
	if err := s.SaveTakenLog(log); err != nil {
		t.Fatalf("SaveTakenLog() error = %v", err)
	}

	got := s.TakenLog()
	entry, ok := got.Entry("m1", "2024-01-01", "08:00")
	if !ok || !entry.Taken || entry.ActualTakenTime != "08:10" {
		t.Errorf("TakenLog() entry = %+v ok = %v, want the saved entry back", entry, ok)
	}
}

func TestStore_CorruptRecordReadsAsDefault(t *testing.T) {
	s := testStore(t)

	if err := s.SaveLastResetDate("2024-01-01"); err != nil {
		t.Fatalf("SaveLastResetDate() error = %v", err)
	}
	// Overwrite the row with bytes that are not valid JSON
	err := s.db.Model(&record{}).Where("key = ?", keyLastResetDate).
		Update("value", []byte("{not json")).Error
	if err != nil {
		t.Fatalf("corrupting record: %v", err)
	}

	if d := s.LastResetDate(); d != "" {
		t.Errorf("LastResetDate() = %q, want empty for corrupt record", d)
	}
}

func TestStore_PreferencesNormalizedOnLoad(t *testing.T) {
	s := testStore(t)

	if err := s.SavePreferences(models.Preferences{PreDoseLeadMinutes: -3}); err != nil {
		t.Fatalf("SavePreferences() error = %v", err)
	}
	prefs := s.Preferences()
	if prefs.PreDoseLeadMinutes != 10 || prefs.MissedGraceMinutes != 1 {
		t.Errorf("Preferences() = %+v, want normalized offsets", prefs)
	}
}

func TestStore_TransactRollsBackTogether(t *testing.T) {
	s := testStore(t)

	err := s.Transact(func(tx *Store) error {
		if err := tx.SaveLastResetDate("2024-05-05"); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	})
	if err == nil {
		t.Fatal("Transact() should surface the inner error")
	}
	if d := s.LastResetDate(); d != "" {
		t.Errorf("LastResetDate() = %q after rollback, want empty", d)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s, err := Open(dir, log)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SaveLastResetDate("2024-06-01"); err != nil {
		t.Fatalf("SaveLastResetDate() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir, log)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()

	if d := reopened.LastResetDate(); d != "2024-06-01" {
		t.Errorf("LastResetDate() after reopen = %q, want 2024-06-01", d)
	}
}
