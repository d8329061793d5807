package models

// Preferences are the user-tunable alert settings, persisted with the rest
// of the application state
type Preferences struct {
	RemindersEnabled    bool `json:"remindersEnabled"`    // pre-dose reminders
	MissedAlertsEnabled bool `json:"missedAlertsEnabled"` // missed-dose alerts
	PreDoseLeadMinutes  int  `json:"preDoseLeadMinutes"`  // minutes before the dose
	MissedGraceMinutes  int  `json:"missedGraceMinutes"`  // minutes after the dose
}

// DefaultPreferences returns preferences with default values
func DefaultPreferences() Preferences {
	return Preferences{
		RemindersEnabled:    true,
		MissedAlertsEnabled: true,
		PreDoseLeadMinutes:  10,
		MissedGraceMinutes:  1,
	}
}

// Normalized replaces non-positive offsets with the defaults
func (p Preferences) Normalized() Preferences {
	defaults := DefaultPreferences()
	if p.PreDoseLeadMinutes <= 0 {
		p.PreDoseLeadMinutes = defaults.PreDoseLeadMinutes
	}
	if p.MissedGraceMinutes <= 0 {
		p.MissedGraceMinutes = defaults.MissedGraceMinutes
	}
	return p
}
