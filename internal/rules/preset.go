package rules

import (
	"fmt"

	"github.com/eliteGoblin/breatherd/internal/domain"
)

// Preset names accepted by NewPresetRule.
const (
	PresetWorkHours = "work"
	PresetNightTime = "night"
	PresetMorning   = "morning"
	PresetLunch     = "lunch"
	PresetAllDay    = "allday"
)

// NewPresetRule builds a common blocking rule for an application.
// The rule is enabled and has no id until added to the store.
func NewPresetRule(preset, appName string) (domain.BlockingRule, error) {
	r := domain.BlockingRule{AppName: appName, Enabled: true}
	switch preset {
	case PresetWorkHours:
		r.StartHour, r.EndHour = 9, 17
	case PresetNightTime:
		r.StartHour, r.EndHour = 22, 7
	case PresetMorning:
		r.StartHour, r.EndHour = 6, 9
	case PresetLunch:
		r.StartHour, r.EndHour = 12, 14
	case PresetAllDay:
		r.StartHour, r.StartMinute = 0, 0
		r.EndHour, r.EndMinute = 23, 59
	default:
		return domain.BlockingRule{}, fmt.Errorf("unknown preset %q", preset)
	}
	return r, nil
}
