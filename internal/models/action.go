package models

import "strings"

// Action is a user command issued through the command surface.
type Action string

const (
	ActionPrevious       Action = "previous"
	ActionRepeat         Action = "repeat"
	ActionNext           Action = "next"
	ActionCycleLanguage  Action = "cycle_language"
	ActionToggleSettings Action = "toggle_settings"
	ActionSpeedDown      Action = "speed_down"
	ActionSpeedReset     Action = "speed_reset"
	ActionSpeedUp        Action = "speed_up"
	ActionExport         Action = "export"
	ActionSwitchLanguage Action = "switch_language"
	ActionSubtitlesOff   Action = "subtitles_off"
	ActionToggleLanguage Action = "toggle_language"
	ActionReorder        Action = "reorder_languages"
)

// keyBindings maps KeyboardEvent.code values to actions.
var keyBindings = map[string]Action{
	"KeyA": ActionPrevious,
	"KeyS": ActionRepeat,
	"KeyD": ActionNext,
	"KeyW": ActionCycleLanguage,
	"KeyO": ActionToggleSettings,
	"KeyJ": ActionSpeedDown,
	"KeyK": ActionSpeedReset,
	"KeyL": ActionSpeedUp,
	"KeyC": ActionExport,
}

// ActionForKey returns the action bound to a KeyboardEvent.code value.
func ActionForKey(code string) (Action, bool) {
	a, ok := keyBindings[code]
	return a, ok
}

// ParseAction converts an action name to an Action.
func ParseAction(name string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	switch a {
	case ActionPrevious, ActionRepeat, ActionNext, ActionCycleLanguage, ActionToggleSettings,
		ActionSpeedDown, ActionSpeedReset, ActionSpeedUp, ActionExport, ActionSwitchLanguage,
		ActionSubtitlesOff, ActionToggleLanguage, ActionReorder:
		return a, true
	default:
		return "", false
	}
}
