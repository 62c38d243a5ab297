package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Temperature bounds in °C for a plausible basal body temperature.
const (
	MinTemperature = 35.0
	MaxTemperature = 42.0
)

// maxNoteLen bounds free-text notes.
const maxNoteLen = 500

// ValidateDate checks a canonical YYYY-MM-DD day string.
func ValidateDate(s string) error {
	if s == "" {
		return errors.New("date is required")
	}
	if _, err := time.Parse(DayFormat, s); err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	return nil
}

// ValidateTime checks a 24-hour HH:MM time string. An empty time is valid;
// records without a time of day default to the day itself.
func ValidateTime(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return errors.New("time must be formatted as HH:MM")
	}
	return nil
}

// ValidateTemperature checks the plausible basal range, inclusive at both
// bounds.
func ValidateTemperature(v float64) error {
	if v < MinTemperature || v > MaxTemperature {
		return fmt.Errorf("temperature must be between %.1f and %.1f", MinTemperature, MaxTemperature)
	}
	return nil
}

// ValidateMenstrualFlow checks the flow enum.
func ValidateMenstrualFlow(f Flow) error {
	switch f {
	case FlowNone, FlowLight, FlowMedium, FlowHeavy:
		return nil
	}
	return errors.New(`flow must be one of "none", "light", "medium", "heavy"`)
}

// ValidateNote checks an optional free-text note. Absent notes are valid.
func ValidateNote(s string) error {
	if utf8.RuneCountInString(s) > maxNoteLen {
		return fmt.Errorf("note must be at most %d characters", maxNoteLen)
	}
	return nil
}

// ValidateUserSettings checks that the personal parameters are within
// physiologically sensible ranges.
func ValidateUserSettings(s UserSettings) error {
	if s.AverageCycleLength < 15 || s.AverageCycleLength > 60 {
		return errors.New("averageCycleLength must be between 15 and 60 days")
	}
	if s.AverageLutealPhase < 9 || s.AverageLutealPhase > 18 {
		return errors.New("averageLutealPhase must be between 9 and 18 days")
	}
	if s.TemperatureUnit != "celsius" && s.TemperatureUnit != "fahrenheit" {
		return errors.New(`temperatureUnit must be "celsius" or "fahrenheit"`)
	}
	return nil
}
