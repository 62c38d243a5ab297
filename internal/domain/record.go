// Package domain contains the core business entities and interfaces.
package domain

import "time"

// DayFormat is the canonical layout for calendar-day strings.
const DayFormat = "2006-01-02"

// Fixed logical keys in the record store.
const (
	KeyUserSettings = "user_settings"
	KeyDayRecords   = "day_records"
	KeyCycles       = "cycles"
)

// Flow is the recorded menstrual flow intensity for a day.
type Flow string

// Valid flow values.
const (
	FlowNone   Flow = "none"
	FlowLight  Flow = "light"
	FlowMedium Flow = "medium"
	FlowHeavy  Flow = "heavy"
)

// TemperatureRecord is a single basal body temperature measurement.
// At most one exists per calendar day.
type TemperatureRecord struct {
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	Note        string  `json:"note,omitempty"`
}

// MenstrualRecord is the flow entry for a day. IsStart and IsEnd mark cycle
// boundaries and are never both true on the same record.
type MenstrualRecord struct {
	Date    string `json:"date"`
	Flow    Flow   `json:"flow"`
	IsStart bool   `json:"isStart,omitempty"`
	IsEnd   bool   `json:"isEnd,omitempty"`
}

// IntercourseRecord is one intercourse event; a day may hold several.
type IntercourseRecord struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Protected bool   `json:"protected"`
	Note      string `json:"note,omitempty"`
}

// SymptomRecord lists the symptoms observed on a day.
type SymptomRecord struct {
	Date     string   `json:"date"`
	Symptoms []string `json:"symptoms"`
	Note     string   `json:"note,omitempty"`
}

// DayRecord aggregates everything recorded for one calendar date. The date
// string is the primary key of the whole store; every facet is optional.
// NoIntercourse is an explicit "nothing happened" marker and is mutually
// exclusive with a non-empty Intercourse list.
type DayRecord struct {
	Date          string              `json:"date"`
	Temperature   *TemperatureRecord  `json:"temperature,omitempty"`
	Menstrual     *MenstrualRecord    `json:"menstrual,omitempty"`
	Intercourse   []IntercourseRecord `json:"intercourse,omitempty"`
	Symptoms      *SymptomRecord      `json:"symptoms,omitempty"`
	NoIntercourse bool                `json:"noIntercourse,omitempty"`
}

// IsEmpty reports whether the day record carries no facets at all.
// An empty day must be removed from the store, never persisted.
func (d DayRecord) IsEmpty() bool {
	return d.Temperature == nil &&
		d.Menstrual == nil &&
		len(d.Intercourse) == 0 &&
		d.Symptoms == nil &&
		!d.NoIntercourse
}

// MenstrualCycle spans from one period start to the next. EndDate is empty
// while the cycle is still open. Cycles are ordered by StartDate and never
// overlap.
type MenstrualCycle struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate,omitempty"`
	Length     int    `json:"length,omitempty"`
	IsComplete bool   `json:"isComplete"`
}

// UserSettings holds the personal parameters that bias predictions when
// historical data is sparse.
type UserSettings struct {
	AverageCycleLength int    `json:"averageCycleLength"`
	AverageLutealPhase int    `json:"averageLutealPhase"`
	TemperatureUnit    string `json:"temperatureUnit"`
}

// DefaultUserSettings returns settings with default values.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		AverageCycleLength: 28,
		AverageLutealPhase: 14,
		TemperatureUnit:    "celsius",
	}
}

// ParseDay parses a canonical day string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// FormatDay formats t as a canonical day string.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// AddDays shifts a day string by n calendar days. The input must already be
// validated; an unparseable day is returned unchanged.
func AddDays(day string, n int) string {
	t, err := ParseDay(day)
	if err != nil {
		return day
	}
	return FormatDay(t.AddDate(0, 0, n))
}

// DaysBetween returns b - a in whole days. Negative when b precedes a.
func DaysBetween(a, b string) int {
	ta, err := ParseDay(a)
	if err != nil {
		return 0
	}
	tb, err := ParseDay(b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}
