// Package app holds the application services and analytics.
package app

import (
	"math"
	"sort"

	"fertility/internal/domain"
)

// TemperaturePoint is one dated basal temperature reading fed to the shift
// detector.
type TemperaturePoint struct {
	Date        string
	Temperature float64
}

// ShiftConfidence grades how clearly the biphasic pattern shows in the data.
type ShiftConfidence string

// Confidence tiers, weakest to strongest.
const (
	ShiftLow    ShiftConfidence = "low"
	ShiftMedium ShiftConfidence = "medium"
	ShiftHigh   ShiftConfidence = "high"
)

// Weight maps a tier to the numeric confidence used when combining the
// temperature estimate with the cycle estimate.
func (c ShiftConfidence) Weight() float64 {
	switch c {
	case ShiftHigh:
		return 0.9
	case ShiftMedium:
		return 0.7
	default:
		return 0.5
	}
}

// TemperatureShift is the detector outcome. "No shift found" is a normal,
// reportable result, not an error; Valid=false is returned only when the
// history is too short to analyze at all.
type TemperatureShift struct {
	Valid  bool
	Reason string

	Detected      bool
	ShiftDate     string
	Rise          float64
	CoverLine     float64
	HasCoverLine  bool
	Confidence    ShiftConfidence
	OvulationDate string
}

// Detection window geometry and thresholds.
const (
	shiftPreWindow    = 6   // days of low phase averaged before a candidate
	shiftPostWindow   = 3   // days of high phase averaged from a candidate
	shiftMinPrePoints = 5   // smallest usable low-phase window
	shiftMinPoints    = 10  // readings required in the general case
	shiftMinRise      = 0.2 // °C between the window means
	sustainTolerance  = 0.1 // °C band for the post-shift sustain check
	coverLineMargin   = 0.1 // °C added above the low-phase maximum
)

const floatEps = 1e-9

// DetectTemperatureShift finds the biphasic low-to-high transition in a
// series of basal temperature readings.
//
// Readings are sorted by date and out-of-range values dropped. A candidate
// index is the onset of the high phase: the mean of the 3-day smoothed
// series over the up-to-6 days before it must sit at least 0.2°C below the
// mean of the 3 days from it. Consecutive valid indices describe the same
// transition, so the detector keeps the onset of the most recent run —
// later shifts belong to the current cycle.
//
// The cover-line is the raw maximum of the pre-shift window plus 0.1°C,
// rounded to one decimal. Ovulation is dated one day before the shift,
// since the thermal rise trails it.
func DetectTemperatureShift(points []TemperaturePoint) TemperatureShift {
	usable := make([]TemperaturePoint, 0, len(points))
	for _, p := range points {
		if domain.ValidateTemperature(p.Temperature) != nil {
			continue
		}
		if _, err := domain.ParseDay(p.Date); err != nil {
			continue
		}
		usable = append(usable, p)
	}
	sort.Slice(usable, func(i, j int) bool { return usable[i].Date < usable[j].Date })

	n := len(usable)
	// One reading fewer than the general minimum still suffices when the
	// series splits into exactly 6 low + 3 high days.
	if n < shiftMinPoints-1 {
		return TemperatureShift{Reason: "insufficient data: at least 10 daily temperatures are needed"}
	}

	raw := make([]float64, n)
	for i, p := range usable {
		raw[i] = p.Temperature
	}
	smoothed := movingAverage3(raw)

	onset := -1
	run := false
	for i := shiftMinPrePoints; i <= n-shiftPostWindow; i++ {
		preStart := i - shiftPreWindow
		if preStart < 0 {
			preStart = 0
		}
		preAvg := mean(smoothed[preStart:i])
		postAvg := mean(smoothed[i : i+shiftPostWindow])
		if postAvg-preAvg >= shiftMinRise-floatEps {
			if !run {
				onset = i // onset of a new run; a later run replaces it
				run = true
			}
		} else {
			run = false
		}
	}

	if onset < 0 {
		if n < shiftMinPoints {
			return TemperatureShift{Reason: "insufficient data: at least 10 daily temperatures are needed"}
		}
		return TemperatureShift{Valid: true}
	}

	preStart := onset - shiftPreWindow
	if preStart < 0 {
		preStart = 0
	}
	rise := mean(smoothed[onset:onset+shiftPostWindow]) - mean(smoothed[preStart:onset])

	sustained := 0
	for i := onset + 1; i <= onset+2 && i < n; i++ {
		if math.Abs(raw[i]-raw[onset]) <= sustainTolerance+floatEps {
			sustained++
		}
	}

	confidence := ShiftLow
	switch {
	case rise >= 0.4-floatEps && sustained == 2:
		confidence = ShiftHigh
	case rise >= 0.3-floatEps && sustained >= 1:
		confidence = ShiftMedium
	}

	result := TemperatureShift{
		Valid:         true,
		Detected:      true,
		ShiftDate:     usable[onset].Date,
		Rise:          rise,
		Confidence:    confidence,
		OvulationDate: domain.AddDays(usable[onset].Date, -1),
	}

	if onset-preStart >= shiftMinPrePoints {
		maxPre := raw[preStart]
		for _, v := range raw[preStart:onset] {
			if v > maxPre {
				maxPre = v
			}
		}
		result.CoverLine = math.Round((maxPre+coverLineMargin)*10) / 10
		result.HasCoverLine = true
	}

	return result
}

// movingAverage3 returns the centered 3-day moving average, with the edge
// values averaged over the neighbors that exist.
func movingAverage3(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > len(v)-1 {
			hi = len(v) - 1
		}
		out[i] = mean(v[lo : hi+1])
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
