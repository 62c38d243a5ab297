package app

import (
	"context"
	"math"

	"fertility/internal/domain"
)

// Method identifies which estimator produced an ovulation date.
type Method string

// Prediction methods.
const (
	MethodTemperature Method = "temperature"
	MethodCycle       Method = "cycle"
	MethodCombined    Method = "combined"
)

// Estimate is one estimator's ovulation date with its numeric confidence.
type Estimate struct {
	Method        Method
	OvulationDate string
	Confidence    float64
}

// Prediction is the combined ovulation forecast. Valid=false with a reason
// is the first-class "not predictable" outcome for thin history; it is
// never reported as an error.
type Prediction struct {
	Valid  bool
	Reason string

	OvulationDate string
	Confidence    float64
	Method        Method

	FertileWindowStart string
	FertileWindowEnd   string
	OptimalWindowStart string
	OptimalWindowEnd   string
}

// Status classifies today against the predicted windows.
type Status string

// Status values, ordered through the cycle.
const (
	StatusPreFertile  Status = "pre_fertile"
	StatusFertile     Status = "fertile"
	StatusOptimal     Status = "optimal"
	StatusPostFertile Status = "post_fertile"
)

// StatusResult carries the classification and a day count for messaging:
// days until the fertile window (pre_fertile), days until the optimal
// window or remaining in the fertile one (fertile), days remaining
// (optimal), or days since the window closed (post_fertile).
type StatusResult struct {
	Status Status
	Days   int
}

// Fertile window geometry around the ovulation date, and the widest
// date gap at which the two estimates still describe the same event.
const (
	fertileDaysBefore  = 5
	fertileDaysAfter   = 1
	optimalDaysBefore  = 2
	maxEstimateGapDays = 3
)

// cycleConfidenceFloor is the minimum confidence of the cycle method. It is
// also the confidence of an estimate anchored on the configured averages
// rather than on measured cycle lengths.
const cycleConfidenceFloor = 0.3

// How far back the predictor reads, in days: the full range for menstrual
// history, the recent slice for temperatures (the detector only ever keeps
// the latest shift).
const (
	historyWindowDays     = 365
	temperatureWindowDays = 90
)

// Predictor derives the ovulation forecast from data read through the
// DataManager. Analytics consumers use it and the DataManager only; the
// record store stays behind both.
type Predictor struct {
	data *DataManager
}

// NewPredictor creates a Predictor reading through the given DataManager.
func NewPredictor(data *DataManager) *Predictor {
	return &Predictor{data: data}
}

// Predict combines the temperature-shift and cycle-statistics estimates
// into one ovulation date with fertile and optimal windows.
//
// With a single usable estimate the result is that estimate. When both
// exist and agree within 3 days, the date is their confidence-weighted
// midpoint and the combined confidence is the average plus 0.1, capped at
// 1. Clearly divergent estimates are not averaged; the more confident one
// wins unmodified.
//
// With only one recorded period there is no measurable cycle length, so the
// cycle estimate falls back to the user's configured averages at floor
// confidence.
func (p *Predictor) Predict(ctx context.Context, today string) (Prediction, error) {
	if err := domain.ValidateDate(today); err != nil {
		return Prediction{}, domain.FieldError("today", err)
	}

	settings, err := p.data.GetUserSettings(ctx)
	if err != nil {
		return Prediction{}, err
	}

	from := domain.AddDays(today, -historyWindowDays)
	records, err := p.data.GetDayRecordsInRange(ctx, from, today)
	if err != nil {
		return Prediction{}, err
	}

	tempFrom := domain.AddDays(today, -temperatureWindowDays)
	var points []TemperaturePoint
	var menstrual []domain.MenstrualRecord
	for _, rec := range records {
		if rec.Temperature != nil && rec.Date >= tempFrom {
			points = append(points, TemperaturePoint{Date: rec.Date, Temperature: rec.Temperature.Temperature})
		}
		if rec.Menstrual != nil {
			menstrual = append(menstrual, *rec.Menstrual)
		}
	}

	shift := DetectTemperatureShift(points)

	var tempEst *Estimate
	if shift.Valid && shift.Detected {
		tempEst = &Estimate{
			Method:        MethodTemperature,
			OvulationDate: shift.OvulationDate,
			Confidence:    shift.Confidence.Weight(),
		}
	}

	shiftDate := ""
	if shift.Detected {
		shiftDate = shift.ShiftDate
	}
	cycles := AnalyzeCycles(menstrual, settings, shiftDate)

	var cycleEst *Estimate
	if cycles.Valid {
		offset := int(math.Round(cycles.AverageCycleLength)) - cycles.AverageLutealPhase
		cycleEst = &Estimate{
			Method:        MethodCycle,
			OvulationDate: domain.AddDays(cycles.LastPeriodStart, offset),
			Confidence:    math.Max(cycleConfidenceFloor, cycles.RegularityScore),
		}
	} else if periods := GroupPeriods(menstrual); len(periods) > 0 {
		cycleEst = &Estimate{
			Method:        MethodCycle,
			OvulationDate: settingsOvulation(periods[len(periods)-1].StartDate, settings),
			Confidence:    cycleConfidenceFloor,
		}
	}

	est, ok := CombineEstimates(tempEst, cycleEst)
	if !ok {
		return Prediction{
			Reason: "insufficient data: neither the temperature method nor the cycle method has enough history",
		}, nil
	}

	return Prediction{
		Valid:              true,
		OvulationDate:      est.OvulationDate,
		Confidence:         est.Confidence,
		Method:             est.Method,
		FertileWindowStart: domain.AddDays(est.OvulationDate, -fertileDaysBefore),
		FertileWindowEnd:   domain.AddDays(est.OvulationDate, fertileDaysAfter),
		OptimalWindowStart: domain.AddDays(est.OvulationDate, -optimalDaysBefore),
		OptimalWindowEnd:   est.OvulationDate,
	}, nil
}

// CurrentStatus predicts and classifies today against the windows. The
// second return mirrors Prediction.Valid: a false means not predictable.
func (p *Predictor) CurrentStatus(ctx context.Context, today string) (StatusResult, bool, error) {
	pred, err := p.Predict(ctx, today)
	if err != nil || !pred.Valid {
		return StatusResult{}, false, err
	}
	return ClassifyStatus(pred, today), true, nil
}

// CombineEstimates merges the two method estimates under the combination
// rule. ok=false when neither method produced a result.
func CombineEstimates(temp, cycle *Estimate) (Estimate, bool) {
	switch {
	case temp == nil && cycle == nil:
		return Estimate{}, false
	case cycle == nil:
		return *temp, true
	case temp == nil:
		return *cycle, true
	}

	gap := domain.DaysBetween(temp.OvulationDate, cycle.OvulationDate)
	if abs(gap) > maxEstimateGapDays {
		if cycle.Confidence > temp.Confidence {
			return *cycle, true
		}
		return *temp, true
	}

	// Confidence-weighted midpoint, expressed as a day offset from the
	// temperature estimate and rounded to a whole day.
	offset := cycle.Confidence / (temp.Confidence + cycle.Confidence) * float64(gap)
	return Estimate{
		Method:        MethodCombined,
		OvulationDate: domain.AddDays(temp.OvulationDate, int(math.Round(offset))),
		Confidence:    math.Min(1, (temp.Confidence+cycle.Confidence)/2+0.1),
	}, true
}

// ClassifyStatus compares today against the prediction's windows.
func ClassifyStatus(p Prediction, today string) StatusResult {
	switch {
	case today < p.FertileWindowStart:
		return StatusResult{Status: StatusPreFertile, Days: domain.DaysBetween(today, p.FertileWindowStart)}
	case today > p.FertileWindowEnd:
		return StatusResult{Status: StatusPostFertile, Days: domain.DaysBetween(p.FertileWindowEnd, today)}
	case today >= p.OptimalWindowStart && today <= p.OptimalWindowEnd:
		return StatusResult{Status: StatusOptimal, Days: domain.DaysBetween(today, p.OptimalWindowEnd)}
	case today < p.OptimalWindowStart:
		return StatusResult{Status: StatusFertile, Days: domain.DaysBetween(today, p.OptimalWindowStart)}
	default:
		return StatusResult{Status: StatusFertile, Days: domain.DaysBetween(today, p.FertileWindowEnd)}
	}
}

// settingsOvulation estimates ovulation from the last period start using
// only the configured average cycle and luteal lengths.
func settingsOvulation(lastPeriodStart string, settings domain.UserSettings) string {
	defaults := domain.DefaultUserSettings()
	cycle := settings.AverageCycleLength
	if cycle <= 0 {
		cycle = defaults.AverageCycleLength
	}
	luteal := settings.AverageLutealPhase
	if luteal <= 0 {
		luteal = defaults.AverageLutealPhase
	}
	return domain.AddDays(lastPeriodStart, cycle-luteal)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
