package app

import (
	"math"
	"sort"

	"fertility/internal/domain"
)

// Period is one run of menstrual flow days.
type Period struct {
	StartDate string
	EndDate   string
	Duration  int
}

// Regularity labels mapped from the cycle-length standard deviation.
const (
	RegularityVeryRegular       = "very_regular"
	RegularityRegular           = "regular"
	RegularitySomewhatIrregular = "somewhat_irregular"
	RegularityIrregular         = "irregular"
)

// CycleAnalysis summarizes menstrual history. Valid=false with a reason
// replaces an error when the history is too short; callers branch on it.
type CycleAnalysis struct {
	Valid  bool
	Reason string

	Periods            []Period
	CycleLengths       []int
	AverageCycleLength float64
	LastPeriodStart    string
	NextPeriodStart    string

	// Regularity fields are populated only when HasRegularity is set;
	// they need one more period than the rest of the analysis.
	HasRegularity   bool
	StdDev          float64
	Regularity      string
	RegularityScore float64

	AverageLutealPhase int
}

// Flow days this close together belong to the same period; a wider gap
// starts a new one.
const periodMaxGapDays = 2

// maxLutealDays caps a believable shift-to-period gap; beyond it the
// configured average is used instead.
const maxLutealDays = 20

// AnalyzeCycles groups menstrual records into periods and derives cycle
// lengths, regularity, and the average luteal phase. shiftDate may be empty;
// when set it refines the luteal estimate using the gap to the next period
// start, falling back to the user's configured average otherwise.
func AnalyzeCycles(records []domain.MenstrualRecord, settings domain.UserSettings, shiftDate string) CycleAnalysis {
	periods := GroupPeriods(records)
	if len(periods) < 2 {
		return CycleAnalysis{Reason: "insufficient data: at least 2 completed periods are needed"}
	}

	lengths := make([]int, 0, len(periods)-1)
	for i := 1; i < len(periods); i++ {
		lengths = append(lengths, domain.DaysBetween(periods[i-1].StartDate, periods[i].StartDate))
	}

	var sum float64
	for _, l := range lengths {
		sum += float64(l)
	}
	avg := sum / float64(len(lengths))

	last := periods[len(periods)-1].StartDate
	a := CycleAnalysis{
		Valid:              true,
		Periods:            periods,
		CycleLengths:       lengths,
		AverageCycleLength: avg,
		LastPeriodStart:    last,
		NextPeriodStart:    domain.AddDays(last, int(math.Round(avg))),
		AverageLutealPhase: lutealPhase(periods, settings, shiftDate),
	}

	if len(lengths) >= 2 {
		sd := sampleStdDev(lengths, avg)
		a.HasRegularity = true
		a.StdDev = sd
		a.Regularity = regularityLabel(sd)
		a.RegularityScore = math.Round(math.Max(0, 1-sd/7)*100) / 100
	}

	return a
}

// GroupPeriods collapses flow days into periods, ordered by start date.
// Records with no flow (or an invalid one) do not contribute.
func GroupPeriods(records []domain.MenstrualRecord) []Period {
	days := make([]string, 0, len(records))
	seen := make(map[string]bool)
	for _, r := range records {
		if r.Flow == domain.FlowNone || domain.ValidateMenstrualFlow(r.Flow) != nil {
			continue
		}
		if domain.ValidateDate(r.Date) != nil || seen[r.Date] {
			continue
		}
		seen[r.Date] = true
		days = append(days, r.Date)
	}
	sort.Strings(days)

	var periods []Period
	for _, day := range days {
		if n := len(periods); n > 0 && domain.DaysBetween(periods[n-1].EndDate, day) <= periodMaxGapDays {
			periods[n-1].EndDate = day
			periods[n-1].Duration = domain.DaysBetween(periods[n-1].StartDate, day) + 1
			continue
		}
		periods = append(periods, Period{StartDate: day, EndDate: day, Duration: 1})
	}
	return periods
}

// lutealPhase measures shift-to-next-period when a shift date is known and
// the gap is plausible, otherwise returns the configured average.
func lutealPhase(periods []Period, settings domain.UserSettings, shiftDate string) int {
	fallback := settings.AverageLutealPhase
	if fallback <= 0 {
		fallback = domain.DefaultUserSettings().AverageLutealPhase
	}
	if shiftDate == "" {
		return fallback
	}
	for _, p := range periods {
		gap := domain.DaysBetween(shiftDate, p.StartDate)
		if gap > 0 && gap <= maxLutealDays {
			return gap
		}
	}
	return fallback
}

func sampleStdDev(lengths []int, mean float64) float64 {
	var ss float64
	for _, l := range lengths {
		d := float64(l) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(lengths)-1))
}

func regularityLabel(sd float64) string {
	switch {
	case sd <= 1:
		return RegularityVeryRegular
	case sd <= 4:
		return RegularityRegular
	case sd <= 7:
		return RegularitySomewhatIrregular
	default:
		return RegularityIrregular
	}
}
