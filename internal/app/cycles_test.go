package app_test

import (
	"math"
	"testing"

	"fertility/internal/app"
	"fertility/internal/domain"
)

func flowDay(date string) domain.MenstrualRecord {
	return domain.MenstrualRecord{Date: date, Flow: domain.FlowMedium}
}

// periodStarts builds single-day periods separated by the given cycle
// lengths, starting at start.
func periodStarts(start string, lengths ...int) []domain.MenstrualRecord {
	records := []domain.MenstrualRecord{flowDay(start)}
	day := start
	for _, l := range lengths {
		day = domain.AddDays(day, l)
		records = append(records, flowDay(day))
	}
	return records
}

func TestGroupPeriods(t *testing.T) {
	records := []domain.MenstrualRecord{
		flowDay("2025-01-01"),
		flowDay("2025-01-02"),
		flowDay("2025-01-04"), // 2-day gap, same period
		flowDay("2025-01-08"), // >2-day gap, new period
		{Date: "2025-01-09", Flow: domain.FlowNone}, // no flow, ignored
		flowDay("2025-01-10"),
	}

	periods := app.GroupPeriods(records)
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d: %+v", len(periods), periods)
	}
	if periods[0].StartDate != "2025-01-01" || periods[0].EndDate != "2025-01-04" || periods[0].Duration != 4 {
		t.Errorf("unexpected first period: %+v", periods[0])
	}
	if periods[1].StartDate != "2025-01-08" || periods[1].EndDate != "2025-01-10" || periods[1].Duration != 3 {
		t.Errorf("unexpected second period: %+v", periods[1])
	}
}

func TestGroupPeriods_UnsortedAndDuplicates(t *testing.T) {
	records := []domain.MenstrualRecord{
		flowDay("2025-01-03"),
		flowDay("2025-01-01"),
		flowDay("2025-01-02"),
		flowDay("2025-01-02"),
	}

	periods := app.GroupPeriods(records)
	if len(periods) != 1 {
		t.Fatalf("expected 1 period, got %d", len(periods))
	}
	if periods[0].Duration != 3 {
		t.Errorf("expected duration 3, got %d", periods[0].Duration)
	}
}

func TestAnalyzeCycles_InsufficientData(t *testing.T) {
	got := app.AnalyzeCycles([]domain.MenstrualRecord{flowDay("2025-01-01")}, domain.DefaultUserSettings(), "")
	if got.Valid {
		t.Fatal("expected insufficient data below 2 periods")
	}
	if got.Reason == "" {
		t.Fatal("expected a human-readable reason")
	}
}

func TestAnalyzeCycles_Lengths(t *testing.T) {
	got := app.AnalyzeCycles(periodStarts("2025-01-01", 28), domain.DefaultUserSettings(), "")
	if !got.Valid {
		t.Fatalf("expected valid analysis, got reason %q", got.Reason)
	}
	if len(got.CycleLengths) != 1 || got.CycleLengths[0] != 28 {
		t.Fatalf("expected one 28-day cycle, got %v", got.CycleLengths)
	}
	if got.LastPeriodStart != "2025-01-29" {
		t.Errorf("expected last period start 2025-01-29, got %s", got.LastPeriodStart)
	}
	if got.NextPeriodStart != "2025-02-26" {
		t.Errorf("expected next period start 2025-02-26, got %s", got.NextPeriodStart)
	}
	if got.HasRegularity {
		t.Error("regularity needs at least 3 periods")
	}
}

func TestAnalyzeCycles_Regularity(t *testing.T) {
	records := periodStarts("2024-01-01", 28, 29, 27, 30, 28, 26, 29)

	got := app.AnalyzeCycles(records, domain.DefaultUserSettings(), "")
	if !got.Valid || !got.HasRegularity {
		t.Fatalf("expected regularity analysis, got %+v", got)
	}
	if math.Abs(got.AverageCycleLength-28.142857) > 0.001 {
		t.Errorf("expected mean ~28.14, got %f", got.AverageCycleLength)
	}
	if got.StdDev < 1.3 || got.StdDev > 1.4 {
		t.Errorf("expected sigma ~1.35, got %f", got.StdDev)
	}
	if got.Regularity != app.RegularityRegular {
		t.Errorf("expected %q, got %q", app.RegularityRegular, got.Regularity)
	}
	if got.RegularityScore != 0.81 {
		t.Errorf("expected score 0.81, got %v", got.RegularityScore)
	}
}

func TestAnalyzeCycles_RegularityLabels(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
		want    string
	}{
		{"very regular", []int{28, 28, 28, 29}, app.RegularityVeryRegular},
		{"somewhat irregular", []int{22, 33, 28, 26}, app.RegularitySomewhatIrregular},
		{"irregular", []int{20, 40, 25, 45}, app.RegularityIrregular},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := app.AnalyzeCycles(periodStarts("2024-01-01", tc.lengths...), domain.DefaultUserSettings(), "")
			if !got.HasRegularity {
				t.Fatalf("expected regularity, got %+v", got)
			}
			if got.Regularity != tc.want {
				t.Errorf("lengths %v: expected %q, got %q (sigma %f)", tc.lengths, tc.want, got.Regularity, got.StdDev)
			}
		})
	}
}

func TestAnalyzeCycles_LutealFromShift(t *testing.T) {
	// Periods start 2025-01-01 and 2025-01-29; the shift on 2025-01-17
	// puts the luteal phase at 12 days.
	got := app.AnalyzeCycles(periodStarts("2025-01-01", 28), domain.DefaultUserSettings(), "2025-01-17")
	if got.AverageLutealPhase != 12 {
		t.Errorf("expected luteal phase 12, got %d", got.AverageLutealPhase)
	}
}

func TestAnalyzeCycles_LutealFallback(t *testing.T) {
	settings := domain.DefaultUserSettings()
	settings.AverageLutealPhase = 13

	// No shift date: configured average wins.
	got := app.AnalyzeCycles(periodStarts("2025-01-01", 28), settings, "")
	if got.AverageLutealPhase != 13 {
		t.Errorf("expected configured 13, got %d", got.AverageLutealPhase)
	}

	// Implausibly long shift-to-period gap: configured average wins.
	got = app.AnalyzeCycles(periodStarts("2025-01-01", 28), settings, "2025-01-04")
	if got.AverageLutealPhase != 13 {
		t.Errorf("expected fallback for 25-day gap, got %d", got.AverageLutealPhase)
	}
}
