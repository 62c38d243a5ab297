package app_test

import (
	"testing"

	"fertility/internal/app"
	"fertility/internal/domain"
)

// makePoints builds daily readings on consecutive dates from start.
func makePoints(start string, temps ...float64) []app.TemperaturePoint {
	points := make([]app.TemperaturePoint, 0, len(temps))
	for i, v := range temps {
		points = append(points, app.TemperaturePoint{Date: domain.AddDays(start, i), Temperature: v})
	}
	return points
}

// The canonical biphasic series: six low days then a clear sustained rise.
var biphasicTemps = []float64{36.3, 36.2, 36.4, 36.3, 36.2, 36.7, 36.8, 36.9, 36.8, 36.7}

func TestDetect_BiphasicSeries(t *testing.T) {
	got := app.DetectTemperatureShift(makePoints("2025-01-01", biphasicTemps...))

	if !got.Valid {
		t.Fatalf("expected valid analysis, got reason %q", got.Reason)
	}
	if !got.Detected {
		t.Fatal("expected a detected shift")
	}
	if got.ShiftDate != "2025-01-06" {
		t.Errorf("expected shift on 2025-01-06, got %s", got.ShiftDate)
	}
	if got.OvulationDate != "2025-01-05" {
		t.Errorf("expected ovulation on 2025-01-05, got %s", got.OvulationDate)
	}
	if got.Confidence == app.ShiftLow {
		t.Errorf("expected at least medium confidence, got %s", got.Confidence)
	}
}

func TestDetect_CoverLine(t *testing.T) {
	got := app.DetectTemperatureShift(makePoints("2025-01-01", biphasicTemps...))

	if !got.HasCoverLine {
		t.Fatal("expected a cover-line")
	}
	if got.CoverLine != 36.5 {
		t.Errorf("expected cover-line 36.5, got %.2f", got.CoverLine)
	}
}

func TestDetect_UnsortedInput(t *testing.T) {
	points := makePoints("2025-01-01", biphasicTemps...)
	points[0], points[9] = points[9], points[0]
	points[3], points[6] = points[6], points[3]

	got := app.DetectTemperatureShift(points)
	if !got.Detected || got.ShiftDate != "2025-01-06" {
		t.Errorf("expected shift on 2025-01-06 regardless of input order, got %+v", got)
	}
}

func TestDetect_DiscardsOutOfRange(t *testing.T) {
	points := makePoints("2025-01-01", biphasicTemps...)
	// A dead battery reading and a fever spike must not disturb detection.
	points = append(points,
		app.TemperaturePoint{Date: "2024-12-30", Temperature: 0},
		app.TemperaturePoint{Date: "2024-12-31", Temperature: 50.0},
	)

	got := app.DetectTemperatureShift(points)
	if !got.Detected || got.ShiftDate != "2025-01-06" {
		t.Errorf("expected out-of-range readings to be discarded, got %+v", got)
	}
}

func TestDetect_InsufficientData(t *testing.T) {
	got := app.DetectTemperatureShift(makePoints("2025-01-01", 36.3, 36.2, 36.4, 36.3, 36.2, 36.7, 36.8, 36.9))
	if got.Valid {
		t.Fatal("expected insufficient data for 8 readings")
	}
	if got.Reason == "" {
		t.Fatal("expected a human-readable reason")
	}

	// Nine readings without the 6-low + 3-high split are still too few.
	flat9 := app.DetectTemperatureShift(makePoints("2025-01-01", 36.4, 36.4, 36.4, 36.4, 36.4, 36.4, 36.4, 36.4, 36.4))
	if flat9.Valid {
		t.Fatal("expected insufficient data for 9 readings with no shift")
	}
}

func TestDetect_NinePointBiphasic(t *testing.T) {
	got := app.DetectTemperatureShift(makePoints("2025-01-01", 36.3, 36.2, 36.4, 36.3, 36.2, 36.3, 36.8, 36.9, 36.8))
	if !got.Valid || !got.Detected {
		t.Fatalf("expected 6 low + 3 high days to detect, got %+v", got)
	}
}

func TestDetect_NoShiftIsNormalOutcome(t *testing.T) {
	flat := make([]float64, 12)
	for i := range flat {
		flat[i] = 36.4
	}

	got := app.DetectTemperatureShift(makePoints("2025-01-01", flat...))
	if !got.Valid {
		t.Fatalf("expected valid analysis, got reason %q", got.Reason)
	}
	if got.Detected {
		t.Fatal("expected no shift in a monophasic series")
	}
}

func TestDetect_KeepsMostRecentShift(t *testing.T) {
	temps := []float64{
		36.2, 36.2, 36.2, 36.2, 36.2, 36.2, // low phase
		36.7, 36.7, 36.7, // first rise
		36.2, 36.2, 36.2, 36.2, 36.2, 36.2, // back down
		36.8, 36.8, 36.8, // current cycle's rise
	}

	got := app.DetectTemperatureShift(makePoints("2025-01-01", temps...))
	if !got.Detected {
		t.Fatal("expected a detected shift")
	}
	if got.ShiftDate != "2025-01-15" {
		t.Errorf("expected the later shift 2025-01-15, got %s", got.ShiftDate)
	}
	if !got.HasCoverLine || got.CoverLine != 36.8 {
		t.Errorf("expected cover-line 36.8 over the second low phase, got %+v", got)
	}
}

func TestConfidenceWeight(t *testing.T) {
	if app.ShiftHigh.Weight() <= app.ShiftMedium.Weight() || app.ShiftMedium.Weight() <= app.ShiftLow.Weight() {
		t.Fatal("weights must increase with confidence")
	}
}
