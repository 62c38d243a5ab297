package main

import (
	"context"
	"log"
	"os"
	"time"

	"fertility/internal/adapter/postgres"
	"fertility/internal/app"
	"fertility/internal/domain"
)

func main() {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}

	store, err := postgres.Open(connStr)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = store.Close() }()

	manager := app.NewDataManager(store, app.DefaultCacheTTL)
	predictor := app.NewPredictor(manager)

	today := env("TODAY", domain.FormatDay(time.Now()))
	ctx := context.Background()

	pred, err := predictor.Predict(ctx, today)
	if err != nil {
		log.Fatalf("predict: %v", err)
	}
	if !pred.Valid {
		log.Printf("no prediction for %s: %s", today, pred.Reason)
		return
	}

	status := app.ClassifyStatus(pred, today)
	log.Printf("predicted ovulation %s via %s method (confidence %.2f)", pred.OvulationDate, pred.Method, pred.Confidence)
	log.Printf("fertile window %s..%s, optimal %s..%s", pred.FertileWindowStart, pred.FertileWindowEnd, pred.OptimalWindowStart, pred.OptimalWindowEnd)
	log.Printf("status for %s: %s (%d days)", today, status.Status, status.Days)

	logCoverLine(ctx, manager, today)
}

// logCoverLine reports the temperature chart's cover line in the unit the
// user configured. Readings are stored in celsius.
func logCoverLine(ctx context.Context, manager *app.DataManager, today string) {
	settings, err := manager.GetUserSettings(ctx)
	if err != nil {
		log.Printf("settings: %v", err)
		return
	}

	records, err := manager.GetDayRecordsInRange(ctx, domain.AddDays(today, -90), today)
	if err != nil {
		log.Printf("records: %v", err)
		return
	}
	var points []app.TemperaturePoint
	for _, rec := range records {
		if rec.Temperature != nil {
			points = append(points, app.TemperaturePoint{Date: rec.Date, Temperature: rec.Temperature.Temperature})
		}
	}

	shift := app.DetectTemperatureShift(points)
	if !shift.Valid || !shift.HasCoverLine {
		return
	}
	unit := settings.TemperatureUnit
	log.Printf("cover line %.2f %s", domain.ConvertTemperature(shift.CoverLine, "celsius", unit), unit)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
