package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/hollysys/plc-comm-forge/comm/driver"
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/comm/plan"
	"github.com/hollysys/plc-comm-forge/comm/runengine"
	"github.com/hollysys/plc-comm-forge/comm/storage"
	"github.com/hollysys/plc-comm-forge/comm/validate"
)

// usage: ./plc-comm-runner -dir=./rundata -run-id=run-1 [-dry-run]
func main() {
	var dataDir, runID string
	var dryRun bool
	flag.StringVar(&dataDir, "dir", "./rundata", "base directory for persisted profiles/points/plan/results")
	flag.StringVar(&runID, "run-id", "run-1", "identifier for this run's archived results")
	flag.BoolVar(&dryRun, "dry-run", false, "use the deterministic mock driver instead of real Modbus transports")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	store := storage.New(dataDir)

	profiles, ok, err := store.LoadProfiles()
	if err != nil {
		logger.Error("loading profiles failed", "err", err)
		return
	}
	if !ok {
		logger.Error("profiles.v1.json not found", "dir", dataDir)
		return
	}

	points, ok, err := store.LoadPoints()
	if err != nil {
		logger.Error("loading points failed", "err", err)
		return
	}
	if !ok {
		logger.Error("points.v1.json not found", "dir", dataDir)
		return
	}

	if issues := validate.Run(profiles, points, spanFor); len(issues) > 0 {
		for _, iss := range issues {
			logger.Warn("validation issue", "field", iss.Field, "reason", iss.Reason, "hmiName", iss.HmiName)
		}
		logger.Error("run aborted: configuration is invalid")
		return
	}

	p, err := plan.Build(profiles, points)
	if err != nil {
		logger.Error("building plan failed", "err", err)
		return
	}
	if err := store.SavePlan(p.Jobs); err != nil {
		logger.Error("saving plan failed", "err", err)
		return
	}

	var drv driver.CommDriver
	if dryRun {
		drv = driver.NewMock()
	} else {
		drv = selectDriver(profiles)
	}

	eng := runengine.New(runengine.Config{
		RunID:    runID,
		Profiles: profiles,
		Points:   points,
		Plan:     p,
		Driver:   drv,
		Logger:   logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := eng.Latest()
				if err := store.SaveLastResults(snapshotToDoc(snap)); err != nil {
					logger.Warn("periodic snapshot save failed", "err", err)
				}
			}
		}
	}()

	logger.Info("run starting", "runId", runID, "jobs", len(p.Jobs))
	eng.Run(ctx)

	final := eng.Latest()
	if err := store.SaveLastResults(snapshotToDoc(final)); err != nil {
		logger.Error("final snapshot save failed", "err", err)
	}
	if err := store.SaveRunLastResults(runID, snapshotToDoc(final)); err != nil {
		logger.Error("final run archive save failed", "err", err)
	}
	logger.Info("run ended", "runId", runID, "total", final.Stats.Total, "ok", final.Stats.Ok)
}

func snapshotToDoc(snap runengine.Snapshot) storage.LastResultsDoc {
	results := make([]model.SampleResult, 0, len(snap.Results))
	for _, r := range snap.Results {
		results = append(results, r)
	}
	return storage.LastResultsDoc{Results: results, Stats: snap.Stats}
}

func spanFor(area model.ReadArea, dt model.DataType) (int, bool) {
	if area.IsBitArea() {
		if dt == model.DataTypeBool {
			return 1, true
		}
		return 0, false
	}
	if dt == model.DataTypeBool {
		return 0, false
	}
	return dt.RegisterSpan()
}

// selectDriver picks one real transport implementation for the whole run:
// the RTU driver if any profile is RTU485, otherwise the TCP driver. All
// jobs share that single driver; mixed TCP and RTU485 profiles are not
// dispatched to separate drivers.
func selectDriver(profiles []model.ConnectionProfile) driver.CommDriver {
	for _, p := range profiles {
		if p.Kind == model.ProfileRTU485 {
			return driver.NewModbusRTU()
		}
	}
	return driver.NewModbusTCP()
}
