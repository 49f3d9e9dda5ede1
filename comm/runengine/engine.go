// Package runengine schedules read-plan execution: per-iteration job runs
// with timeout/retry, an atomically-updated latest-results snapshot, and
// cooperative stop.
package runengine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hollysys/plc-comm-forge/comm/connmgr"
	"github.com/hollysys/plc-comm-forge/comm/driver"
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/comm/plan"
	"github.com/hollysys/plc-comm-forge/comm/validate"
	"github.com/hollysys/plc-comm-forge/comm/valuecodec"
)

// Snapshot is the atomic "whole-iteration" latest-results view: the most
// recent SampleResult per point key, current RunStats, and the time it was
// produced.
type Snapshot struct {
	RunID     string
	Timestamp time.Time
	Results   map[model.PointKey]model.SampleResult
	Stats     model.RunStats
}

// Config configures one Engine run.
type Config struct {
	RunID     string
	Profiles  []model.ConnectionProfile
	Points    []model.Point
	Plan      *plan.Plan
	Driver    driver.CommDriver
	Logger    *slog.Logger
	TimeNow   func() time.Time
	ClockTick func(d time.Duration) <-chan time.Time // overridable in tests
}

// Engine owns one run's connection pool, scheduling loop, and latest
// results cell.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	mgr    *connmgr.Manager

	mu       sync.RWMutex
	snapshot Snapshot

	stopCh chan struct{}
	once   sync.Once
}

// New builds an Engine for cfg. Call Run to start the loop; call Stop to
// request cooperative termination.
func New(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TimeNow == nil {
		cfg.TimeNow = time.Now
	}
	if cfg.ClockTick == nil {
		cfg.ClockTick = time.After
	}
	return &Engine{
		cfg:    cfg,
		logger: cfg.Logger,
		mgr:    connmgr.New(cfg.RunID, cfg.Logger),
		stopCh: make(chan struct{}),
	}
}

// Stop asserts the monotone stop signal; safe to call multiple times.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stopCh) })
}

// Latest returns a copy of the most recent snapshot.
func (e *Engine) Latest() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := e.snapshot
	cp.Results = make(map[model.PointKey]model.SampleResult, len(e.snapshot.Results))
	for k, v := range e.snapshot.Results {
		cp.Results[k] = v
	}
	return cp
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

// Run validates inputs, then executes iterations until the context is
// cancelled or Stop is called. Run itself writes nothing to storage; the
// snapshot published last stays readable through Latest after it returns.
// Config validation failures short-circuit the I/O phase: every
// affected point gets a synthetic ConfigError SampleResult instead.
func (e *Engine) Run(ctx context.Context) {
	defer e.mgr.CloseAll()

	if issues := validate.Run(e.cfg.Profiles, e.cfg.Points, spanFor); len(issues) > 0 {
		e.persistConfigErrors(issues)
		return
	}

	for {
		start := e.cfg.TimeNow()
		results, stats := e.runIteration(ctx)
		e.publish(results, stats)

		maxPoll := e.maxPollInterval()
		elapsed := e.cfg.TimeNow().Sub(start)
		sleep := maxPoll - elapsed
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-e.cfg.ClockTick(sleep):
		}
	}
}

func (e *Engine) maxPollInterval() time.Duration {
	max := time.Second
	for _, p := range e.cfg.Profiles {
		d := time.Duration(p.PollIntervalMs) * time.Millisecond
		if d > max {
			max = d
		}
	}
	return max
}

func (e *Engine) persistConfigErrors(issues []validate.Issue) {
	results := make(map[model.PointKey]model.SampleResult)
	var stats model.RunStats
	for _, pt := range e.cfg.Points {
		results[pt.PointKey] = model.SampleResult{
			PointKey:     pt.PointKey,
			Quality:      model.QualityConfigError,
			Timestamp:    e.cfg.TimeNow().Format(time.RFC3339),
			ErrorMessage: configErrorMessage(issues, pt.PointKey),
		}
		stats.Add(model.QualityConfigError)
	}
	e.publish(results, stats)
}

func configErrorMessage(issues []validate.Issue, key model.PointKey) string {
	for _, i := range issues {
		if i.PointKey != nil && *i.PointKey == key {
			return i.Reason
		}
	}
	return "run configuration is invalid"
}

func (e *Engine) publish(results map[model.PointKey]model.SampleResult, stats model.RunStats) {
	e.mu.Lock()
	e.snapshot = Snapshot{RunID: e.cfg.RunID, Timestamp: e.cfg.TimeNow(), Results: results, Stats: stats}
	e.mu.Unlock()
}

func (e *Engine) runIteration(ctx context.Context) (map[model.PointKey]model.SampleResult, model.RunStats) {
	results := make(map[model.PointKey]model.SampleResult)
	var stats model.RunStats

	profileByChannel := make(map[string]model.ConnectionProfile, len(e.cfg.Profiles))
	for _, p := range e.cfg.Profiles {
		profileByChannel[p.ChannelName] = p
	}

	for _, job := range e.cfg.Plan.Jobs {
		select {
		case <-e.stopCh:
			return results, stats
		case <-ctx.Done():
			return results, stats
		default:
		}

		profile := profileByChannel[job.ChannelName]
		e.runJob(ctx, profile, job, results, &stats)
	}
	return results, stats
}

func (e *Engine) runJob(ctx context.Context, profile model.ConnectionProfile, job model.ReadJob, results map[model.PointKey]model.SampleResult, stats *model.RunStats) {
	connectTimeout := time.Duration(profile.TimeoutMs) * time.Millisecond
	if connectTimeout < time.Second {
		connectTimeout = time.Second
	}
	readTimeout := time.Duration(profile.TimeoutMs) * time.Millisecond

	start := e.cfg.TimeNow()
	var raw driver.RawReadData
	var readErr error

	attempts := profile.RetryCount + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			key := e.cfg.Driver.ConnectionKey(profile)
			e.mgr.Invalidate(key, "retry after failed read")
		}

		client, err := e.mgr.EnsureConnected(ctx, e.cfg.Driver, profile, e.stopCh, connectTimeout)
		if err != nil {
			readErr = err
			continue
		}

		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		raw, readErr = e.cfg.Driver.ReadWithClient(readCtx, client, job)
		if readErr != nil && readCtx.Err() == context.DeadlineExceeded {
			readErr = driver.ErrTimeout
		}
		cancel()
		if readErr == nil {
			break
		}
	}
	duration := e.cfg.TimeNow().Sub(start).Milliseconds()

	if readErr != nil {
		quality := model.QualityCommError
		if de, ok := readErr.(*driver.DriverError); ok && de.Timeout {
			quality = model.QualityTimeout
		}
		for _, jp := range job.Points {
			results[jp.PointKey] = model.SampleResult{
				PointKey: jp.PointKey, Quality: quality,
				Timestamp: e.cfg.TimeNow().Format(time.RFC3339), DurationMs: duration,
				ErrorMessage: readErr.Error(),
			}
			stats.Add(quality)
		}
		return
	}

	pointByKey := make(map[model.PointKey]model.Point, len(e.cfg.Points))
	for _, p := range e.cfg.Points {
		pointByKey[p.PointKey] = p
	}

	for _, jp := range job.Points {
		pt, ok := pointByKey[jp.PointKey]
		if !ok {
			continue
		}
		result := e.decodePoint(pt, job, jp, raw, duration)
		results[jp.PointKey] = result
		stats.Add(result.Quality)
	}
}

func (e *Engine) decodePoint(pt model.Point, job model.ReadJob, jp model.ReadJobPoint, raw driver.RawReadData, durationMs int64) model.SampleResult {
	ts := e.cfg.TimeNow().Format(time.RFC3339)

	if job.ReadArea.IsBitArea() {
		if jp.Offset >= len(raw.Bits) {
			return model.SampleResult{PointKey: pt.PointKey, Quality: model.QualityDecodeError, Timestamp: ts, DurationMs: durationMs, ErrorMessage: "bit index out of range"}
		}
		v, err := valuecodec.DecodeFromBit(pt.DataType, raw.Bits[jp.Offset])
		if err != nil {
			return model.SampleResult{PointKey: pt.PointKey, Quality: model.QualityDecodeError, Timestamp: ts, DurationMs: durationMs, ErrorMessage: err.Error()}
		}
		return model.SampleResult{PointKey: pt.PointKey, Quality: model.QualityOk, Timestamp: ts, DurationMs: durationMs, ValueDisplay: valuecodec.FormatDisplay(pt.DataType, v, pt.Scale)}
	}

	if jp.Offset+jp.Length > len(raw.Registers) {
		return model.SampleResult{PointKey: pt.PointKey, Quality: model.QualityDecodeError, Timestamp: ts, DurationMs: durationMs, ErrorMessage: "register slice out of range"}
	}
	regs := raw.Registers[jp.Offset : jp.Offset+jp.Length]
	v, err := valuecodec.DecodeFromRegisters(pt.DataType, pt.ByteOrder, regs)
	if err != nil {
		return model.SampleResult{PointKey: pt.PointKey, Quality: model.QualityDecodeError, Timestamp: ts, DurationMs: durationMs, ErrorMessage: err.Error()}
	}
	return model.SampleResult{PointKey: pt.PointKey, Quality: model.QualityOk, Timestamp: ts, DurationMs: durationMs, ValueDisplay: valuecodec.FormatDisplay(pt.DataType, v, pt.Scale)}
}
