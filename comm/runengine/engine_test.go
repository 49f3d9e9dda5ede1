package runengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/hollysys/plc-comm-forge/comm/driver"
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/comm/plan"
	"github.com/hollysys/plc-comm-forge/comm/runengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func immediateTick(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func buildSinglePointPlan(channel string, key model.PointKey) *plan.Plan {
	return &plan.Plan{Jobs: []model.ReadJob{
		{
			ChannelName:  channel,
			ReadArea:     model.ReadAreaHolding,
			StartAddress: 100,
			Length:       1,
			Points:       []model.ReadJobPoint{{PointKey: key, Offset: 0, Length: 1}},
		},
	}}
}

func TestRunProducesOkSampleAndStopsCleanly(t *testing.T) {
	key := model.NewPointKey()
	profile := model.ConnectionProfile{ChannelName: "ch1", ReadArea: model.ReadAreaHolding, StartAddress: 100, Length: 1, TimeoutMs: 100, PollIntervalMs: 10}
	point := model.Point{PointKey: key, HmiName: "P1", ChannelName: "ch1", DataType: model.DataTypeUint16}

	eng := runengine.New(runengine.Config{
		RunID:     "run-1",
		Profiles:  []model.ConnectionProfile{profile},
		Points:    []model.Point{point},
		Plan:      buildSinglePointPlan("ch1", key),
		Driver:    driver.NewMock(),
		ClockTick: immediateTick,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap := eng.Latest()
		return len(snap.Results) == 1
	}, time.Second, time.Millisecond)

	eng.Stop()
	cancel()
	<-done

	snap := eng.Latest()
	result := snap.Results[key]
	assert.Equal(t, model.QualityOk, result.Quality)
}

func TestRunShortCircuitsOnConfigError(t *testing.T) {
	key := model.NewPointKey()
	profile := model.ConnectionProfile{ChannelName: "ch1", ReadArea: model.ReadAreaHolding, StartAddress: 100, Length: 1, PollIntervalMs: 10}
	point := model.Point{PointKey: key, HmiName: "", ChannelName: "unknown", DataType: model.DataTypeUnknown}

	eng := runengine.New(runengine.Config{
		RunID:     "run-2",
		Profiles:  []model.ConnectionProfile{profile},
		Points:    []model.Point{point},
		Plan:      buildSinglePointPlan("ch1", key),
		Driver:    driver.NewMock(),
		ClockTick: immediateTick,
	})

	eng.Run(context.Background())

	snap := eng.Latest()
	result := snap.Results[key]
	assert.Equal(t, model.QualityConfigError, result.Quality)
}

func TestRunTimeoutChannelProducesTimeoutQuality(t *testing.T) {
	key := model.NewPointKey()
	profile := model.ConnectionProfile{ChannelName: "timeout-ch", ReadArea: model.ReadAreaHolding, StartAddress: 100, Length: 1, TimeoutMs: 50, PollIntervalMs: 10}
	point := model.Point{PointKey: key, HmiName: "P1", ChannelName: "timeout-ch", DataType: model.DataTypeUint16}

	eng := runengine.New(runengine.Config{
		RunID:     "run-3",
		Profiles:  []model.ConnectionProfile{profile},
		Points:    []model.Point{point},
		Plan:      buildSinglePointPlan("timeout-ch", key),
		Driver:    driver.NewMock(),
		ClockTick: immediateTick,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		snap := eng.Latest()
		return len(snap.Results) == 1
	}, time.Second, time.Millisecond)

	eng.Stop()
	cancel()
	<-done

	snap := eng.Latest()
	assert.Equal(t, model.QualityTimeout, snap.Results[key].Quality)
}
