package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStartup_StartsDependenciesFirstAndStopsInReverse(t *testing.T) {
	var events []string
	record := func(event string) func(context.Context) error {
		return func(context.Context) error {
			events = append(events, event)
			return nil
		}
	}

	s := New(silentLogger(), 1)
	s.Add(Func{ComponentName: "http", Dependencies: []string{"database"}, OnStart: record("start http"), OnStop: record("stop http")})
	s.Add(Func{ComponentName: "database", OnStart: record("start database"), OnStop: record("stop database")})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{"start database", "start http", "stop http", "stop database"}, events)
	assert.Equal(t, StatusStopped, s.Status("http"))
}

func TestStartup_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	s := New(silentLogger(), 3)
	s.backoffUnit = time.Millisecond
	s.Add(Func{ComponentName: "kafka", OnStart: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("broker unavailable")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, StatusStarted, s.Status("kafka"))
}

func TestStartup_FailsAfterMaxAttempts(t *testing.T) {
	s := New(silentLogger(), 2)
	s.backoffUnit = time.Millisecond
	s.Add(Func{ComponentName: "database", OnStart: func(context.Context) error {
		return errors.New("connection refused")
	}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StatusFailed, s.Status("database"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	s := New(silentLogger(), 1)
	s.Add(Func{ComponentName: "http", Dependencies: []string{"missing"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
