package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
	"github.com/agroclimate/parcel-alert-service/internal/pipeline"
)

func TestDispatchTo_Success(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]domain.User{
			"u1": {ID: "u1", Email: "u1@example.com", PhoneNumber: "+15155550100"},
		},
	}
	exec := &recordingExecutor{}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 2)

	ok := d.DispatchTo(context.Background(), "u1", domain.AlertProperties{Event: "Flood Warning"})
	require.True(t, ok)
	require.Equal(t, 1, exec.count())

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(exec.payloads[0], &payload))
	assert.JSONEq(t, `"u1"`, string(payload["userId"]))
	assert.JSONEq(t, `"WEATHER_ALERT"`, string(payload["notificationType"]))
}

func TestDispatchTo_NoEmailSkipsExecutor(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]domain.User{
			"u1": {ID: "u1", PhoneNumber: "+15155550100"},
		},
	}
	exec := &recordingExecutor{}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 2)

	ok := d.DispatchTo(context.Background(), "u1", domain.AlertProperties{})
	assert.False(t, ok)
	assert.Equal(t, 0, exec.count(), "executor must not be contacted for ineligible users")
}

func TestDispatchTo_UnknownUser(t *testing.T) {
	users := &fakeUserStore{users: map[string]domain.User{}}
	exec := &recordingExecutor{}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 2)

	ok := d.DispatchTo(context.Background(), "ghost", domain.AlertProperties{})
	assert.False(t, ok)
	assert.Equal(t, 0, exec.count())
}

func TestDispatchTo_ExecutorFailure(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]domain.User{"u1": {ID: "u1", Email: "u1@example.com"}},
	}
	exec := &recordingExecutor{err: errors.New("throttled")}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 2)

	ok := d.DispatchTo(context.Background(), "u1", domain.AlertProperties{})
	assert.False(t, ok)
}

func TestFanout_CountsOnlySuccesses(t *testing.T) {
	users := &fakeUserStore{
		users: map[string]domain.User{
			"u1": {ID: "u1", Email: "u1@example.com"},
			"u2": {ID: "u2"}, // no email
			"u3": {ID: "u3", Email: "u3@example.com"},
		},
	}
	exec := &recordingExecutor{}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 4)

	affected := map[string]struct{}{"u1": {}, "u2": {}, "u3": {}, "ghost": {}}

	sent := d.Fanout(context.Background(), affected, domain.AlertProperties{Event: "Flood Warning"})
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, exec.count())
}

func TestFanout_JoinsBeforeReturning(t *testing.T) {
	userMap := make(map[string]domain.User)
	affected := make(map[string]struct{})
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		userMap[id] = domain.User{ID: id, Email: id + "@example.com"}
		affected[id] = struct{}{}
	}

	users := &fakeUserStore{users: userMap}
	exec := &recordingExecutor{}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 3)

	sent := d.Fanout(context.Background(), affected, domain.AlertProperties{})

	// All dispatches are observable the moment Fanout returns.
	assert.Equal(t, 8, sent)
	assert.Equal(t, 8, exec.count())
}

func TestFanout_EmptySet(t *testing.T) {
	users := &fakeUserStore{users: map[string]domain.User{}}
	exec := &recordingExecutor{}
	d := pipeline.NewDispatcher(users, exec, slog.Default(), newTestMetrics(), 2)

	sent := d.Fanout(context.Background(), nil, domain.AlertProperties{})
	assert.Zero(t, sent)
}
