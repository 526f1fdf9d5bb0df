package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestJSONLogger_LevelsAndAttributes(t *testing.T) {
	var buf bytes.Buffer
	var log Logger = NewJSONLogger(&buf, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "stale session transition dropped", "generation", 1)
	log.Info(ctx, "connectivity changed", "mode", "online")
	log.Warn(ctx, "dropping booking with unknown status", "id", "b1")
	log.Error(ctx, "error fetching profile", "user_id", "u1")

	recs := records(t, &buf)
	require.Len(t, recs, 4)
	for i, want := range []struct{ level, key string }{
		{"DEBUG", "generation"},
		{"INFO", "mode"},
		{"WARN", "id"},
		{"ERROR", "user_id"},
	} {
		assert.Equal(t, want.level, recs[i]["level"])
		assert.Contains(t, recs[i], want.key)
	}
}

func TestJSONLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, slog.LevelInfo)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
}

func TestWith_ChildKeepsParentAttributes(t *testing.T) {
	var buf bytes.Buffer
	root := NewJSONLogger(&buf, slog.LevelInfo)

	child := root.With("module", "dashboard").With("user_id", "u1")
	child.Info(context.Background(), "loaded", "resource", "bookings")
	root.Info(context.Background(), "root")

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "dashboard", recs[0]["module"])
	assert.Equal(t, "u1", recs[0]["user_id"])
	assert.Equal(t, "bookings", recs[0]["resource"])
	assert.NotContains(t, recs[1], "module")
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	NewTextLogger(&buf, slog.LevelDebug).With("module", "notifications").Debug(context.Background(), "loaded", "count", 3)

	out := buf.String()
	for _, s := range []string{"level=DEBUG", "msg=loaded", "module=notifications", "count=3"} {
		assert.Contains(t, out, s)
	}
}
