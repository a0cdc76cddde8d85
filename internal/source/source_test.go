package source_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/gaze/internal/policy"
	"github.com/ayoisaiah/gaze/internal/source"
	"github.com/ayoisaiah/gaze/internal/tracker"
	"github.com/ayoisaiah/gaze/store"
)

func newTestRecorder(t *testing.T) (*tracker.Recorder, *store.Client) {
	t.Helper()

	db, err := store.NewClient(filepath.Join(t.TempDir(), "gaze.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return tracker.NewRecorder(db, policy.Default()), db
}

func TestStreamDispatchesEvents(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`{"type":"activity","activity":{"app_id":"com.app.edit","app_name":"Editor","window_title":"Doc1"}}`,
		`{"type":"title","title":"Doc2"}`,
		`{"type":"suspend"}`,
		`{"type":"resume","activity":{"app_id":"com.app.edit","app_name":"Editor","window_title":"Doc2"}}`,
	}, "\n")

	require.NoError(t, source.Stream(ctx, strings.NewReader(input), rec))

	count, err := db.CountSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	cur := rec.CurrentSession()
	require.NotNil(t, cur)
	assert.Equal(t, "Doc2", cur.Title())
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	rec, db := newTestRecorder(t)
	ctx := context.Background()

	input := strings.Join([]string{
		`not json at all`,
		``,
		`{"type":"activity","activity":{"app_id":"com.app.a","app_name":"AppA"}}`,
		`{"type":"launch"}`,
		`{"type":"activity"}`,
	}, "\n")

	require.NoError(t, source.Stream(ctx, strings.NewReader(input), rec))

	count, err := db.CountSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStreamStopsOnCancelledContext(t *testing.T) {
	rec, db := newTestRecorder(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := `{"type":"activity","activity":{"app_id":"com.app.a","app_name":"AppA"}}` + "\n"

	err := source.Stream(ctx, strings.NewReader(input), rec)
	require.ErrorIs(t, err, context.Canceled)

	count, err := db.CountSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
