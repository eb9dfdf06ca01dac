package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// fakeRunner counts executions and returns a canned table or error.
type fakeRunner struct {
	calls int
	table *warehouse.ResultTable
	err   error
}

func (f *fakeRunner) RunQuery(ctx context.Context, sql string) (*warehouse.ResultTable, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTable() *warehouse.ResultTable {
	return &warehouse.ResultTable{
		Columns: []string{"total_users"},
		Rows:    []warehouse.Row{{"total_users": int64(4200)}},
	}
}

func newTestGateway(runner *fakeRunner, cache Cache) (*Gateway, *int) {
	factoryCalls := 0
	factory := func(ctx context.Context) (warehouse.Runner, error) {
		factoryCalls++
		return runner, nil
	}
	return New(factory, cache, testLogger()), &factoryCalls
}

func TestIsReadOnly(t *testing.T) {
	testCases := []struct {
		name     string
		sql      string
		readOnly bool
	}{
		{"plain select", "SELECT 1", true},
		{"lowercase select", "select count(*) from x", true},
		{"leading whitespace", "   \n\tSELECT 1", true},
		{"cte", "WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"lowercase cte", "with t as (select 1) select * from t", true},
		{"delete", "DELETE FROM x", false},
		{"drop", "DROP TABLE users", false},
		{"insert", "INSERT INTO x VALUES (1)", false},
		{"update", "update x set a = 1", false},
		{"empty", "", false},
		{"comment first", "-- note\nSELECT 1", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.readOnly, IsReadOnly(tc.sql))
		})
	}
}

func TestExecuteRejectsNonReadOnlyBeforeClientContact(t *testing.T) {
	runner := &fakeRunner{table: sampleTable()}
	gw, factoryCalls := newTestGateway(runner, NewMemoryCache(time.Hour))

	_, err := gw.Execute(context.Background(), "DELETE FROM x")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, *factoryCalls, "client must never be constructed for a rejected query")
	assert.Equal(t, 0, runner.calls)
}

func TestExecuteReturnsTable(t *testing.T) {
	runner := &fakeRunner{table: sampleTable()}
	gw, _ := newTestGateway(runner, NewMemoryCache(time.Hour))

	table, err := gw.Execute(context.Background(), "SELECT COUNT(*) AS total_users FROM `d.user`")
	require.NoError(t, err)

	total, ok := table.FirstInt("total_users")
	require.True(t, ok)
	assert.Equal(t, int64(4200), total)
}

func TestExecuteClientInitError(t *testing.T) {
	factory := func(ctx context.Context) (warehouse.Runner, error) {
		return nil, errors.New("missing credentials")
	}
	gw := New(factory, NewMemoryCache(time.Hour), testLogger())

	_, err := gw.Execute(context.Background(), "SELECT 1")

	var initErr *ClientInitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorContains(t, err, "missing credentials")
}

func TestExecuteExecutionError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("permission denied")}
	gw, _ := newTestGateway(runner, NewMemoryCache(time.Hour))

	table, err := gw.Execute(context.Background(), "SELECT 1")

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Nil(t, table, "a failure must never yield a partial table")
}

func TestExecuteCachedIsIdempotentWithinTTL(t *testing.T) {
	runner := &fakeRunner{table: sampleTable()}
	gw, _ := newTestGateway(runner, NewMemoryCache(time.Hour))

	first, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	second, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls, "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestExecuteCachedDistinctQueriesDoNotShareEntries(t *testing.T) {
	runner := &fakeRunner{table: sampleTable()}
	gw, _ := newTestGateway(runner, NewMemoryCache(time.Hour))

	_, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	_, err = gw.ExecuteCached(context.Background(), "SELECT 2")
	require.NoError(t, err)

	assert.Equal(t, 2, runner.calls)
}

func TestExecuteCachedReexecutesAfterTTL(t *testing.T) {
	runner := &fakeRunner{table: sampleTable()}
	cache := NewMemoryCache(time.Hour)

	current := time.Now()
	cache.now = func() time.Time { return current }

	gw, _ := newTestGateway(runner, cache)

	_, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)

	// Just before expiry the entry is still fresh.
	current = current.Add(time.Hour - time.Second)
	_, err = gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)

	// At the TTL boundary the entry is expired.
	current = current.Add(2 * time.Second)
	_, err = gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestFlushForcesReexecution(t *testing.T) {
	runner := &fakeRunner{table: sampleTable()}
	gw, _ := newTestGateway(runner, NewMemoryCache(time.Hour))

	_, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)

	gw.Flush()

	_, err = gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
}

func TestFailuresAreNeverCached(t *testing.T) {
	runner := &fakeRunner{err: errors.New("transient outage")}
	gw, _ := newTestGateway(runner, NewMemoryCache(time.Hour))

	_, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.Error(t, err)

	runner.err = nil
	runner.table = sampleTable()

	table, err := gw.ExecuteCached(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, 1, table.NumRows())
}

func TestMemoryCacheBasics(t *testing.T) {
	cache := NewMemoryCache(time.Hour)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Put("q", sampleTable())
	got, ok := cache.Get("q")
	require.True(t, ok)
	assert.Equal(t, sampleTable(), got)
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	_, ok = cache.Get("q")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}
