// Package gateway mediates all warehouse access: it enforces the read-only
// policy, isolates client construction, and caches results by query text.
package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// RunnerFactory constructs the warehouse runner on first use, so credential
// problems surface as a typed error on the request path instead of at boot.
type RunnerFactory func(ctx context.Context) (warehouse.Runner, error)

// Gateway turns validated query text into result tables. Failures are always
// returned as one of the typed errors in this package, never a panic, and
// never partial data.
type Gateway struct {
	factory RunnerFactory
	cache   Cache
	logger  *slog.Logger

	mu     sync.Mutex
	runner warehouse.Runner
}

// New creates a Gateway around the given runner factory and cache.
func New(factory RunnerFactory, cache Cache, logger *slog.Logger) *Gateway {
	return &Gateway{
		factory: factory,
		cache:   cache,
		logger:  logger.With("component", "query_gateway"),
	}
}

// IsReadOnly reports whether the trimmed, lowercased query text starts with
// an allowed read-only keyword.
func IsReadOnly(sql string) bool {
	s := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(s, "select") || strings.HasPrefix(s, "with")
}

// runnerFor returns the shared runner, constructing it on first call.
func (g *Gateway) runnerFor(ctx context.Context) (warehouse.Runner, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.runner != nil {
		return g.runner, nil
	}
	runner, err := g.factory(ctx)
	if err != nil {
		return nil, err
	}
	g.runner = runner
	return runner, nil
}

// Execute validates sql and runs it against the warehouse. The query is
// rejected before any client contact if it is not read-only.
func (g *Gateway) Execute(ctx context.Context, sql string) (*warehouse.ResultTable, error) {
	if !IsReadOnly(sql) {
		g.logger.WarnContext(ctx, "Rejected non read-only query")
		return nil, &ValidationError{Query: sql}
	}

	runner, err := g.runnerFor(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "Warehouse client construction failed", "error", err)
		return nil, &ClientInitError{Err: err}
	}

	table, err := runner.RunQuery(ctx, sql)
	if err != nil {
		g.logger.ErrorContext(ctx, "Warehouse query failed", "error", err)
		return nil, &ExecutionError{Err: err}
	}
	return table, nil
}

// ExecuteCached consults the cache for this exact query text before
// executing. Only successful results are stored; a failure is returned to
// the caller and leaves the cache untouched.
func (g *Gateway) ExecuteCached(ctx context.Context, sql string) (*warehouse.ResultTable, error) {
	if table, ok := g.cache.Get(sql); ok {
		g.logger.DebugContext(ctx, "Query cache hit")
		return table, nil
	}

	table, err := g.Execute(ctx, sql)
	if err != nil {
		return nil, err
	}
	g.cache.Put(sql, table)
	return table, nil
}

// Flush clears all cached results immediately. Administrative action only.
func (g *Gateway) Flush() {
	g.cache.Clear()
	g.logger.Info("Query cache flushed")
}
