package sqllog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"libcommon/pkg/observability"
)

// Tracer feeds pgx statement events to a Listener and records SQL metrics.
// Either may be nil.
type Tracer struct {
	listener *Listener
	metrics  *observability.Metrics
	now      func() time.Time
}

var (
	_ pgx.QueryTracer = (*Tracer)(nil)
	_ pgx.BatchTracer = (*Tracer)(nil)
)

// NewTracer creates a Tracer.
func NewTracer(listener *Listener, metrics *observability.Metrics) *Tracer {
	return &Tracer{listener: listener, metrics: metrics, now: time.Now}
}

type queryKey struct{}

type queryState struct {
	sql   string
	args  []any
	start time.Time
}

// TraceQueryStart records the statement and its start time.
func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryKey{}, &queryState{sql: data.SQL, args: data.Args, start: t.now()})
}

// TraceQueryEnd logs the finished statement.
func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryKey{}).(*queryState)
	if !ok {
		return
	}
	elapsed := t.now().Sub(qs.start)
	t.metrics.RecordSQLStatement(ctx, qs.sql, data.Err == nil, elapsed.Seconds())

	if t.listener == nil {
		return
	}
	exec := ExecutionInfo{
		Elapsed:   elapsed,
		ResultSet: isResultSet(qs.sql, data.CommandTag),
		Columns:   -1,
		Rows:      data.CommandTag.RowsAffected(),
		Err:       data.Err,
	}
	t.listener.AfterQuery(ctx, exec, []QueryInfo{{SQL: qs.sql, Args: argSets(qs.args)}})
}

type batchKey struct{}

type batchState struct {
	mu      sync.Mutex
	start   time.Time
	order   []string
	queries map[string]*batchGroup
}

type batchGroup struct {
	args   [][]any
	rows   int64
	result bool
	err    error
}

// TraceBatchStart begins collecting the batch's statements.
func (t *Tracer) TraceBatchStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceBatchStartData) context.Context {
	return context.WithValue(ctx, batchKey{}, &batchState{start: t.now(), queries: make(map[string]*batchGroup)})
}

// TraceBatchQuery adds one batched statement, grouping by SQL text.
func (t *Tracer) TraceBatchQuery(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchQueryData) {
	bs, ok := ctx.Value(batchKey{}).(*batchState)
	if !ok {
		return
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()

	g, ok := bs.queries[data.SQL]
	if !ok {
		g = &batchGroup{result: isResultSet(data.SQL, data.CommandTag)}
		bs.queries[data.SQL] = g
		bs.order = append(bs.order, data.SQL)
	}
	g.args = append(g.args, data.Args)
	g.rows += data.CommandTag.RowsAffected()
	if data.Err != nil && g.err == nil {
		g.err = data.Err
	}
}

// TraceBatchEnd logs one line per distinct statement in the batch.
func (t *Tracer) TraceBatchEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchEndData) {
	bs, ok := ctx.Value(batchKey{}).(*batchState)
	if !ok {
		return
	}
	elapsed := t.now().Sub(bs.start)

	bs.mu.Lock()
	defer bs.mu.Unlock()
	for _, sql := range bs.order {
		g := bs.queries[sql]
		err := g.err
		if err == nil {
			err = data.Err
		}
		for range g.args {
			t.metrics.RecordSQLStatement(ctx, sql, err == nil, elapsed.Seconds()/float64(len(g.args)))
		}
		if t.listener == nil {
			continue
		}
		exec := ExecutionInfo{
			Elapsed:   elapsed,
			BatchSize: len(g.args),
			ResultSet: g.result,
			Columns:   -1,
			Rows:      g.rows,
			Err:       err,
		}
		t.listener.AfterQuery(ctx, exec, []QueryInfo{{SQL: sql, Args: g.args}})
	}
}

func argSets(args []any) [][]any {
	if len(args) == 0 {
		return nil
	}
	return [][]any{args}
}

func isResultSet(sql string, tag pgconn.CommandTag) bool {
	if tag.String() != "" {
		return tag.Select()
	}
	op := observability.StatementOperation(sql)
	return op == "select" || op == "with" || strings.Contains(strings.ToLower(sql), " returning ")
}
