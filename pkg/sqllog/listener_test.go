package sqllog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type logLine struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

func newLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func readLines(t *testing.T, buf *bytes.Buffer) []logLine {
	t.Helper()
	var lines []logLine
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var l logLine
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			t.Fatalf("bad log line %q: %v", raw, err)
		}
		lines = append(lines, l)
	}
	return lines
}

func TestNewListener_Gating(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		cfg        Config
		wantInline bool
		wantWarns  int
	}{
		{name: "dev with params", cfg: Config{Enabled: true, ShowParameters: true, Profiles: []string{"dev"}}, wantInline: true},
		{name: "local mixed case", cfg: Config{Enabled: true, ShowParameters: true, Profiles: []string{"cloud", " LOCAL "}}, wantInline: true},
		{name: "dev without params", cfg: Config{Enabled: true, Profiles: []string{"dev"}}},
		{name: "prod with params", cfg: Config{Enabled: true, ShowParameters: true, Profiles: []string{"prod"}}, wantWarns: 2},
		{name: "prod without params", cfg: Config{Enabled: true, Profiles: []string{"prod"}}, wantWarns: 1},
		{name: "no profiles", cfg: Config{Enabled: true, ShowParameters: true}, wantWarns: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger, buf := newLogger()
			l := NewListener(tt.cfg, logger)

			if l.InlineParameters() != tt.wantInline {
				t.Errorf("InlineParameters() = %v, want %v", l.InlineParameters(), tt.wantInline)
			}
			lines := readLines(t, buf)
			if len(lines) != tt.wantWarns {
				t.Fatalf("got %d warnings: %+v", len(lines), lines)
			}
			for _, line := range lines {
				if line.Level != "WARN" {
					t.Errorf("level = %s", line.Level)
				}
			}
			if tt.wantWarns == 2 && !strings.HasPrefix(lines[0].Msg, "Parameter logging is ENABLED in non-dev environment [") {
				t.Errorf("first warning = %q", lines[0].Msg)
			}
		})
	}
}

func TestListener_ProdLogsRawStatement(t *testing.T) {
	t.Parallel()
	logger, buf := newLogger()
	l := NewListener(Config{Enabled: true, ShowParameters: true, Profiles: []string{"prod"}}, logger)
	buf.Reset()

	l.AfterQuery(context.Background(),
		ExecutionInfo{Elapsed: 3 * time.Millisecond, Rows: 1},
		[]QueryInfo{{SQL: "UPDATE items\n   SET name = $1 WHERE id = $2", Args: [][]any{{"secret", 7}}}},
	)

	lines := readLines(t, buf)
	want := "Query: UPDATE items SET name = $1 WHERE id = $2 | rowsAffected=1 time=3ms"
	if len(lines) != 1 || lines[0].Msg != want {
		t.Errorf("got %+v, want %q", lines, want)
	}
}

func TestListener_Format(t *testing.T) {
	t.Parallel()
	dev := &Listener{inline: true}
	raw := &Listener{}

	tests := []struct {
		name    string
		l       *Listener
		exec    ExecutionInfo
		queries []QueryInfo
		want    string
	}{
		{
			name:    "select with known columns",
			l:       raw,
			exec:    ExecutionInfo{Elapsed: 12 * time.Millisecond, ResultSet: true, Columns: 3},
			queries: []QueryInfo{{SQL: "SELECT id, name,\n\tcreated_at FROM items"}},
			want:    "Query: SELECT id, name, created_at FROM items | cols=3 time=12ms",
		},
		{
			name:    "select without metadata",
			l:       raw,
			exec:    ExecutionInfo{ResultSet: true, Columns: -1, Rows: 5},
			queries: []QueryInfo{{SQL: "SELECT * FROM items"}},
			want:    "Query: SELECT * FROM items | rows=5 time=0ms",
		},
		{
			name:    "select inlined",
			l:       dev,
			exec:    ExecutionInfo{ResultSet: true, Columns: -1, Rows: 1},
			queries: []QueryInfo{{SQL: "SELECT * FROM items WHERE name = ? AND size > ?", Args: [][]any{{"O'Brien", 10}}}},
			want:    `Query: SELECT * FROM items WHERE name = 'O\'Brien' AND size > 10; | rows=1 time=0ms`,
		},
		{
			name: "batched insert becomes tuples",
			l:    dev,
			exec: ExecutionInfo{BatchSize: 2, Rows: 2, Elapsed: time.Millisecond},
			queries: []QueryInfo{{
				SQL:  "INSERT INTO items (id, name)\n VALUES ($1, $2)",
				Args: [][]any{{1, "a"}, {2, nil}},
			}},
			want: "Query: INSERT INTO items (id, name) VALUES (1, 'a'), (2, null); | rowsAffected=2 batchSize=2 time=1ms",
		},
		{
			name: "batched update repeats",
			l:    dev,
			exec: ExecutionInfo{BatchSize: 2, Rows: 2},
			queries: []QueryInfo{{
				SQL:  "UPDATE items SET name = $1 WHERE id = $2",
				Args: [][]any{{"x", 1}, {"y", 2}},
			}},
			want: "Query: UPDATE items SET name = 'x' WHERE id = 1 ; UPDATE items SET name = 'y' WHERE id = 2; | rowsAffected=2 batchSize=2 time=0ms",
		},
		{
			name:    "no placeholders stays raw",
			l:       dev,
			exec:    ExecutionInfo{Rows: 0},
			queries: []QueryInfo{{SQL: "DELETE  FROM items"}},
			want:    "Query: DELETE FROM items | rowsAffected=0 time=0ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.l.Format(tt.exec, tt.queries); got != tt.want {
				t.Errorf("Format() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestListener_ErrorLogsWarn(t *testing.T) {
	t.Parallel()
	logger, buf := newLogger()
	l := &Listener{logger: logger}
	l.AfterQuery(context.Background(), ExecutionInfo{Err: errors.New("duplicate key")}, []QueryInfo{{SQL: "INSERT INTO items VALUES (1)"}})

	lines := readLines(t, buf)
	if len(lines) != 1 || lines[0].Level != "WARN" {
		t.Errorf("got %+v", lines)
	}
}

func TestBindParams(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sql  string
		args []any
		want string
	}{
		{"a = ? AND b = ?", []any{1, "x"}, "a = 1 AND b = 'x'"},
		{"a = ? AND b = ?", []any{1}, "a = 1 AND b = ?"},
		{"a = $2 AND b = $1", []any{"x", 2.5}, "a = 2.5 AND b = 'x'"},
		{"a = $10", []any{1}, "a = $10"},
		{"a = '?' AND b = ?", []any{true}, "a = '?' AND b = 'true'"},
	}
	for _, tt := range tests {
		if got := bindParams(tt.sql, tt.args); got != tt.want {
			t.Errorf("bindParams(%q) = %q, want %q", tt.sql, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()
	n := 42
	var nilPtr *int
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{nilPtr, "null"},
		{&n, "42"},
		{int64(-3), "-3"},
		{uint8(7), "7"},
		{1.5, "1.5"},
		{"it's", `'it\'s'`},
		{[]byte("raw"), "'raw'"},
		{ts, "'2026-01-02T03:04:05Z'"},
		{false, "'false'"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasPlaceholder(t *testing.T) {
	t.Parallel()
	if !hasPlaceholder("a = ?") || !hasPlaceholder("a = $1") {
		t.Error("expected placeholders")
	}
	if hasPlaceholder("SELECT '$' FROM t") || hasPlaceholder("SELECT 1") {
		t.Error("unexpected placeholder")
	}
}
