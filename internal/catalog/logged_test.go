package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLoggedStore(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := WithCallLogging(NewMemoryStore(), logger)

	items := seed(t, s, "chair")
	got, err := s.Get(context.Background(), items[0].ID)
	if err != nil || got.Name != "chair" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
	if _, err := s.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(unknown) error = %v", err)
	}
	if err := s.Ready(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		`msg="Enter: catalog.Store.Create()"`,
		`msg="Exit: catalog.Store.Get()"`,
		`level=ERROR msg="Exception in catalog.Store.Get()" cause=*errors.errorString exception="item not found"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
