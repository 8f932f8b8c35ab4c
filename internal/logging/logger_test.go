package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithActorAndProject(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	WithProject(WithActor("u1"), "p1").Info("task moved")

	out := buf.String()
	for _, want := range []string{"user_id=u1", "project_id=p1", "task moved"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %q", want, out)
		}
	}
}
