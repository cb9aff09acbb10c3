package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewFanoutHandlerCollapses(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}

	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestFanoutHandlerRespectsPerHandlerLevel(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout to accept debug when one handler does")
	}

	record := slog.NewRecord(time.Now(), slog.LevelDebug, "probe", 0)
	if err := h.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if infoBuf.Len() != 0 {
		t.Fatalf("info handler received debug record: %q", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "probe") {
		t.Fatalf("debug handler missed record: %q", debugBuf.String())
	}
}

func TestFanoutHandlerWithAttrsPropagates(t *testing.T) {
	var a, b bytes.Buffer
	h := newFanoutHandler(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))
	logger := slog.New(h).With("creator", "chan")
	logger.Info("hello")

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), "creator=chan") {
			t.Fatalf("%s handler missing attr: %q", name, buf.String())
		}
	}
}
