package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/hazyhaar/fedimark/fediwatch/event"
	"github.com/hazyhaar/fedimark/identity"
)

func TestStdout_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)
	ctx := context.Background()

	rec := identity.Record{NativeHandle: "jane", FederatedHandle: "@jane@mas.to", FederatedURL: "https://mas.to/@jane"}
	if err := s.SendDiscovery(ctx, event.Discovery{ID: "d1", PageID: "p", Record: rec}); err != nil {
		t.Fatal(err)
	}
	if err := s.SendAugmentation(ctx, event.Augmentation{ID: "a1", NativeHandle: "jane", Strategy: "user-cell"}); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: got %d", len(lines))
	}

	var env struct {
		Type string          `json:"type"`
		Data event.Discovery `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "discovery" || env.Data.Record != rec {
		t.Errorf("line 0: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"type":"augmentation"`) {
		t.Errorf("line 1: %s", lines[1])
	}
	// Handles must not be HTML-escaped on the stream.
	if strings.Contains(lines[0], `&`) || !strings.Contains(lines[0], "https://mas.to/@jane") {
		t.Errorf("escaping: %s", lines[0])
	}
}

type failing struct{ closed bool }

func (f *failing) SendDiscovery(context.Context, event.Discovery) error {
	return errors.New("down")
}

func (f *failing) SendAugmentation(context.Context, event.Augmentation) error {
	return errors.New("down")
}

func (f *failing) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestRouter_FanOutSurvivesFailure(t *testing.T) {
	var got []string
	cb := NewCallback(
		func(_ context.Context, d event.Discovery) error {
			got = append(got, "d:"+d.Record.NativeHandle)
			return nil
		},
		func(_ context.Context, a event.Augmentation) error {
			got = append(got, "a:"+a.NativeHandle)
			return nil
		},
	)
	bad := &failing{}
	r := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), bad, cb)
	ctx := context.Background()

	if err := r.SendDiscovery(ctx, event.Discovery{Record: identity.Record{NativeHandle: "jane"}}); err == nil {
		t.Error("want first error")
	}
	if err := r.SendAugmentation(ctx, event.Augmentation{NativeHandle: "jane"}); err == nil {
		t.Error("want first error")
	}
	if strings.Join(got, ",") != "d:jane,a:jane" {
		t.Errorf("callback saw %v", got)
	}

	if err := r.Close(); err == nil || !bad.closed {
		t.Errorf("close: err=%v closed=%v", err, bad.closed)
	}
}

func TestCallback_NilHandlers(t *testing.T) {
	c := NewCallback(nil, nil)
	if err := c.SendDiscovery(context.Background(), event.Discovery{}); err != nil {
		t.Error(err)
	}
	if err := c.SendAugmentation(context.Background(), event.Augmentation{}); err != nil {
		t.Error(err)
	}
}

func TestFile_AppendsAcrossOpens(t *testing.T) {
	path := t.TempDir() + "/events.jsonl"
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := NewFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SendAugmentation(ctx, event.Augmentation{ID: "a", NativeHandle: "jane"}); err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("lines: got %d, want 2", n)
	}
}
