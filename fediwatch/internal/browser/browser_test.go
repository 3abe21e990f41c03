package browser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

func TestShouldBlock(t *testing.T) {
	blockSet := map[string]bool{"images": true, "fonts": true}
	tests := []struct {
		typ  proto.NetworkResourceType
		want bool
	}{
		{proto.NetworkResourceTypeImage, true},
		{proto.NetworkResourceTypeFont, true},
		{proto.NetworkResourceTypeMedia, false},
		{proto.NetworkResourceTypeStylesheet, false},
		{proto.NetworkResourceTypeXHR, false},
		{proto.NetworkResourceTypeFetch, false},
		{proto.NetworkResourceTypeDocument, false},
		{proto.NetworkResourceTypeScript, false},
	}
	for _, tt := range tests {
		if got := shouldBlock(blockSet, tt.typ); got != tt.want {
			t.Errorf("shouldBlock(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestIsAPIResponse(t *testing.T) {
	tests := []struct {
		typ    proto.NetworkResourceType
		status int
		want   bool
	}{
		{proto.NetworkResourceTypeXHR, 200, true},
		{proto.NetworkResourceTypeFetch, 200, true},
		{proto.NetworkResourceTypeXHR, 304, false},
		{proto.NetworkResourceTypeXHR, 429, false},
		{proto.NetworkResourceTypeDocument, 200, false},
		{proto.NetworkResourceTypeImage, 200, false},
	}
	for _, tt := range tests {
		if got := isAPIResponse(tt.typ, tt.status); got != tt.want {
			t.Errorf("isAPIResponse(%s, %d) = %v, want %v", tt.typ, tt.status, got, tt.want)
		}
	}
}

func TestDecodeBody(t *testing.T) {
	got, err := decodeBody(`{"a":1}`, false)
	if err != nil || string(got) != `{"a":1}` {
		t.Errorf("plain: %q, %v", got, err)
	}
	got, err = decodeBody("eyJhIjoxfQ==", true)
	if err != nil || string(got) != `{"a":1}` {
		t.Errorf("base64: %q, %v", got, err)
	}
	if _, err := decodeBody("%%%", true); err == nil {
		t.Error("want decode error")
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("headful") != ModeHeadful || ParseMode("headless") != ModeHeadless || ParseMode("") != ModeHeadless {
		t.Error("ParseMode")
	}
}

func TestResponseQueue_DeliversInFinishOrder(t *testing.T) {
	var (
		mu       sync.Mutex
		got      []string
		inflight int
		overlap  bool
	)
	done := make(chan struct{})
	q := newResponseQueue(func(url string, body []byte) {
		mu.Lock()
		inflight++
		if inflight > 1 {
			overlap = true
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		inflight--
		got = append(got, url+"="+string(body))
		n := len(got)
		mu.Unlock()
		if n == 2 {
			close(done)
		}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.run(ctx)

	// The first body is slower to fetch than the second; delivery order must
	// still follow push order.
	q.push("old", func() ([]byte, error) {
		time.Sleep(20 * time.Millisecond)
		return []byte("1"), nil
	})
	q.push("broken", func() ([]byte, error) { return nil, errors.New("no body") })
	q.push("new", func() ([]byte, error) { return []byte("2"), nil })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "old=1" || got[1] != "new=2" {
		t.Errorf("deliveries: %v", got)
	}
	if overlap {
		t.Error("fn called concurrently")
	}
}

func TestResponseQueue_StopsOnCancel(t *testing.T) {
	q := newResponseQueue(func(string, []byte) { t.Error("delivered after cancel") }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.push("late", func() ([]byte, error) { return []byte("x"), nil })

	finished := make(chan struct{})
	go func() {
		q.run(ctx)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestTab_CloseAfterContextCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping chrome integration in short mode")
	}
	if _, found := launcher.LookPath(); !found {
		t.Skip("no local chrome found")
	}

	mgr := NewManager(Config{
		ResourceBlocking: []string{"images"},
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	b, err := mgr.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer mgr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	tab, err := OpenTab(ctx, mgr, "p1")
	if err != nil {
		t.Fatalf("open tab: %v", err)
	}
	target := tab.Page.TargetID

	cancel()
	if err := tab.Close(); err != nil {
		t.Fatalf("close after cancel: %v", err)
	}

	pages, err := b.Pages()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range pages {
		if p.TargetID == target {
			t.Error("tab still open after Close")
		}
	}
}
