package fediwatch

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hazyhaar/fedimark/fediwatch/event"
	"github.com/hazyhaar/fedimark/fediwatch/internal/config"
)

func TestDiffPages(t *testing.T) {
	prev := []config.PageConfig{
		{ID: "home", URL: "https://twitter.com/home"},
		{ID: "gone", URL: "https://twitter.com/explore"},
		{ID: "moved", URL: "https://twitter.com/a"},
	}
	next := []config.PageConfig{
		{ID: "home", URL: "https://twitter.com/home"},
		{ID: "moved", URL: "https://twitter.com/b"},
		{ID: "new", URL: "https://twitter.com/notifications"},
	}

	remove, add := diffPages(prev, next)
	if fmt.Sprint(remove) != "[gone moved]" {
		t.Errorf("remove: got %v", remove)
	}
	if len(add) != 2 || add[0].ID != "moved" || add[1].ID != "new" {
		t.Errorf("add: got %+v", add)
	}
}

func TestSameBrowser(t *testing.T) {
	a := config.BrowserConfig{Stealth: "headless", ResourceBlocking: []string{"images"}, NavigationTimeout: time.Second}
	b := a
	b.ResourceBlocking = []string{"images"}
	if !sameBrowser(a, b) {
		t.Error("equal configs reported different")
	}
	b.ResourceBlocking = append(b.ResourceBlocking, "fonts")
	if sameBrowser(a, b) {
		t.Error("blocking change not detected")
	}
}

func TestIsGraphURL(t *testing.T) {
	if !isGraphURL("https://twitter.com/i/api/graphql/q/HomeTimeline?variables=x") {
		t.Error("timeline not matched")
	}
	if isGraphURL("https://abs.twimg.com/responsive-web/client-web/main.js") {
		t.Error("static asset matched")
	}
}

func TestSinksFromConfig(t *testing.T) {
	var buf bytes.Buffer
	path := t.TempDir() + "/events.jsonl"
	sinks, err := SinksFromConfig([]SinkConfig{{Type: "stdout"}, {Type: "file", Path: path}}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(sinks) != 2 {
		t.Fatalf("sinks: got %d", len(sinks))
	}
	if err := sinks[0].SendAugmentation(context.Background(), event.Augmentation{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("stdout sink wrote nothing")
	}
	closeAll(sinks)

	if _, err := SinksFromConfig([]SinkConfig{{Type: "webhook"}}, &buf); err == nil {
		t.Error("unknown type: want error")
	}
}
