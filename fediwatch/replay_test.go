package fediwatch

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/fedimark/dom/htmldoc"
)

func TestReplay(t *testing.T) {
	doc, err := htmldoc.ParseString(timelinePage)
	if err != nil {
		t.Fatal(err)
	}
	responses := []Response{
		{URL: "https://twitter.com/i/api/graphql/q/Viewer", Body: `{}`},
		{URL: notificationsURL, Body: string(legacyPayload(t,
			user{ScreenName: "jane", Description: "reach me @jane@mas.to"},
			user{ScreenName: "bob", Name: "Bob"},
		))},
	}

	res, sess, err := Replay(context.Background(), ReplayConfig{Responses: responses, Document: doc, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if res.Responses != 2 || res.Changed != 2 || len(res.Directory) != 2 {
		t.Errorf("result: %+v", res)
	}
	if len(res.Report.Augmented) != 1 || res.Report.Augmented[0].FederatedHandle != "@jane@mas.to" {
		t.Errorf("report: %+v", res.Report)
	}
	if sess.ID() != "replay" {
		t.Errorf("page id: %q", sess.ID())
	}
	if !strings.Contains(doc.String(), `title="@jane@mas.to"`) {
		t.Errorf("document: %s", doc.String())
	}
}

func TestReplay_CancelledContext(t *testing.T) {
	doc, _ := htmldoc.ParseString(timelinePage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Replay(ctx, ReplayConfig{
		Responses: []Response{{URL: notificationsURL, Body: "{}"}},
		Document:  doc,
		Logger:    quiet,
	})
	if err == nil {
		t.Error("want error")
	}
}
