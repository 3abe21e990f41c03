// CLAUDE:SUMMARY CDP network listener: tracks successful XHR/fetch responses on a tab and hands their decoded bodies to a callback.
package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/go-rod/rod/lib/proto"
)

// ResponseFunc receives the URL and body of one completed response.
type ResponseFunc func(url string, body []byte)

// ListenResponses enables the Network domain on the tab and calls fn for
// every XHR or fetch response with status 200 whose URL passes want. Bodies
// are fetched after Network.loadingFinished by a single worker, so fn sees
// responses one at a time in the order they finished. Listening stops when
// ctx is done.
func (t *Tab) ListenResponses(ctx context.Context, want func(url string) bool, fn ResponseFunc) error {
	page := t.Page.Context(ctx)
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return fmt.Errorf("browser: network enable: %w", err)
	}

	queue := newResponseQueue(fn, func(url string, err error) {
		if ctx.Err() == nil {
			t.logDebug("browser: get response body", "url", url, "error", err)
		}
	})
	go queue.run(ctx)

	var mu sync.Mutex
	pending := make(map[proto.NetworkRequestID]string)

	wait := page.EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if !isAPIResponse(e.Type, e.Response.Status) || !want(e.Response.URL) {
				return
			}
			mu.Lock()
			pending[e.RequestID] = e.Response.URL
			mu.Unlock()
		},
		func(e *proto.NetworkLoadingFinished) {
			mu.Lock()
			url, ok := pending[e.RequestID]
			delete(pending, e.RequestID)
			mu.Unlock()
			if !ok {
				return
			}
			queue.push(url, func() ([]byte, error) {
				res, err := (proto.NetworkGetResponseBody{RequestID: e.RequestID}).Call(page)
				if err != nil {
					return nil, err
				}
				return decodeBody(res.Body, res.Base64Encoded)
			})
		},
		func(e *proto.NetworkLoadingFailed) {
			mu.Lock()
			delete(pending, e.RequestID)
			mu.Unlock()
		},
	)
	go wait()
	return nil
}

// responseQueue hands fetched bodies to fn one at a time, in push order.
// push never blocks so the CDP event loop stays free.
type responseQueue struct {
	fn     ResponseFunc
	onErr  func(url string, err error)
	mu     sync.Mutex
	items  []queuedResponse
	signal chan struct{}
}

type queuedResponse struct {
	url   string
	fetch func() ([]byte, error)
}

func newResponseQueue(fn ResponseFunc, onErr func(url string, err error)) *responseQueue {
	return &responseQueue{fn: fn, onErr: onErr, signal: make(chan struct{}, 1)}
}

func (q *responseQueue) push(url string, fetch func() ([]byte, error)) {
	q.mu.Lock()
	q.items = append(q.items, queuedResponse{url: url, fetch: fetch})
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// run drains the queue until ctx is done. Items still queued at that point
// are dropped.
func (q *responseQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.signal:
		}
		for {
			q.mu.Lock()
			if len(q.items) == 0 {
				q.mu.Unlock()
				break
			}
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
			body, err := item.fetch()
			if err != nil {
				if q.onErr != nil {
					q.onErr(item.url, err)
				}
				continue
			}
			q.fn(item.url, body)
		}
	}
}

func isAPIResponse(typ proto.NetworkResourceType, status int) bool {
	if status != 200 {
		return false
	}
	return typ == proto.NetworkResourceTypeXHR || typ == proto.NetworkResourceTypeFetch
}

func decodeBody(body string, base64Encoded bool) ([]byte, error) {
	if !base64Encoded {
		return []byte(body), nil
	}
	return base64.StdEncoding.DecodeString(body)
}

func (t *Tab) logDebug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
