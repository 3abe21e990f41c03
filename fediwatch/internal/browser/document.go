// CLAUDE:SUMMARY Rod-backed dom.Document: XPath candidate lookup, element probes and mutations via JS, requestIdleCallback idle wait.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/fedimark/dom"
)

const candidateXPath = `//span[starts-with(., '@')]`

// Document exposes a tab's live DOM.
type Document struct {
	page *rod.Page
}

// Document returns the tab's live DOM.
func (t *Tab) Document() *Document {
	return &Document{page: t.Page}
}

// Candidates evaluates the candidate XPath in the page.
func (d *Document) Candidates(ctx context.Context) ([]dom.Element, error) {
	// ElementsX does not retry: an empty result is returned as is.
	els, err := d.page.Context(ctx).ElementsX(candidateXPath)
	if err != nil {
		return nil, fmt.Errorf("browser: candidates: %w", err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el}
	}
	return out, nil
}

// WaitIdle resolves when the page's requestIdleCallback fires.
func (d *Document) WaitIdle(ctx context.Context) error {
	_, err := d.page.Context(ctx).Evaluate(
		rod.Eval(`() => new Promise(resolve => requestIdleCallback(() => resolve(true)))`).ByPromise(),
	)
	return err
}

type element struct {
	el *rod.Element
}

func (e *element) eval(js string, args ...any) (*rodResult, error) {
	res, err := e.el.Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return &rodResult{res.Value.Str(), res.Value.Bool()}, nil
}

type rodResult struct {
	str     string
	boolean bool
}

func (e *element) Tag() (string, error) {
	r, err := e.eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", err
	}
	return r.str, nil
}

func (e *element) Text() (string, error) {
	r, err := e.eval(`() => this.textContent || ""`)
	if err != nil {
		return "", err
	}
	return r.str, nil
}

func (e *element) Attr(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *element) Parent() (dom.Element, error) {
	p, err := e.el.Parent()
	if err != nil {
		var nf *rod.ElementNotFoundError
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return &element{el: p}, nil
}

func (e *element) Contains(tag string) (bool, error) {
	r, err := e.eval(`(t) => this.querySelector(t) !== null`, tag)
	if err != nil {
		return false, err
	}
	return r.boolean, nil
}

func (e *element) SetAttr(name, value string) error {
	_, err := e.el.Eval(`(n, v) => this.setAttribute(n, v)`, name, value)
	return err
}

func (e *element) AppendHTML(fragment string) error {
	_, err := e.el.Eval(`(h) => this.insertAdjacentHTML('beforeend', h)`, fragment)
	return err
}

func (e *element) SetText(text string) error {
	_, err := e.el.Eval(`(t) => { this.textContent = t }`, text)
	return err
}
