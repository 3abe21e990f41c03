package augment

import (
	"github.com/hazyhaar/fedimark/dom"
	"github.com/hazyhaar/fedimark/identity"
)

// Strategy names, in the order they are tried.
const (
	StrategyTimelineRow        = "timeline-row"
	StrategyConversationHeader = "conversation-header"
	StrategyUserCell           = "user-cell"
	StrategyProfileHandle      = "profile-handle"
)

// timelineRowDepth bounds the ancestor search of the timeline-row strategy.
const timelineRowDepth = 6

// Plan is a mutation decided by a strategy. Fragment, when set, is appended
// to Target; Text, when set, replaces Target's content.
type Plan struct {
	Strategy string
	Target   dom.Element
	Fragment string
	Text     string
}

// Apply performs the mutation and marks the candidate as augmented.
func (p *Plan) Apply(candidate dom.Element) error {
	if p.Fragment != "" {
		if err := p.Target.AppendHTML(p.Fragment); err != nil {
			return err
		}
	}
	if p.Text != "" {
		if err := p.Target.SetText(p.Text); err != nil {
			return err
		}
	}
	return candidate.SetAttr(MarkerAttr, "true")
}

// Strategy decides whether and how a candidate element can be augmented.
// Fit must not mutate the document; a nil plan means no fit.
type Strategy interface {
	Name() string
	Fit(el dom.Element, rec identity.Record) (*Plan, error)
}

type strategyFunc struct {
	name string
	fit  func(el dom.Element, rec identity.Record) (*Plan, error)
}

func (s strategyFunc) Name() string { return s.name }

func (s strategyFunc) Fit(el dom.Element, rec identity.Record) (*Plan, error) {
	return s.fit(el, rec)
}

// DefaultStrategies returns the built-in strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		strategyFunc{StrategyTimelineRow, fitTimelineRow},
		strategyFunc{StrategyConversationHeader, fitProfileLink(StrategyConversationHeader, "User-Names")},
		strategyFunc{StrategyUserCell, fitProfileLink(StrategyUserCell, "UserCell")},
		strategyFunc{StrategyProfileHandle, fitProfileHandle},
	}
}

// fitTimelineRow looks for the row holding "@handle·<time>" and appends the
// indicator after the timestamp.
func fitTimelineRow(el dom.Element, rec identity.Record) (*Plan, error) {
	ind := indicator(rec)
	if ind == nil {
		return nil, nil
	}
	prefix := "@" + rec.NativeHandle + "·"

	row, err := dom.ClosestWithin(el, timelineRowDepth, func(e dom.Element) (bool, error) {
		txt, err := e.Text()
		if err != nil || len(txt) < len(prefix) || txt[:len(prefix)] != prefix {
			return false, err
		}
		return e.Contains("time")
	})
	if err != nil || row == nil {
		return nil, err
	}
	return &Plan{Strategy: StrategyTimelineRow, Target: row, Fragment: render(separator(), ind)}, nil
}

// fitProfileLink finds the nearest link to the profile that sits inside a
// container with the given data-testid, and appends to the link's
// grandparent.
func fitProfileLink(name, testID string) func(dom.Element, identity.Record) (*Plan, error) {
	return func(el dom.Element, rec identity.Record) (*Plan, error) {
		ind := indicator(rec)
		if ind == nil {
			return nil, nil
		}
		href := "/" + rec.NativeHandle
		inContainer := dom.HasAttr("data-testid", testID)

		link, err := dom.Closest(el, func(e dom.Element) (bool, error) {
			tag, err := e.Tag()
			if err != nil || tag != "a" {
				return false, err
			}
			if v, ok, err := e.Attr("href"); err != nil || !ok || v != href {
				return false, err
			}
			parent, err := e.Parent()
			if err != nil || parent == nil {
				return false, err
			}
			box, err := dom.Closest(parent, inContainer)
			return box != nil, err
		})
		if err != nil || link == nil {
			return nil, err
		}

		target, err := grandparent(link)
		if err != nil || target == nil {
			return nil, err
		}
		return &Plan{Strategy: name, Target: target, Fragment: render(separator(), ind)}, nil
	}
}

// fitProfileHandle rewrites the handle line of a profile header in place.
// Only resolved records qualify: the rewritten text names the handle.
func fitProfileHandle(el dom.Element, rec identity.Record) (*Plan, error) {
	if !rec.Resolved() {
		return nil, nil
	}
	header, err := dom.Closest(el, dom.HasAttr("data-testid", "UserName"))
	if err != nil || header == nil {
		return nil, err
	}
	return &Plan{Strategy: StrategyProfileHandle, Target: el, Text: upgradedText(rec)}, nil
}

func grandparent(el dom.Element) (dom.Element, error) {
	p, err := el.Parent()
	if err != nil || p == nil {
		return nil, err
	}
	return p.Parent()
}
