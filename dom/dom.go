// Package dom is the backend-neutral view of a live document used by the
// augmentation scanner. Two backends exist: a Chrome tab driven over CDP and
// an in-memory golang.org/x/net/html tree (package htmldoc).
//
// Every probe can fail on the Chrome backend (detached node, closed tab), so
// element methods return errors; the in-memory backend never does.
package dom

import "context"

// Element is one element node.
type Element interface {
	// Tag is the lowercase tag name.
	Tag() (string, error)
	// Text is the element's textContent.
	Text() (string, error)
	Attr(name string) (value string, ok bool, err error)
	// Parent returns the parent element, or nil at the document root.
	Parent() (Element, error)
	// Contains reports whether any descendant has the given tag.
	Contains(tag string) (bool, error)

	SetAttr(name, value string) error
	// AppendHTML parses fragment in the context of the element and appends
	// the resulting nodes as its last children.
	AppendHTML(fragment string) error
	// SetText replaces all children with a single text node.
	SetText(text string) error
}

// Document yields candidate elements for a scan.
type Document interface {
	// Candidates returns, in document order, every span whose text starts
	// with "@" (XPath //span[starts-with(., '@')]).
	Candidates(ctx context.Context) ([]Element, error)
}

// Closest walks from el (inclusive) up to the root and returns the first
// element matching pred, or nil.
func Closest(el Element, pred func(Element) (bool, error)) (Element, error) {
	return closest(el, -1, pred)
}

// ClosestWithin is Closest bounded to maxDepth parent hops.
func ClosestWithin(el Element, maxDepth int, pred func(Element) (bool, error)) (Element, error) {
	return closest(el, maxDepth, pred)
}

func closest(el Element, maxDepth int, pred func(Element) (bool, error)) (Element, error) {
	for depth := 0; el != nil && (maxDepth < 0 || depth <= maxDepth); depth++ {
		ok, err := pred(el)
		if err != nil {
			return nil, err
		}
		if ok {
			return el, nil
		}
		if el, err = el.Parent(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// HasAttr returns a predicate matching elements whose attribute equals value.
func HasAttr(name, value string) func(Element) (bool, error) {
	return func(el Element) (bool, error) {
		v, ok, err := el.Attr(name)
		return ok && v == value, err
	}
}
