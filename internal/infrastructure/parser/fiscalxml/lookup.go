package fiscalxml

import "github.com/aviladevs/fiscal-importer/internal/core/domain"

const (
	InvoiceNamespace = "http://www.portalfiscal.inf.br/nfe"
	FreightNamespace = "http://www.portalfiscal.inf.br/cte"
)

// lookupOrder is the namespace sequence tried for every lookup: the kind's
// own namespace, the other known one, then no namespace.
func lookupOrder(kind domain.DocumentKind) []string {
	if kind == domain.KindFreight {
		return []string{FreightNamespace, InvoiceNamespace, ""}
	}
	return []string{InvoiceNamespace, FreightNamespace, ""}
}

// scope is a possibly missing element together with the namespace order used
// to search beneath it. Lookups on a missing scope return missing scopes.
type scope struct {
	n      *node
	spaces []string
}

func (s scope) ok() bool { return s.n != nil }

// child finds the first descendant named local, trying each namespace in turn.
func (s scope) child(local string) scope {
	if s.n == nil {
		return s
	}
	for _, space := range s.spaces {
		if found := s.n.descendant(local, space); found != nil {
			return scope{n: found, spaces: s.spaces}
		}
	}
	return scope{spaces: s.spaces}
}

// locate is child that also accepts the scope element itself.
func (s scope) locate(local string) scope {
	if s.n == nil {
		return s
	}
	for _, space := range s.spaces {
		if s.n.is(local, space) {
			return s
		}
		if found := s.n.descendant(local, space); found != nil {
			return scope{n: found, spaces: s.spaces}
		}
	}
	return scope{spaces: s.spaces}
}

// all returns every descendant named local under the first namespace that
// yields at least one match.
func (s scope) all(local string) []scope {
	if s.n == nil {
		return nil
	}
	for _, space := range s.spaces {
		found := s.n.descendants(local, space, nil)
		if len(found) == 0 {
			continue
		}
		out := make([]scope, len(found))
		for i, f := range found {
			out[i] = scope{n: f, spaces: s.spaces}
		}
		return out
	}
	return nil
}

func (s scope) children() []scope {
	if s.n == nil {
		return nil
	}
	out := make([]scope, len(s.n.children))
	for i, c := range s.n.children {
		out[i] = scope{n: c, spaces: s.spaces}
	}
	return out
}

// text returns the cleaned text of the first descendant named local whose
// text is non-empty, checking one candidate per namespace.
func (s scope) text(local string) *string {
	if s.n == nil {
		return nil
	}
	for _, space := range s.spaces {
		found := s.n.descendant(local, space)
		if found == nil {
			continue
		}
		if v := CleanText(found.text.String()); v != nil {
			return v
		}
	}
	return nil
}

// ownOrText is text that also reads the scope element itself when it carries
// the requested name.
func (s scope) ownOrText(local string) *string {
	if s.n == nil {
		return nil
	}
	for _, space := range s.spaces {
		if s.n.is(local, space) {
			return CleanText(s.n.text.String())
		}
	}
	return s.text(local)
}

func (s scope) attr(local string) string {
	if s.n == nil {
		return ""
	}
	return s.n.attr(local)
}

// candidate yields a value, or nil when it declares none.
type candidate func() *string

// FirstPresent evaluates candidates in order and returns the first non-empty
// value. Later candidates are not consulted once one matches.
func FirstPresent(candidates ...candidate) *string {
	for _, c := range candidates {
		if v := c(); v != nil {
			return v
		}
	}
	return nil
}

// sectionValue applies FirstPresent over the sub-blocks of a tax section,
// in document order, reading valueTag from each.
func sectionValue(section scope, valueTag string) *string {
	subs := section.children()
	candidates := make([]candidate, 0, len(subs))
	for _, sub := range subs {
		sub := sub
		candidates = append(candidates, func() *string { return sub.ownOrText(valueTag) })
	}
	return FirstPresent(candidates...)
}
