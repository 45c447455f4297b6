package model

import (
	"strconv"
	"strings"
)

// Filter is a single server-side equality predicate on a payload field.
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Query identifies a collection plus an ordered list of equality filters and
// a result limit. Only equality is expressed here: ordering and truncation
// are always applied client-side so the store never needs a composite index
// per query shape.
type Query struct {
	Collection string   `json:"collection"`
	Filters    []Filter `json:"filters,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// CanonicalKey returns a deterministic, order-sensitive encoding of the
// query. Two queries are equivalent exactly when their canonical keys are
// byte-equal; the feed registry uses this to deduplicate live subscriptions.
func (q Query) CanonicalKey() string {
	var b strings.Builder
	b.WriteString(q.Collection)
	for _, f := range q.Filters {
		b.WriteByte('|')
		b.WriteString(f.Field)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	if q.Limit > 0 {
		b.WriteString("|limit=")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String()
}
