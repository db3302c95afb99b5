package appwrite

import (
	"encoding/json"
	"net/url"
)

// Query is a single list/get predicate in the platform's JSON query syntax.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// String renders the query the way the REST API expects it in queries[].
func (q Query) String() string {
	b, err := json.Marshal(q)
	if err != nil {
		return ""
	}
	return string(b)
}

// Equal matches documents whose attribute equals any of values.
func Equal(attribute string, values ...any) Query {
	return Query{Method: "equal", Attribute: attribute, Values: values}
}

// OrderDesc sorts by attribute, newest/largest first.
func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

// OrderAsc sorts by attribute ascending.
func OrderAsc(attribute string) Query {
	return Query{Method: "orderAsc", Attribute: attribute}
}

// Limit caps the number of returned documents.
func Limit(n int) Query {
	return Query{Method: "limit", Values: []any{n}}
}

// CursorAfter pages relative to the document with the given id.
func CursorAfter(documentID string) Query {
	return Query{Method: "cursorAfter", Values: []any{documentID}}
}

// Search runs a full-text search against an indexed attribute.
func Search(attribute, term string) Query {
	return Query{Method: "search", Attribute: attribute, Values: []any{term}}
}

// Select restricts the returned attributes.
func Select(attributes ...string) Query {
	values := make([]any, len(attributes))
	for i, a := range attributes {
		values[i] = a
	}
	return Query{Method: "select", Values: values}
}

func encodeQueries(queries []Query) url.Values {
	if len(queries) == 0 {
		return nil
	}
	v := url.Values{}
	for _, q := range queries {
		v.Add("queries[]", q.String())
	}
	return v
}
