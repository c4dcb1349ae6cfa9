package dofusdb

import (
	"fmt"
	"net/url"
	"strconv"
)

// Query builds Feathers-style query strings. Operators use repeated
// bracket-notation keys (id[$in][]=1&id[$in][]=2); the upstream query parser
// treats indexed keys (id[$in][0]=1) as objects and rejects them.
type Query struct {
	values url.Values
}

func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

func (q *Query) SetLimit(n int) *Query {
	q.values.Set("$limit", strconv.Itoa(n))
	return q
}

func (q *Query) SetSkip(n int) *Query {
	q.values.Set("$skip", strconv.Itoa(n))
	return q
}

func (q *Query) Set(key, val string) *Query {
	q.values.Set(key, val)
	return q
}

// AddIn appends values under field[$in][].
func (q *Query) AddIn(field string, vals ...string) *Query {
	key := fmt.Sprintf("%s[$in][]", field)
	for _, v := range vals {
		q.values.Add(key, v)
	}
	return q
}

// SetOp sets a comparison operator key, e.g. level[$gte]=10.
func (q *Query) SetOp(field, op, val string) *Query {
	q.values.Set(fmt.Sprintf("%s[%s]", field, op), val)
	return q
}

func (q *Query) SetSearch(field, val string) *Query {
	return q.SetOp(field, "$search", val)
}

func (q *Query) Values() url.Values {
	out := url.Values{}
	for k, vs := range q.values {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}

func (q *Query) Encode() string {
	return q.values.Encode()
}
