package docstore

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

type Op string

const (
	OpEqual    Op = "=="
	OpNotEqual Op = "!="
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field string
	Dir   Direction
}

// Query selects documents from one collection. Builder methods return a
// copy, so a base query can be shared.
type Query struct {
	collection string
	filters    []Filter
	orders     []Order
	limit      int
	err        error
}

func Collection(name string) Query {
	q := Query{collection: name}
	if name == "" {
		q.err = fmt.Errorf("%w: empty collection name", ErrInvalidQuery)
	}
	return q
}

func (q Query) Where(field string, op Op, value any) Query {
	out := q.clone()
	if out.err != nil {
		return out
	}
	if op != OpEqual && op != OpNotEqual {
		out.err = fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, op)
		return out
	}
	if field == "" {
		out.err = fmt.Errorf("%w: empty field name", ErrInvalidQuery)
		return out
	}
	norm, err := normalize(value)
	if err != nil {
		out.err = fmt.Errorf("%w: filter value for %s: %v", ErrInvalidQuery, field, err)
		return out
	}
	out.filters = append(out.filters, Filter{Field: field, Op: op, Value: norm})
	return out
}

func (q Query) OrderBy(field string, dir Direction) Query {
	out := q.clone()
	out.orders = append(out.orders, Order{Field: field, Dir: dir})
	return out
}

func (q Query) Limit(n int) Query {
	out := q.clone()
	out.limit = n
	return out
}

func (q Query) CollectionName() string { return q.collection }
func (q Query) Filters() []Filter      { return append([]Filter(nil), q.filters...) }
func (q Query) Err() error             { return q.err }

func (q Query) clone() Query {
	out := q
	out.filters = append([]Filter(nil), q.filters...)
	out.orders = append([]Order(nil), q.orders...)
	return out
}

// Matches evaluates every filter against fields.
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.filters {
		got, ok := fields[f.Field]
		eq := ok && valuesEqual(got, f.Value)
		switch f.Op {
		case OpEqual:
			if !eq {
				return false
			}
		case OpNotEqual:
			// A missing field never satisfies an inequality.
			if !ok || eq {
				return false
			}
		}
	}
	return true
}

func (q Query) apply(docs []Document) []Document {
	out := docs[:0]
	for _, d := range docs {
		if q.Matches(d.Fields) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.orders {
			c := compareValues(out[i].Fields[o.Field], out[j].Fields[o.Field])
			if c == 0 {
				continue
			}
			if o.Dir == Desc {
				return c > 0
			}
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

// normalize gives a value the shape it would have after a JSON round trip.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// typeRank orders mixed types: null < bool < number < string < everything else.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv || (math.IsNaN(av) && !math.IsNaN(bv)):
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		ta, errA := time.Parse(time.RFC3339Nano, av)
		tb, errB := time.Parse(time.RFC3339Nano, bv)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}
