// Package query translates list-endpoint query parameters into MongoDB
// filters. Filterable fields are declared per entity; unrecognized fields
// and operators are rejected rather than passed through to the store.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/opticstore/pkg/apperrors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

var reserved = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
}

var operators = map[string]string{
	"eq":  "$eq",
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
	"in":  "$in",
}

// Query is a parsed, validated list request.
type Query struct {
	Filter bson.M
	Sort   bson.D
	Fields []string
	Page   int
	Limit  int
}

// Pagination describes the returned page relative to the full result set.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// Parse builds a Query from URL parameters against an allow-list of
// filterable fields. Parameters take the form field=v (equality) or
// field[op]=v with op one of eq, gte, gt, lte, lt, in.
func Parse(values url.Values, allowed map[string]bool) (*Query, error) {
	q := &Query{
		Filter: bson.M{},
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}

	for key, vals := range values {
		if reserved[key] || len(vals) == 0 {
			continue
		}
		field, op, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		if !allowed[field] {
			return nil, apperrors.Validation("cannot filter on field %q", field)
		}
		mongoOp := operators[op]
		if op == "in" {
			parts := strings.Split(vals[0], ",")
			list := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				list = append(list, coerce(strings.TrimSpace(p)))
			}
			q.Filter[field] = bson.M{mongoOp: list}
			continue
		}
		if op == "eq" {
			q.Filter[field] = coerce(vals[0])
			continue
		}
		// Range operators on the same field merge into one clause.
		clause, ok := q.Filter[field].(bson.M)
		if !ok {
			clause = bson.M{}
		}
		clause[mongoOp] = coerce(vals[0])
		q.Filter[field] = clause
	}

	q.Sort = parseSort(values.Get("sort"))

	if fields := values.Get("fields"); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				q.Fields = append(q.Fields, f)
			}
		}
	}

	if page := values.Get("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return nil, apperrors.Validation("invalid page %q", page)
		}
		q.Page = n
	}
	if limit := values.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return nil, apperrors.Validation("invalid limit %q", limit)
		}
		q.Limit = n
	}

	return q, nil
}

// FindOptions renders the query's sort, projection and page window as
// driver options.
func (q *Query) FindOptions() *options.FindOptions {
	opts := options.Find().
		SetSort(q.Sort).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))
	if len(q.Fields) > 0 {
		projection := bson.M{}
		for _, f := range q.Fields {
			projection[f] = 1
		}
		opts.SetProjection(projection)
	}
	return opts
}

// Paginate computes page metadata for a total match count.
func (q *Query) Paginate(total int64) Pagination {
	return Pagination{
		Page:    q.Page,
		Limit:   q.Limit,
		Total:   total,
		HasNext: int64(q.Page*q.Limit) < total,
		HasPrev: q.Page > 1,
	}
}

func splitKey(key string) (field, op string, err error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "eq", nil
	}
	if !strings.HasSuffix(key, "]") {
		return "", "", apperrors.Validation("malformed filter parameter %q", key)
	}
	field = key[:open]
	op = key[open+1 : len(key)-1]
	if _, ok := operators[op]; !ok {
		return "", "", apperrors.Validation("unsupported filter operator %q", op)
	}
	return field, op, nil
}

// parseSort handles a comma-separated field list with a leading '-' for
// descending order. Default sort is newest first.
func parseSort(spec string) bson.D {
	if spec == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	var sort bson.D
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		sort = append(sort, bson.E{Key: part, Value: dir})
	}
	if len(sort) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return sort
}

// coerce converts a raw parameter to the most specific type the store can
// compare: number, bool, else string.
func coerce(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
