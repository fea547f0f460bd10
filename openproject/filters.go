package openproject

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Filter operators understood by the OpenProject query API.
const (
	OpEquals     = "="
	OpContains   = "~"
	OpOnOrAfter  = ">=d"
	OpOnOrBefore = "<=d"
)

// Filter is a single condition of an OpenProject query, serialized as
// {"field": {"operator": op, "values": [...]}}.
type Filter struct {
	Field    string
	Operator string
	Values   []string
}

// NewFilter builds a filter on field with the given operator and values.
func NewFilter(field, operator string, values ...string) Filter {
	return Filter{Field: field, Operator: operator, Values: values}
}

// Filters is a conjunction of conditions.
type Filters []Filter

type filterCondition struct {
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// Encode serializes the filters into the JSON array form the API
// expects in the "filters" query parameter.
func (fs Filters) Encode() (string, error) {
	conditions := make([]map[string]filterCondition, len(fs))
	for i, f := range fs {
		conditions[i] = map[string]filterCondition{
			f.Field: {Operator: f.Operator, Values: f.Values},
		}
	}
	bs, err := json.Marshal(conditions)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode filters")
	}
	return string(bs), nil
}
