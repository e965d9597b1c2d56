package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit/common"
	"github.com/burugo/modelkit/internal/query"
)

var doc = map[string]any{
	"name":    "Ada Lovelace",
	"age":     36,
	"score":   9.5,
	"born":    time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC),
	"tags":    []any{"math"},
	"address": map[string]any{"city": "London"},
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]any
		want  bool
	}{
		{"empty query", map[string]any{}, true},
		{"equality", map[string]any{"name": "Ada Lovelace"}, true},
		{"equality across numeric types", map[string]any{"age": 36.0}, true},
		{"nested path", map[string]any{"address.city": "London"}, true},
		{"nested path mismatch", map[string]any{"address.city": "Paris"}, false},
		{"missing field", map[string]any{"email": "x"}, false},
		{"all keys must match", map[string]any{"name": "Ada Lovelace", "age": 40}, false},
		{"$eq", map[string]any{"age": map[string]any{"$eq": 36}}, true},
		{"$ne on missing field", map[string]any{"email": map[string]any{"$ne": "x"}}, true},
		{"$gt and $lt", map[string]any{"age": map[string]any{"$gt": 30, "$lt": 40}}, true},
		{"$gte", map[string]any{"score": map[string]any{"$gte": 9.5}}, true},
		{"$lte fails", map[string]any{"score": map[string]any{"$lte": 9}}, false},
		{"string ordering", map[string]any{"name": map[string]any{"$gt": "Ada"}}, true},
		{"time ordering", map[string]any{"born": map[string]any{"$lt": time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)}}, true},
		{"$in", map[string]any{"age": map[string]any{"$in": []int{35, 36}}}, true},
		{"$in miss", map[string]any{"age": map[string]any{"$in": []any{1, 2}}}, false},
		{"$like prefix", map[string]any{"name": map[string]any{"$like": "Ada%"}}, true},
		{"$like suffix", map[string]any{"name": map[string]any{"$like": "%lace"}}, true},
		{"$like contains", map[string]any{"name": map[string]any{"$like": "%Love%"}}, true},
		{"$like exact miss", map[string]any{"name": map[string]any{"$like": "Ada"}}, false},
		{"map without operators is a literal", map[string]any{"address": map[string]any{"city": "London"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := query.Match(doc, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query map[string]any
	}{
		{"number against string", map[string]any{"age": map[string]any{"$gt": "x"}}},
		{"$in without slice", map[string]any{"age": map[string]any{"$in": 36}}},
		{"$like without string", map[string]any{"name": map[string]any{"$like": 1}}},
		{"$like underscore", map[string]any{"name": map[string]any{"$like": "A_a%"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := query.Match(doc, tt.query)
			assert.ErrorIs(t, err, common.ErrInvalidQuery)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, query.Validate(map[string]any{"a": map[string]any{"$in": []any{1}}, "b": 2}))
	assert.ErrorIs(t, query.Validate(map[string]any{"a": map[string]any{"$regex": "x"}}), common.ErrInvalidQuery)
}

func TestOperators(t *testing.T) {
	ops, ok := query.Operators(map[string]any{"$gt": 1})
	assert.True(t, ok)
	assert.Len(t, ops, 1)

	_, ok = query.Operators(map[string]any{"$gt": 1, "city": "x"})
	assert.False(t, ok)
	_, ok = query.Operators(map[string]any{})
	assert.False(t, ok)
	_, ok = query.Operators("x")
	assert.False(t, ok)
}
