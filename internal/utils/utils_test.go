package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/burugo/modelkit/internal/interfaces"
	"github.com/burugo/modelkit/internal/utils"
)

func TestCollectionName(t *testing.T) {
	tests := map[string]string{
		"User":     "users",
		"BlogPost": "blog_posts",
		"person":   "people",
		"Category": "categories",
		"api-key":  "api_keys",
		"model12":  "model12s",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, utils.CollectionName(in), in)
	}
}

func TestGetPath(t *testing.T) {
	doc := map[string]any{
		"a":   map[string]any{"b": map[string]any{"c": 1}},
		"x.y":      "literal",
	}

	v, ok := utils.GetPath(doc, "a.b.c")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = utils.GetPath(doc, "x.y")
	assert.True(t, ok)
	assert.Equal(t, "literal", v)

	_, ok = utils.GetPath(doc, "a.missing")
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	now := time.Now()
	assert.True(t, utils.Equal(1, 1.0))
	assert.True(t, utils.Equal(int64(3), uint8(3)))
	assert.False(t, utils.Equal(1, "1"))
	assert.True(t, utils.Equal(now, now.UTC()))
	assert.True(t, utils.Equal([]any{"a"}, []any{"a"}))
}

func TestDeepCopy(t *testing.T) {
	orig := map[string]any{"nested": map[string]any{"list": []any{1, 2}}}
	cp := utils.CopyMap(orig)

	cp["nested"].(map[string]any)["list"].([]any)[0] = 99
	assert.Equal(t, 1, orig["nested"].(map[string]any)["list"].([]any)[0])

	assert.NotNil(t, utils.CopyMap(nil))
}

func TestIsEmpty(t *testing.T) {
	var p *int
	assert.True(t, utils.IsEmpty(nil))
	assert.True(t, utils.IsEmpty(""))
	assert.True(t, utils.IsEmpty(time.Time{}))
	assert.True(t, utils.IsEmpty(p))
	assert.False(t, utils.IsEmpty(0))
	assert.False(t, utils.IsEmpty("id"))
}

func TestChangedFields(t *testing.T) {
	changed := utils.ChangedFields(
		map[string]any{"a": 1, "b": "x"},
		map[string]any{"a": 1.0, "b": "y", "c": true},
	)
	assert.Equal(t, map[string]any{"b": "y", "c": true}, changed)
}

func TestRemovedFields(t *testing.T) {
	removed := utils.RemovedFields(
		map[string]any{"a": 1, "b": 2, "c": 3},
		map[string]any{"b": 2},
	)
	assert.Equal(t, []string{"a", "c"}, removed)
	assert.Empty(t, utils.RemovedFields(map[string]any{"a": 1}, map[string]any{"a": 2}))
}

func TestApplyChanges(t *testing.T) {
	nested := map[string]any{"city": "Paris"}
	doc := map[string]any{"a": 1, "b": 2}
	utils.ApplyChanges(doc, map[string]any{"a": interfaces.Removed, "c": nested})

	assert.Equal(t, map[string]any{"b": 2, "c": map[string]any{"city": "Paris"}}, doc)
	nested["city"] = "Lyon"
	assert.Equal(t, "Paris", doc["c"].(map[string]any)["city"], "changes are copied")
}

func TestOrderedMap(t *testing.T) {
	om := utils.NewOrderedMap()
	om.Set("z", 1)
	om.Set("a", 2)
	om.Set("z", 3)

	assert.Equal(t, []string{"z", "a"}, om.Keys())
	b, err := om.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"z":3,"a":2}`, string(b))
	assert.Equal(t, `{"z":3,"a":2}`, string(b))
}
