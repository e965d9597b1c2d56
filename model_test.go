package modelkit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit"
	"github.com/burugo/modelkit/drivers/memory"
	"github.com/burugo/modelkit/schema"
)

func TestModel_Extend_RequiresSchema(t *testing.T) {
	_, err := modelkit.Base.Extend(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, modelkit.ErrUndefinedSchema)

	_, err = modelkit.Base.Extend(modelkit.Proto{"x": 1}, &modelkit.Statics{Name: "Widget"})
	var undefined *modelkit.UndefinedSchemaError
	require.True(t, errors.As(err, &undefined))
	assert.Equal(t, "Widget", undefined.Model)

	assert.Panics(t, func() { modelkit.Base.MustExtend(nil, nil) })
}

func TestModel_Extend_EmptySchemaHasImplicitFields(t *testing.T) {
	m, err := modelkit.Base.Extend(nil, &modelkit.Statics{Schema: schema.Schema{}})
	require.NoError(t, err)

	s := m.Schema()
	assert.Equal(t, []string{modelkit.FieldID, modelkit.FieldCreated, modelkit.FieldModified}, s.Keys())
	for _, name := range s.Keys() {
		assert.Equal(t, schema.TypeAny, s[name].Type, name)
	}
}

func TestModel_Extend_CallerFieldsLayerOnTop(t *testing.T) {
	m := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{
		"_id":   {Type: schema.TypeString},
		"title": {Type: schema.TypeString},
	}})

	s := m.Schema()
	assert.Equal(t, schema.TypeString, s["_id"].Type)
	assert.True(t, s.Has("title"))
	assert.True(t, s.Has("created"))

	s["title"].Type = schema.TypeNumber
	assert.Equal(t, schema.TypeString, m.Schema()["title"].Type, "Schema returns a copy")
}

func TestModel_Extend_SubtypeInheritsSchema(t *testing.T) {
	users, _ := newUsers(t)
	admins, err := users.Extend(nil, &modelkit.Statics{Name: "Admin"})
	require.NoError(t, err)
	assert.True(t, admins.Schema().Has("email"))

	superusers := admins.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{"level": {Type: schema.TypeInteger}}})
	assert.True(t, superusers.Schema().Has("level"))
	assert.False(t, superusers.Schema().Has("email"), "a schema given to Extend replaces the inherited one")
}

func TestModel_Extend_Hierarchy(t *testing.T) {
	users, _ := newUsers(t)
	admins := users.MustExtend(nil, &modelkit.Statics{Name: "Admin"})

	assert.Same(t, users, admins.Superclass())
	assert.Same(t, modelkit.Base, users.Superclass())
	assert.Nil(t, modelkit.Base.Superclass())

	assert.True(t, admins.IsA(users))
	assert.True(t, admins.IsA(modelkit.Base))
	assert.False(t, users.IsA(admins))

	inst := admins.New(nil)
	assert.Same(t, admins, inst.Model())
	assert.True(t, inst.InstanceOf(admins))
	assert.True(t, inst.InstanceOf(users))
	assert.True(t, inst.InstanceOf(modelkit.Base))
}

func TestModel_NameAndCollection(t *testing.T) {
	m := modelkit.Base.MustExtend(nil, &modelkit.Statics{Name: "BlogPost", Schema: schema.Schema{}})
	assert.Equal(t, "BlogPost", m.Name())
	assert.Equal(t, "blog_posts", m.Collection())
	assert.Equal(t, "BlogPost", m.String())

	anonymous := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{}})
	assert.Regexp(t, `^model\d+$`, anonymous.Name())
}

func TestModel_DefaultStatics(t *testing.T) {
	users, _ := newUsers(t)

	field, enabled := users.UniqueID()
	assert.True(t, enabled)
	assert.Equal(t, "_id", field)
	assert.True(t, users.Timestamps())
	assert.Same(t, schema.DefaultValidator, users.Interpreter())
}

func TestModel_StaticsResolveThroughChain(t *testing.T) {
	root := modelkit.Base.MustExtend(nil, &modelkit.Statics{
		Schema: schema.Schema{},
		Values: map[string]any{"table": "people", "limit": 10},
	})
	early := root.MustExtend(nil, &modelkit.Statics{Values: map[string]any{"limit": 5}})
	captured := root.MustExtend(nil, &modelkit.Statics{Timestamps: modelkit.Bool(true)})

	v, ok := early.Static("table")
	require.True(t, ok)
	assert.Equal(t, "people", v)
	v, _ = early.Static("limit")
	assert.Equal(t, 5, v)

	_, ok = early.Static("missing")
	assert.False(t, ok)

	// a late override reaches descendants without their own value, existing or new
	root.SetStatic(modelkit.StaticTimestamps, false)
	late := root.MustExtend(nil, nil)
	assert.False(t, early.Timestamps())
	assert.False(t, late.Timestamps())
	assert.True(t, captured.Timestamps())
	assert.True(t, modelkit.Base.Timestamps(), "ancestors are not affected")
}

func TestModel_DisableUniqueID(t *testing.T) {
	noID := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{}, NoUniqueID: true})
	_, enabled := noID.UniqueID()
	assert.False(t, enabled)

	users, _ := newUsers(t)
	child := users.MustExtend(nil, nil)
	users.DisableUniqueID()
	_, enabled = child.UniqueID()
	assert.False(t, enabled)

	custom := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{"key": {}}, UniqueID: "key"})
	field, enabled := custom.UniqueID()
	assert.True(t, enabled)
	assert.Equal(t, "key", field)
}

func TestModel_BackendPerType(t *testing.T) {
	users, _ := newUsers(t)
	admins := users.MustExtend(nil, nil)
	assert.NotSame(t, users.Backend(), admins.Backend())
	assert.IsType(t, &memory.Backend{}, users.Backend())

	shared := memory.New()
	a := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{}, Backend: shared})
	b := a.MustExtend(nil, &modelkit.Statics{Backend: shared})
	assert.Same(t, shared, a.Backend())
	assert.Same(t, shared, b.Backend())

	replacement := memory.New()
	a.SetBackend(replacement)
	assert.Same(t, replacement, a.Backend())
	assert.Same(t, shared, b.Backend())
}

func TestModel_ConfiguredFactory(t *testing.T) {
	var collections []string
	configure(t, modelkit.Options{Backend: func(collection string) (modelkit.Backend, error) {
		collections = append(collections, collection)
		return memory.New(), nil
	}})

	modelkit.Base.MustExtend(nil, &modelkit.Statics{Name: "Category", Schema: schema.Schema{}})
	assert.Equal(t, []string{"categories"}, collections)

	failing := errors.New("no database")
	modelkit.Configure(modelkit.Options{Backend: func(string) (modelkit.Backend, error) { return nil, failing }})
	_, err := modelkit.Base.Extend(nil, &modelkit.Statics{Schema: schema.Schema{}})
	assert.ErrorIs(t, err, failing)
}
