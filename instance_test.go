package modelkit_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit"
	"github.com/burugo/modelkit/defaults"
	"github.com/burugo/modelkit/schema"
)

func TestInstance_New_KeepsDeclaredDropsUndeclared(t *testing.T) {
	users, _ := newUsers(t)
	inst := users.New(map[string]any{
		"email":   "ada@example.com",
		"isAdmin": true,
		"address": map[string]any{"country": "UK", "planet": "Earth"},
	})

	email, ok := inst.Get("email")
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", email)

	_, ok = inst.Get("isAdmin")
	assert.False(t, ok)
	_, ok = inst.Lookup("isAdmin")
	assert.False(t, ok)

	address, _ := inst.Get("address")
	assert.Equal(t, map[string]any{"city": "Paris", "country": "UK"}, address, "nested defaults fill in, undeclared nested keys are dropped")
}

func TestInstance_New_Defaults(t *testing.T) {
	users, _ := newUsers(t)
	a := users.New(nil)
	b := users.New(nil)

	name, _ := a.Get("name")
	assert.Equal(t, "anonymous", name)

	city, ok := a.Get("address.city")
	require.True(t, ok)
	assert.Equal(t, "Paris", city)
	_, ok = a.Get("address.country")
	assert.False(t, ok)

	tokenA, _ := a.Get("token")
	tokenB, _ := b.Get("token")
	assert.Len(t, tokenA, defaults.RandomLength)
	assert.NotEqual(t, tokenA, tokenB, "generators run for every instance")

	_, ok = a.Get("email")
	assert.False(t, ok, "fields without input or default stay unset")
}

func TestInstance_New_LiteralDefaultsAreNotShared(t *testing.T) {
	m := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{
		"tags": {Type: schema.TypeArray, Default: schema.Value([]any{"new"})},
	}})
	a := m.New(nil)
	b := m.New(nil)

	tags, _ := a.Get("tags")
	tags.([]any)[0] = "changed"

	tags, _ = b.Get("tags")
	assert.Equal(t, []any{"new"}, tags)
}

func TestInstance_New_Identity(t *testing.T) {
	users, _ := newUsers(t)

	generated := users.New(nil)
	assert.Equal(t, "u1", generated.ID())

	supplied := users.New(map[string]any{"_id": "given"})
	assert.Equal(t, "given", supplied.ID())

	random := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{}})
	assert.Len(t, random.New(nil).ID(), 36, "UUID identities by default")

	noID := modelkit.Base.MustExtend(nil, &modelkit.Statics{Schema: schema.Schema{}, NoUniqueID: true})
	inst := noID.New(nil)
	_, ok := inst.Get("_id")
	assert.False(t, ok)
	assert.Empty(t, inst.ID())
}

func TestInstance_New_NoTimestamps(t *testing.T) {
	users, _ := newUsers(t)
	inst := users.New(nil)

	assert.True(t, inst.Created().IsZero())
	assert.True(t, inst.Modified().IsZero())
	_, ok := inst.Get("created")
	assert.False(t, ok)
}

func TestInstance_New_DeclaredTimestampFieldKeepsInput(t *testing.T) {
	ctx := context.Background()
	events := modelkit.Base.MustExtend(nil, &modelkit.Statics{
		Schema:     schema.Schema{"created": {Type: schema.TypeString}},
		Timestamps: modelkit.Bool(false),
	})

	inst := events.New(map[string]any{"created": "2024-05-01T09:00:00Z"})
	created, _ := inst.Get("created")
	assert.Equal(t, "2024-05-01T09:00:00Z", created)

	stored, err := events.Create(ctx, map[string]any{"created": "2024-05-01T09:00:00Z"})
	require.NoError(t, err)

	found, err := events.Find(ctx, modelkit.Query{"_id": stored.ID()})
	require.NoError(t, err)
	created, _ = found.Get("created")
	assert.Equal(t, "2024-05-01T09:00:00Z", created)
}

func TestInstance_SetAndUnset(t *testing.T) {
	users, _ := newUsers(t)
	inst := users.New(nil)

	assert.True(t, inst.Set("email", "grace@example.com"))
	assert.True(t, inst.Set("address.country", "US"))
	assert.False(t, inst.Set("nickname", "g"))
	assert.False(t, inst.Set("address.planet", "Mars"))

	country, _ := inst.Get("address.country")
	assert.Equal(t, "US", country)
	_, ok := inst.Get("nickname")
	assert.False(t, ok)

	inst.Unset("email")
	_, ok = inst.Get("email")
	assert.False(t, ok)

	attrs := inst.Attrs()
	attrs["name"] = "changed"
	name, _ := inst.Get("name")
	assert.Equal(t, "anonymous", name, "Attrs returns a copy")
}

func TestInstance_Validate(t *testing.T) {
	users, _ := newUsers(t)

	result := users.New(map[string]any{"email": "not-valid"}).Validate()
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "email", result.Errors[0].Field)

	var verr *modelkit.ValidationError
	require.True(t, errors.As(result.Err(), &verr))
	assert.Equal(t, "ValidationError", verr.Name())

	assert.True(t, users.New(map[string]any{"email": "valid@example.com"}).Validate().Valid)
}

func TestInstance_ProtoLookupAndCall(t *testing.T) {
	users, _ := newUsers(t)
	users.SetProto("kind", "user")
	users.SetProto("greet", modelkit.Method(func(_ context.Context, inst *modelkit.Instance, args ...any) (any, error) {
		name, _ := inst.Get("name")
		return name.(string) + args[0].(string), nil
	}))
	admins := users.MustExtend(modelkit.Proto{"kind": "admin"}, nil)

	inst := admins.New(map[string]any{"name": "ada"})
	kind, ok := inst.Lookup("kind")
	require.True(t, ok)
	assert.Equal(t, "admin", kind)

	name, ok := inst.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "ada", name, "attributes shadow prototype entries")

	out, err := inst.Call(context.Background(), "greet", "!")
	require.NoError(t, err)
	assert.Equal(t, "ada!", out)

	_, err = inst.Call(context.Background(), "kind")
	assert.Error(t, err)
	_, err = inst.Call(context.Background(), "missing")
	assert.Error(t, err)
}

func TestInstance_MarshalJSON(t *testing.T) {
	users, _ := newUsers(t)
	inst := users.New(map[string]any{"email": "ada@example.com"})

	data, err := json.Marshal(inst)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ada@example.com", decoded["email"])
	assert.Equal(t, "u1", decoded["_id"])
	assert.Equal(t, "User(u1)", inst.String())
}
