package modelkit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burugo/modelkit"
	"github.com/burugo/modelkit/metrics"
)

func TestHooks_BeforeCreateMutationIsPersisted(t *testing.T) {
	users, _ := newUsers(t)
	users.Before(modelkit.EventCreate, func(_ context.Context, inst *modelkit.Instance) error {
		inst.Set("name", "from hook")
		return nil
	})

	inst, err := users.Create(context.Background(), nil)
	require.NoError(t, err)
	name, _ := inst.Get("name")
	assert.Equal(t, "from hook", name)

	docs := documents(t, users)
	require.Len(t, docs, 1)
	assert.Equal(t, "from hook", docs[0]["name"])
}

func TestHooks_BeforeValidateRunsFirst(t *testing.T) {
	users, _ := newUsers(t)
	var order []string
	users.Before(modelkit.EventCreate, func(_ context.Context, inst *modelkit.Instance) error {
		order = append(order, "create")
		return nil
	})
	users.Before(modelkit.EventValidate, func(_ context.Context, inst *modelkit.Instance) error {
		order = append(order, "validate")
		inst.Set("email", "fixed@example.com")
		return nil
	})

	_, err := users.Create(context.Background(), map[string]any{"email": "not-valid"})
	require.NoError(t, err, "validate hooks run before validation")
	assert.Equal(t, []string{"validate", "create"}, order)
}

func TestHooks_InheritedInOrderWithoutLeakingUpwards(t *testing.T) {
	users, _ := newUsers(t)
	var order []string
	record := func(name string) modelkit.Hook {
		return func(context.Context, *modelkit.Instance) error {
			order = append(order, name)
			return nil
		}
	}

	users.Before(modelkit.EventCreate, record("parent-1"))
	admins := users.MustExtend(nil, &modelkit.Statics{Name: "Admin"})
	admins.Before(modelkit.EventCreate, record("child"))
	users.Before(modelkit.EventCreate, record("parent-2"))

	assert.Equal(t, 2, users.HookCount(modelkit.PhaseBefore, modelkit.EventCreate))
	assert.Equal(t, 2, admins.HookCount(modelkit.PhaseBefore, modelkit.EventCreate))

	_, err := admins.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"parent-1", "child"}, order)

	order = nil
	_, err = users.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"parent-1", "parent-2"}, order)
}

func TestHooks_ErrorAbortsBeforePersistence(t *testing.T) {
	users, _ := newUsers(t)
	denied := errors.New("denied")
	users.Before(modelkit.EventCreate, func(context.Context, *modelkit.Instance) error { return denied })

	inst, err := users.Create(context.Background(), nil)
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, denied)

	var hookErr *modelkit.HookError
	require.True(t, errors.As(err, &hookErr))
	assert.Equal(t, modelkit.EventCreate, hookErr.Event)
	assert.Equal(t, modelkit.PhaseBefore, hookErr.Phase)
	assert.Equal(t, "User", hookErr.Model)

	assert.Empty(t, documents(t, users))
}

func TestHooks_PanicIsRecovered(t *testing.T) {
	users, _ := newUsers(t)
	users.Before(modelkit.EventValidate, func(context.Context, *modelkit.Instance) error { panic("boom") })

	_, err := users.Create(context.Background(), nil)
	var hookErr *modelkit.HookError
	require.True(t, errors.As(err, &hookErr))
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, documents(t, users))
}

func TestHooks_Update(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	created, err := users.Create(ctx, nil)
	require.NoError(t, err)

	users.Before(modelkit.EventUpdate, func(_ context.Context, inst *modelkit.Instance) error {
		inst.Set("address.country", "FR")
		return nil
	})
	_, err = users.Update(ctx, modelkit.Query{"_id": created.ID()}, map[string]any{"name": "x"})
	require.NoError(t, err)

	docs := documents(t, users)
	assert.Equal(t, "FR", docs[0]["address"].(map[string]any)["country"])

	users.Before(modelkit.EventUpdate, func(context.Context, *modelkit.Instance) error { return errors.New("frozen") })
	_, err = users.Update(ctx, modelkit.Query{"_id": created.ID()}, map[string]any{"name": "y"})
	require.Error(t, err)
	assert.Equal(t, "x", documents(t, users)[0]["name"])
}

func TestHooks_BeforeUpdateUnsetIsPersisted(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	users.Before(modelkit.EventUpdate, func(_ context.Context, inst *modelkit.Instance) error {
		inst.Unset("email")
		return nil
	})
	created, err := users.Create(ctx, map[string]any{"email": "ada@example.com", "name": "ada"})
	require.NoError(t, err)

	updated, err := users.Update(ctx, modelkit.Query{"_id": created.ID()}, map[string]any{"name": "grace"})
	require.NoError(t, err)
	_, ok := updated.Get("email")
	assert.False(t, ok)

	docs := documents(t, users)
	require.Len(t, docs, 1)
	assert.Equal(t, "grace", docs[0]["name"])
	assert.NotContains(t, docs[0], "email")
}

func TestHooks_Destroy(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	created, err := users.Create(ctx, map[string]any{"name": "keep"})
	require.NoError(t, err)

	var seen []string
	users.Before(modelkit.EventDestroy, func(_ context.Context, inst *modelkit.Instance) error {
		seen = append(seen, inst.ID())
		if name, _ := inst.Get("name"); name == "keep" {
			return errors.New("protected")
		}
		return nil
	})

	require.Error(t, users.Destroy(ctx, modelkit.Query{"_id": created.ID()}))
	assert.Len(t, documents(t, users), 1)
	assert.Equal(t, []string{created.ID()}, seen)

	other, err := users.Create(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, users.Destroy(ctx, modelkit.Query{"_id": other.ID()}))
	assert.Len(t, documents(t, users), 1)
}

func TestHooks_AfterRunsOnSuccessOnly(t *testing.T) {
	users, _ := newUsers(t)
	var stored int
	users.After(modelkit.EventCreate, func(context.Context, *modelkit.Instance) error {
		stored = len(documents(t, users))
		return errors.New("ignored")
	})

	_, err := users.Create(context.Background(), nil)
	require.NoError(t, err, "after hook errors are logged, not returned")
	assert.Equal(t, 1, stored, "after hooks see the persisted document")

	stored = -1
	_, err = users.Create(context.Background(), map[string]any{"email": "not-valid"})
	require.Error(t, err)
	assert.Equal(t, -1, stored)
}

func TestHooks_NilIsIgnored(t *testing.T) {
	users, _ := newUsers(t)
	users.Before(modelkit.EventCreate, nil)
	users.After(modelkit.EventCreate, nil)
	assert.Zero(t, users.HookCount(modelkit.PhaseBefore, modelkit.EventCreate))
	assert.Zero(t, users.HookCount(modelkit.PhaseAfter, modelkit.EventCreate))
}

func TestHooks_FireCustomEvent(t *testing.T) {
	users, _ := newUsers(t)
	const archive modelkit.Event = "archive"
	var steps []string
	users.Before(archive, func(context.Context, *modelkit.Instance) error {
		steps = append(steps, "before")
		return nil
	})
	users.After(archive, func(context.Context, *modelkit.Instance) error {
		steps = append(steps, "after")
		return nil
	})

	err := users.Fire(context.Background(), archive, users.New(nil), func(context.Context) error {
		steps = append(steps, "op")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"before", "op", "after"}, steps)

	steps = nil
	failed := errors.New("op failed")
	err = users.Fire(context.Background(), archive, users.New(nil), func(context.Context) error { return failed })
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, []string{"before"}, steps)
}

func TestHooks_FailuresAreObserved(t *testing.T) {
	collector := metrics.NewWithRegistry(prometheus.NewRegistry())
	configure(t, modelkit.Options{Observer: collector})

	users, _ := newUsers(t)
	users.Before(modelkit.EventCreate, func(context.Context, *modelkit.Instance) error { return errors.New("no") })
	_, err := users.Create(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HookFailures.WithLabelValues("User", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.OperationsTotal.WithLabelValues("User", "create", metrics.OutcomeHookError)))
}
