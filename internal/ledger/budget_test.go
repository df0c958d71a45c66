package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartspend/internal/storage/memory"
)

func TestBudgetDefaultsWhenUnset(t *testing.T) {
	b := NewBudget(memory.New(nil), DefaultBudget, nil)
	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, "2500.00", b.Value().String())
}

func TestBudgetLoadsStoredValue(t *testing.T) {
	b := NewBudget(memory.New(map[string]string{KeyBudget: "123.45"}), DefaultBudget, nil)
	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, int64(12345), b.Value().Cents)
}

func TestBudgetIgnoresMalformedStoredValue(t *testing.T) {
	b := NewBudget(memory.New(map[string]string{KeyBudget: "lots"}), DefaultBudget, nil)
	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, DefaultBudget, b.Value())
}

func TestBudgetSet(t *testing.T) {
	kv := memory.New(nil)
	ctx := context.Background()
	b := NewBudget(kv, DefaultBudget, nil)
	require.NoError(t, b.Load(ctx))

	v, err := b.Set(ctx, "1800.5")
	require.NoError(t, err)
	assert.Equal(t, int64(180050), v.Cents)

	stored, ok, err := kv.Get(ctx, KeyBudget)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1800.5", stored)

	again := NewBudget(kv, DefaultBudget, nil)
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, b.Value(), again.Value())
}

func TestBudgetSetRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "-5", "12e"} {
		t.Run(raw, func(t *testing.T) {
			b := NewBudget(memory.New(nil), DefaultBudget, nil)
			require.NoError(t, b.Load(context.Background()))
			_, err := b.Set(context.Background(), raw)
			assert.ErrorIs(t, err, ErrInvalidBudget)
			assert.Equal(t, DefaultBudget, b.Value())
		})
	}
}

func TestBudgetSetPersistFailure(t *testing.T) {
	kv := &flakyKV{Store: memory.New(nil), fail: true}
	b := NewBudget(kv, DefaultBudget, nil)
	require.NoError(t, b.Load(context.Background()))

	_, err := b.Set(context.Background(), "10")
	assert.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, DefaultBudget, b.Value())
}
