package cart_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamde/internal/cart"
)

type memStore struct{ slots map[string][]byte }

func (m *memStore) Load(_ context.Context, owner, key string) ([]byte, error) {
	return m.slots[owner+"/"+key], nil
}

func (m *memStore) Save(_ context.Context, owner, key string, b []byte) error {
	if m.slots == nil {
		m.slots = map[string][]byte{}
	}
	m.slots[owner+"/"+key] = b
	return nil
}

func ref(id string, price string, stock int) cart.Item {
	return cart.Item{ProductID: id, Name: "Item " + id, Price: decimal.RequireFromString(price), Slug: "item-" + id, Stock: stock}
}

func TestAddItemClampsToStock(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	c, err := cart.Open(ctx, store, "s1")
	require.NoError(t, err)

	require.NoError(t, c.AddItem(ctx, ref("p1", "10.00", 5), 3))
	require.NoError(t, c.AddItem(ctx, ref("p1", "10.00", 5), 4))
	require.NoError(t, c.AddItem(ctx, ref("p2", "2.50", 3), 0))
	require.NoError(t, c.AddItem(ctx, ref("p3", "1.00", 0), 2))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity, "non-positive quantity defaults to one")

	sum := cart.Totals(items)
	assert.True(t, sum.Subtotal.Equal(decimal.RequireFromString("52.50")), sum.Subtotal.String())
	assert.Equal(t, 6, sum.Count)
}

func TestUpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	c, err := cart.Open(ctx, &memStore{}, "s1")
	require.NoError(t, err)
	require.NoError(t, c.AddItem(ctx, ref("p1", "4.00", 4), 1))

	require.NoError(t, c.UpdateQuantity(ctx, "p1", 9))
	assert.Equal(t, 4, c.Items()[0].Quantity)
	require.NoError(t, c.UpdateQuantity(ctx, "p1", -2))
	assert.Equal(t, 1, c.Items()[0].Quantity)

	require.NoError(t, c.RemoveItem(ctx, "missing"))
	require.NoError(t, c.RemoveItem(ctx, "p1"))
	assert.Empty(t, c.Items())
}

func TestPersistsSnapshotShapeAndClearNotifies(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	var notified []cart.Snapshot
	listener := func(owner string, s cart.Snapshot) { notified = append(notified, s) }

	c, err := cart.Open(ctx, store, "s1", listener)
	require.NoError(t, err)
	require.NoError(t, c.AddItem(ctx, ref("p1", "10.00", 5), 2))

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(store.slots["s1/"+cart.StorageKey], &raw))
	line := raw["items"][0]
	for _, k := range []string{"productId", "name", "price", "slug", "image", "stock", "quantity"} {
		assert.Contains(t, line, k)
	}

	reopened, err := cart.Open(ctx, store, "s1")
	require.NoError(t, err)
	assert.Len(t, reopened.Items(), 1)

	require.NoError(t, c.Clear(ctx))
	assert.JSONEq(t, `{"items":[]}`, string(store.slots["s1/"+cart.StorageKey]))
	require.Len(t, notified, 2)
	assert.Empty(t, notified[1].Items)
}

func TestTotalsEmpty(t *testing.T) {
	sum := cart.Totals(nil)
	assert.True(t, sum.Subtotal.IsZero())
	assert.Zero(t, sum.Count)
}
