package screens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/duet/internal/gateway"
	"github.com/dmitrijs2005/duet/internal/models"
)

func TestNotes_AddPicksColorAndTilt(t *testing.T) {
	old := randIntN
	t.Cleanup(func() { randIntN = old })
	picks := []int{2, 0}
	randIntN = func(n int) int {
		v := picks[0]
		picks = picks[1:]
		return v
	}

	gw := newFakeGateway()
	n := NewNotes(me, gw, testOptions())
	_, err := n.Add(context.Background(), "buy milk")
	require.NoError(t, err)
	n.Wait()

	items := n.Items()
	require.Len(t, items, 1)
	assert.Equal(t, models.SharedNote{Author: "Aami", Content: "buy milk", Color: "blue", Rotation: -3}, items[0].Payload)
	assert.Contains(t, n.View(), "buy milk")
}

func TestNotes_RotationStaysInRange(t *testing.T) {
	gw := newFakeGateway()
	n := NewNotes(me, gw, testOptions())
	for range 100 {
		_, err := n.Add(context.Background(), "x")
		require.NoError(t, err)
	}
	n.Wait()

	for _, e := range n.Items() {
		assert.GreaterOrEqual(t, e.Payload.Rotation, -3)
		assert.LessOrEqual(t, e.Payload.Rotation, 3)
		assert.Contains(t, models.NoteColors, e.Payload.Color)
	}
}

func TestNotes_SharedBoard(t *testing.T) {
	gw := newFakeGateway()
	gw.seed(gateway.SharedNotes, "n1", clock, map[string]any{"author": "Tumi", "content": "hi", "color": "pink", "rotation": float64(2)})
	n := NewNotes(me, gw, testOptions())
	require.NoError(t, n.Load(context.Background()))

	assert.Empty(t, gw.lastQuery(t).q.Filters)
	require.Len(t, n.Items(), 1)
	assert.Equal(t, 2, n.Items()[0].Payload.Rotation)

	_, err := n.Add(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}
