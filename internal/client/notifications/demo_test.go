package notifications

import (
	"context"
	"maps"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dmitrijs2005/homeshare/internal/client/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo(t *testing.T) {
	rows := &fakeRows{owner: "u1"}
	rnd := rand.New(rand.NewPCG(1, 2))

	got, err := SeedDemo(context.Background(), rows, "u1", 40, rnd)
	require.NoError(t, err)
	require.Len(t, got, 40)
	require.Len(t, rows.inserts, 1)
	assert.Equal(t, "notifications", rows.inserts[0].Table)

	read := 0
	for _, n := range got {
		assert.Equal(t, "u1", n.UserID)
		assert.Contains(t, demoTypes, n.Type)
		assert.True(t, slices.Contains(demoMessages[n.Type], n.Message), n.Message)
		assert.Nil(t, n.RelatedID)
		if n.IsRead {
			read++
		}
	}
	assert.Less(t, read, 40)
}

func TestSeedDemo_SendsOnlyWritableColumns(t *testing.T) {
	rows := &fakeRows{owner: "u1"}

	_, err := SeedDemo(context.Background(), rows, "u1", 10, rand.New(rand.NewPCG(5, 6)))
	require.NoError(t, err)
	require.Len(t, rows.inserts, 1)

	want := []string{"is_read", "message", "related_id", "type"}
	for _, rec := range rows.inserts[0].Records {
		assert.Equal(t, want, slices.Sorted(maps.Keys(rec)))
	}
}

func TestSeedDemo_Defaults(t *testing.T) {
	rows := &fakeRows{}
	rnd := rand.New(rand.NewPCG(3, 4))

	got, err := SeedDemo(context.Background(), rows, "u1", 0, rnd)
	require.NoError(t, err)
	assert.Len(t, got, DefaultDemoCount)

	got, err = SeedDemo(context.Background(), rows, "", 3, rnd)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Len(t, rows.inserts, 1)
}

func TestSeedDemo_InsertError(t *testing.T) {
	rows := &fakeRows{insertErr: assert.AnError}

	_, err := SeedDemo(context.Background(), rows, "u1", 2, rand.New(rand.NewPCG(1, 1)))
	var fe *failure.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, failure.KindMutation, fe.Kind)
}
