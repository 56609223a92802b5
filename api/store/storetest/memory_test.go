package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/onestay/MarathonRegistry-API/api/models"
	"github.com/onestay/MarathonRegistry-API/api/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryMarathonLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	res, err := m.InsertMarathon(ctx, models.Document{"_id": "ignored", "title": "Spring Run", "email": "owner@example.com"})
	require.NoError(t, err)
	id := res.InsertedID.(primitive.ObjectID).Hex()

	doc, err := m.FindMarathon(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Spring Run", doc["title"])

	// returned documents are copies
	doc["title"] = "changed"
	raw, _ := m.RawMarathon(id)
	assert.Equal(t, "Spring Run", raw["title"])

	require.NoError(t, m.IncrementRegistrationCount(ctx, id))
	require.NoError(t, m.IncrementRegistrationCount(ctx, id))
	raw, _ = m.RawMarathon(id)
	assert.Equal(t, int64(2), raw[models.RegistrationCountField])

	updated, err := m.UpdateMarathon(ctx, id, models.Document{"title": "Autumn Run"})
	require.NoError(t, err)
	assert.Equal(t, "Autumn Run", updated["title"])

	mine, err := m.MarathonsByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, m.DeleteMarathon(ctx, id))
	_, err = m.FindMarathon(ctx, id)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.True(t, errors.Is(m.DeleteMarathon(ctx, id), store.ErrNotFound))
}

func TestMemoryListLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 3; i++ {
		m.PutMarathon(models.Document{"n": i})
	}

	all, err := m.ListMarathons(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	two, err := m.ListMarathons(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, 0, two[0]["n"])
}

func TestMemoryMalformedID(t *testing.T) {
	m := NewMemory()
	_, err := m.FindMarathon(context.Background(), "nope")
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}

func TestMemoryIncrementNonNumeric(t *testing.T) {
	m := NewMemory()
	id := m.PutMarathon(models.Document{models.RegistrationCountField: "many"})
	assert.Error(t, m.IncrementRegistrationCount(context.Background(), id))
}

func TestMemoryBackfillOnlyTouchesInvalidCounters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	missing := m.PutMarathon(models.Document{"title": "Spring Run"})
	counted := m.PutMarathon(models.Document{models.RegistrationCountField: int64(3)})

	require.NoError(t, m.BackfillRegistrationCount(ctx, missing))
	require.NoError(t, m.BackfillRegistrationCount(ctx, counted))
	require.NoError(t, m.BackfillRegistrationCount(ctx, primitive.NewObjectID().Hex()))

	raw, _ := m.RawMarathon(missing)
	assert.Equal(t, int64(0), raw[models.RegistrationCountField])
	raw, _ = m.RawMarathon(counted)
	assert.Equal(t, int64(3), raw[models.RegistrationCountField])
}

func TestMemoryFailAndCalls(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("connection reset")

	m.Fail("ListMarathons", boom)
	_, err := m.ListMarathons(ctx, 0)
	assert.Equal(t, boom, err)

	m.Fail("ListMarathons", nil)
	_, err = m.ListMarathons(ctx, 0)
	assert.NoError(t, err)

	assert.Equal(t, 2, m.Calls("ListMarathons"))
	assert.Equal(t, 2, m.TotalCalls())
}
