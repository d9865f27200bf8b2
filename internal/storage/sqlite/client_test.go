package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/storage/models"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	c, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, c.InitSchema())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRecipientLifecycle(t *testing.T) {
	c := testClient(t)

	row := &models.RecipientRow{
		Identity:     "42",
		Address:      "chat-42",
		Name:         "Ana",
		SubscribedAt: time.Now(),
	}
	require.NoError(t, c.UpsertRecipient(row))

	// Upsert again with a new address; still one row.
	row.Address = "chat-43"
	require.NoError(t, c.UpsertRecipient(row))

	list, err := c.ListRecipients()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "42", list[0].Identity)
	assert.Equal(t, "chat-43", list[0].Address)

	require.NoError(t, c.DeleteRecipient("42"))
	list, err = c.ListRecipients()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPredictionHistory(t *testing.T) {
	c := testClient(t)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.InsertPrediction(&models.PredictionRecord{
			ID:          string(rune('a' + i)),
			RecordID:    "sample-1",
			Source:      "api",
			Potable:     i%2 == 0,
			Probability: 0.7,
			Confidence:  0.7,
			LatencyMS:   5,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	recent, err := c.RecentPredictions(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID, "newest first")
	assert.Equal(t, "b", recent[1].ID)
	assert.True(t, recent[0].Potable)
}

func TestInsertAlert(t *testing.T) {
	c := testClient(t)

	require.NoError(t, c.InsertAlert(&models.AlertRecord{
		ID:        "alert-1",
		RecordID:  "sample-1",
		Recipient: "42",
		Delivered: true,
		Message:   "Water quality alert",
		CreatedAt: time.Now(),
	}))

	// Duplicate primary key must fail.
	err := c.InsertAlert(&models.AlertRecord{
		ID:        "alert-1",
		RecordID:  "sample-2",
		Recipient: "42",
		CreatedAt: time.Now(),
	})
	assert.Error(t, err)
}
