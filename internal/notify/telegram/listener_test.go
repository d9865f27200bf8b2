package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipca/backend/internal/registry"
)

func silentAPI(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL("tok", srv.URL)
}

func update(text string, userID, chatID int64) Update {
	raw := fmt.Sprintf(`{
		"update_id": 1,
		"message": {
			"text": %q,
			"from": {"id": %d, "first_name": "Ana"},
			"chat": {"id": %d}
		}
	}`, text, userID, chatID)

	var u Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		panic(err)
	}
	return u
}

func TestHandleUpdate_StartSubscribes(t *testing.T) {
	store := registry.NewMemoryStore()
	l := NewListener(silentAPI(t), store, 1)

	l.handleUpdate(context.Background(), update("/start", 42, 4242))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "42", list[0].Identity)
	assert.Equal(t, "4242", list[0].Address)
	assert.Equal(t, "Ana", list[0].Name)
}

func TestHandleUpdate_StopUnsubscribes(t *testing.T) {
	store := registry.NewMemoryStore()
	l := NewListener(silentAPI(t), store, 1)

	l.handleUpdate(context.Background(), update("/start", 42, 4242))
	l.handleUpdate(context.Background(), update("/stop", 42, 4242))

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHandleUpdate_BotSuffixAndCase(t *testing.T) {
	store := registry.NewMemoryStore()
	l := NewListener(silentAPI(t), store, 1)

	l.handleUpdate(context.Background(), update("/Start@sipca_bot", 42, 4242))

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHandleUpdate_IgnoresOtherMessages(t *testing.T) {
	store := registry.NewMemoryStore()
	l := NewListener(silentAPI(t), store, 1)

	l.handleUpdate(context.Background(), update("hello there", 42, 4242))
	l.handleUpdate(context.Background(), Update{UpdateID: 2})

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
