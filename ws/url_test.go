package ws_test

import (
	"net/url"
	"testing"

	"github.com/jsdzhang/occhat"
	"github.com/jsdzhang/occhat/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	t.Parallel()

	t.Run("requires at least one identifier", func(t *testing.T) {
		t.Parallel()
		_, err := ws.BuildURL("ws://api.example.com", occhat.ChatContext{Token: "tok"})
		assert.ErrorIs(t, err, occhat.ErrMissingContext)
	})

	t.Run("attaches exactly the present parameters", func(t *testing.T) {
		t.Parallel()
		got, err := ws.BuildURL("ws://api.example.com", occhat.ChatContext{
			CorpusID:       "42",
			DocumentID:     "7",
			AgentID:        "a1",
			ConversationID: "c9",
			Token:          "tok",
		})
		require.NoError(t, err)
		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, "/ws/chat/", u.Path)
		q := u.Query()
		assert.Equal(t, "42", q.Get("corpus_id"))
		assert.Equal(t, "7", q.Get("document_id"))
		assert.Equal(t, "a1", q.Get("agent_id"))
		assert.Equal(t, "c9", q.Get("conversation_id"))
		assert.Equal(t, "tok", q.Get("token"))
		assert.Len(t, q, 5)
	})

	t.Run("omits absent parameters", func(t *testing.T) {
		t.Parallel()
		got, err := ws.BuildURL("ws://api.example.com", occhat.ChatContext{DocumentID: "7"})
		require.NoError(t, err)
		u, err := url.Parse(got)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "7", q.Get("document_id"))
		assert.Len(t, q, 1)
	})

	t.Run("maps http schemes to websocket schemes", func(t *testing.T) {
		t.Parallel()
		got, err := ws.BuildURL("http://api.example.com", occhat.ChatContext{DocumentID: "7"})
		require.NoError(t, err)
		assert.Contains(t, got, "ws://")

		got, err = ws.BuildURL("https://api.example.com", occhat.ChatContext{DocumentID: "7"})
		require.NoError(t, err)
		assert.Contains(t, got, "wss://")
	})

	t.Run("rejects unsupported schemes", func(t *testing.T) {
		t.Parallel()
		_, err := ws.BuildURL("ftp://api.example.com", occhat.ChatContext{DocumentID: "7"})
		assert.Error(t, err)
	})

	t.Run("appends the chat path to a base path", func(t *testing.T) {
		t.Parallel()
		got, err := ws.BuildURL("wss://api.example.com/backend/", occhat.ChatContext{DocumentID: "7"})
		require.NoError(t, err)
		u, err := url.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, "/backend/ws/chat/", u.Path)
	})
}
