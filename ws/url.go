package ws

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jsdzhang/occhat"
)

// chatPath is the fixed endpoint path the server exposes for agent chat.
const chatPath = "/ws/chat/"

// BuildURL derives the connection URL from the base endpoint and chat
// context. http and https schemes map to ws and wss. Query parameters are
// attached for exactly the fields present: corpus_id, document_id,
// agent_id, conversation_id, token. The server consumer depends on this
// parameter set; do not rename or extend it.
func BuildURL(base string, chatCtx occhat.ChatContext) (string, error) {
	if !chatCtx.Valid() {
		return "", occhat.ErrMissingContext
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("ws: parse base URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("ws: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + chatPath

	q := u.Query()
	params := []struct{ key, val string }{
		{"corpus_id", chatCtx.CorpusID},
		{"document_id", chatCtx.DocumentID},
		{"agent_id", chatCtx.AgentID},
		{"conversation_id", chatCtx.ConversationID},
		{"token", chatCtx.Token},
	}
	for _, p := range params {
		if p.val != "" {
			q.Set(p.key, p.val)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
