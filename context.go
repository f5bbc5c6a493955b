package occhat

// ChatContext identifies the conversation a session attaches to. The server
// derives the conversation from whichever identifiers are present; at least
// one of the four must be set for a connection to be possible.
type ChatContext struct {
	ConversationID string
	CorpusID       string
	DocumentID     string
	AgentID        string
	Token          string
}

// Valid reports whether the context carries enough identity to derive a
// connection URL.
func (c ChatContext) Valid() bool {
	return c.ConversationID != "" || c.CorpusID != "" || c.DocumentID != "" || c.AgentID != ""
}
