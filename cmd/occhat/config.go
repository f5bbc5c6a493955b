package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsdzhang/occhat"
)

const defaultServer = "ws://localhost:8000"

type config struct {
	server         string
	token          string
	corpus         string
	document       string
	agent          string
	conversation   string
	transcriptPath string
	logPath        string
	noReconnect    bool
}

// parseFlags parses command-line arguments. envToken is the value of
// OPENCONTRACTS_TOKEN; the -token flag overrides it.
func parseFlags(args []string, envToken string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("occhat", flag.ContinueOnError)
	fs.StringVar(&cfg.server, "server", defaultServer, "Base server URL")
	fs.StringVar(&cfg.token, "token", "", "Auth token (overrides OPENCONTRACTS_TOKEN)")
	fs.StringVar(&cfg.corpus, "corpus", "", "Corpus ID")
	fs.StringVar(&cfg.document, "document", "", "Document ID")
	fs.StringVar(&cfg.agent, "agent", "", "Corpus agent ID")
	fs.StringVar(&cfg.conversation, "conversation", "", "Conversation ID to resume server-side")
	fs.StringVar(&cfg.transcriptPath, "transcript", "", "Path to save the transcript on exit")
	fs.StringVar(&cfg.logPath, "log", "", "Path to a debug log file")
	fs.BoolVar(&cfg.noReconnect, "no-reconnect", false, "Disable automatic reconnection")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.token == "" {
		cfg.token = envToken
	}
	return cfg, nil
}

func (c config) chatContext() occhat.ChatContext {
	return occhat.ChatContext{
		ConversationID: c.conversation,
		CorpusID:       c.corpus,
		DocumentID:     c.document,
		AgentID:        c.agent,
		Token:          c.token,
	}
}

// defaultTranscriptPath derives a save location from the chat context so
// transcripts from different documents don't overwrite each other.
func defaultTranscriptPath(chatCtx occhat.ChatContext, now time.Time) string {
	var parts []string
	if chatCtx.CorpusID != "" {
		parts = append(parts, "corpus"+chatCtx.CorpusID)
	}
	if chatCtx.DocumentID != "" {
		parts = append(parts, "doc"+chatCtx.DocumentID)
	}
	if chatCtx.AgentID != "" {
		parts = append(parts, "agent"+chatCtx.AgentID)
	}
	if len(parts) == 0 {
		parts = append(parts, "chat")
	}
	name := fmt.Sprintf("%s-%s.json", now.Format("20060102-150405"), strings.Join(parts, "-"))
	return filepath.Join(".occhat", "transcripts", name)
}
