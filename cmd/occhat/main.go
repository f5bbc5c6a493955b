// Command occhat is a terminal client for OpenContracts agent chat.
//
// Usage:
//
//	OPENCONTRACTS_TOKEN=... occhat -server wss://host -document 7 [flags]
//
// Flags:
//
//	-server string        Base server URL (ws://, wss://, http://, or https://)
//	-token string         Auth token (overrides OPENCONTRACTS_TOKEN)
//	-corpus string        Corpus ID
//	-document string      Document ID
//	-agent string         Corpus agent ID
//	-conversation string  Conversation ID to resume server-side
//	-transcript string    Path to save the transcript on exit
//	-log string           Path to a debug log file
//	-no-reconnect         Disable automatic reconnection
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/jsdzhang/occhat"
	bt "github.com/jsdzhang/occhat/bubbletea"
	ocjson "github.com/jsdzhang/occhat/json"
	"github.com/jsdzhang/occhat/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "occhat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := parseFlags(os.Args[1:], os.Getenv("OPENCONTRACTS_TOKEN"))
	if err != nil {
		return err
	}

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, closeLog, err := newLogger(cfg.logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	chatCtx := cfg.chatContext()
	session := ws.NewSession(cfg.server, ws.Options{
		AutoReconnect: !cfg.noReconnect,
		Logger:        logger,
	})
	defer session.Close()

	if err := session.Connect(ctx, chatCtx); err != nil {
		if errors.Is(err, occhat.ErrMissingContext) {
			return errors.New("at least one of -corpus, -document, -agent, or -conversation is required")
		}
		return fmt.Errorf("connect: %w", err)
	}

	m := bt.New(session, session.Events(), occhat.DefaultTheme())
	if err := bt.Run(ctx, m); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save the transcript on exit. The session still holds its messages
	// until Close runs.
	msgs := session.Messages()
	if len(msgs) == 0 {
		return nil
	}
	path := cfg.transcriptPath
	if path == "" {
		path = defaultTranscriptPath(chatCtx, time.Now())
	}
	tr := ocjson.Transcript{Context: chatCtx, SavedAt: time.Now(), Messages: msgs}
	if err := ocjson.Save(path, tr); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", path)
	return nil
}

// newLogger builds a file logger for debugging. The TUI owns the terminal,
// so without -log all logging is discarded.
func newLogger(path string) (*zap.Logger, func(), error) {
	if path == "" {
		return zap.NewNop(), func() {}, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}
