package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/fikrfree/assistant/internal/llm"
	"github.com/fikrfree/assistant/internal/retrieval"
	"github.com/fikrfree/assistant/pkg/catalog"
	"github.com/fikrfree/assistant/pkg/lang"
	"github.com/fikrfree/assistant/pkg/observability"
	"github.com/fikrfree/assistant/pkg/safety"
	"github.com/fikrfree/assistant/pkg/session"
)

// Assistant is the service surface the transport layer consumes. One
// instance is constructed at process start and shared by all requests.
type Assistant struct {
	catalog    *catalog.Catalog
	sessions   session.Store
	retriever  retrieval.Retriever
	generator  llm.Generator
	translator *llm.Translator
	gate       *safety.Gate
	logger     zerolog.Logger

	topK          int
	maxInputChars int
}

// Options wires the assistant's collaborators.
type Options struct {
	Catalog   *catalog.Catalog
	Sessions  session.Store
	Retriever retrieval.Retriever
	Generator llm.Generator
	Gate      *safety.Gate
	Logger    zerolog.Logger

	// TopK is the retrieval depth (default 3).
	TopK int
	// MaxInputChars bounds user messages (default 1000).
	MaxInputChars int
}

// New assembles an assistant.
func New(opts Options) *Assistant {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = 1000
	}
	return &Assistant{
		catalog:       opts.Catalog,
		sessions:      opts.Sessions,
		retriever:     opts.Retriever,
		generator:     opts.Generator,
		translator:    llm.NewTranslator(opts.Generator),
		gate:          opts.Gate,
		logger:        opts.Logger,
		topK:          opts.TopK,
		maxInputChars: opts.MaxInputChars,
	}
}

// Reply is the terminal result of one processed message.
type Reply struct {
	Response     string        `json:"response"`
	Language     lang.Language `json:"language_detected"`
	MessageCount int           `json:"message_count"`
	Strategy     Strategy      `json:"strategy"`
}

// CreateSession starts a new conversation.
func (a *Assistant) CreateSession(ctx context.Context) (string, error) {
	return a.sessions.Create(ctx)
}

// History returns the retained messages of a session.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]session.Message, error) {
	msgs, err := a.sessions.History(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	return msgs, err
}

// DeleteSession removes a session.
func (a *Assistant) DeleteSession(ctx context.Context, sessionID string) error {
	err := a.sessions.Delete(ctx, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// Stats summarizes the live sessions.
func (a *Assistant) Stats(ctx context.Context) (session.Stats, error) {
	stats, err := a.sessions.Stats(ctx)
	if err == nil {
		observability.SetActiveSessions(stats.ActiveSessions)
	}
	return stats, err
}

// Translate converts between the two supported languages: Roman Urdu
// input comes back in English, anything else in Roman Urdu.
func (a *Assistant) Translate(ctx context.Context, text string) (string, lang.Language, error) {
	var (
		out      string
		err      error
		detected = lang.Detect(text)
	)
	if detected == lang.RomanUrdu {
		out, err = a.translator.ToEnglish(ctx, text)
	} else {
		out, err = a.translator.ToRomanUrdu(ctx, text)
	}
	if err != nil {
		return "", detected, collaboratorErr("translate", err)
	}
	return out, detected, nil
}

// SessionInfo describes one live session.
type SessionInfo struct {
	SessionID    string     `json:"session_id"`
	MessageCount int        `json:"message_count"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// Info reports the message count and last activity of a session.
func (a *Assistant) Info(ctx context.Context, sessionID string) (*SessionInfo, error) {
	msgs, err := a.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	info := &SessionInfo{SessionID: sessionID, MessageCount: len(msgs)}
	if len(msgs) > 0 {
		info.LastActivity = &msgs[len(msgs)-1].Timestamp
	}
	return info, nil
}

// SendMessage processes a message and returns the complete response.
func (a *Assistant) SendMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	stream, err := a.StreamMessage(ctx, sessionID, text)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	for {
		if _, err := stream.Recv(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return stream.Final(ctx)
}

// StreamMessage validates, gates, routes and returns the chunk stream
// for a message. The caller drains it and calls Final to commit the
// exchange; abandoning the stream (disconnect) commits nothing further.
func (a *Assistant) StreamMessage(ctx context.Context, sessionID, text string) (*MessageStream, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > a.maxInputChars {
		return nil, ErrValidation
	}

	// The session must exist before anything is routed or mutated.
	if _, err := a.sessions.History(ctx, sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	language := lang.Detect(trimmed)

	if report := a.gate.Scan(trimmed); !report.Passed {
		for _, r := range report.Results {
			if !r.Passed {
				observability.RecordSafetyRejection(r.Scanner)
				a.logger.Warn().Str("scanner", r.Scanner).Str("session", sessionID).
					Msg("message rejected by safety scan")
			}
		}
		// A declined message is never logged as a real exchange.
		return &MessageStream{
			assistant: a,
			ctx:       ctx,
			sessionID: sessionID,
			language:  language,
			strategy:  StrategySafety,
			stream:    llm.NewSimulatedStream(safetyDeclined, "stop", simulatedChunkSize),
			skipLog:   true,
			started:   time.Now(),
		}, nil
	}

	memory, err := a.promptMemory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := a.sessions.Append(ctx, sessionID, session.Message{Role: session.RoleUser, Content: trimmed}); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	result, err := a.route(ctx, trimmed, memory)
	if err != nil {
		observability.RecordChatMessage(string(StrategyRetrieval), string(language), "error")
		return nil, err
	}

	a.logger.Debug().Str("session", sessionID).Str("strategy", string(result.strategy)).
		Str("language", string(language)).Msg("message routed")

	return &MessageStream{
		assistant: a,
		ctx:       ctx,
		sessionID: sessionID,
		language:  language,
		strategy:  result.strategy,
		stream:    result.stream,
		started:   time.Now(),
	}, nil
}

// promptMemory returns the context-window messages as generator input.
func (a *Assistant) promptMemory(ctx context.Context, sessionID string) ([]llm.Message, error) {
	window, err := a.sessions.Window(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	memory := make([]llm.Message, len(window))
	for i, msg := range window {
		memory[i] = llm.Message{Role: string(msg.Role), Content: msg.Content}
	}
	return memory, nil
}

// MessageStream is the lazy, finite chunk sequence for one message.
// Recv yields chunks until io.EOF; a cancelled request context surfaces
// as an error from Recv and stops the stream without committing.
type MessageStream struct {
	assistant *Assistant
	ctx       context.Context
	sessionID string
	language  lang.Language
	strategy  Strategy
	stream    llm.Stream
	skipLog   bool
	started   time.Time

	collected strings.Builder
	done      bool
	failed    bool
}

// Strategy reports the routed strategy.
func (m *MessageStream) Strategy() Strategy { return m.strategy }

// Language reports the detected language.
func (m *MessageStream) Language() lang.Language { return m.language }

// Recv returns the next chunk, accumulating the full text for session
// logging.
func (m *MessageStream) Recv() (*llm.StreamChunk, error) {
	// Deterministic streams never block on the context, so the request
	// context is checked here to keep cancellation cooperative on every
	// path.
	if err := m.ctx.Err(); err != nil {
		m.failed = true
		return nil, err
	}
	chunk, err := m.stream.Recv()
	if err != nil {
		if err == io.EOF {
			m.done = true
			if m.strategy == StrategyRetrieval {
				observability.RecordGeneration(time.Since(m.started))
			}
			return nil, io.EOF
		}
		m.failed = true
		return nil, collaboratorErr("stream", err)
	}
	m.collected.WriteString(chunk.Delta)
	observability.RecordStreamChunk()
	return chunk, nil
}

// Final commits the assistant message and returns the terminal reply.
// Nothing is committed after a failed or abandoned stream.
func (m *MessageStream) Final(ctx context.Context) (*Reply, error) {
	if !m.done || m.failed {
		return nil, collaboratorErr("stream", errors.New("stream did not complete"))
	}

	response := m.collected.String()
	count := 0
	if !m.skipLog {
		err := m.assistant.sessions.Append(ctx, m.sessionID,
			session.Message{Role: session.RoleAssistant, Content: response})
		if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			return nil, err
		}
		if history, err := m.assistant.sessions.History(ctx, m.sessionID); err == nil {
			count = len(history)
		}
	}

	observability.RecordChatMessage(string(m.strategy), string(m.language), "ok")
	return &Reply{
		Response:     response,
		Language:     m.language,
		MessageCount: count,
		Strategy:     m.strategy,
	}, nil
}

// Close releases the underlying stream.
func (m *MessageStream) Close() error {
	return m.stream.Close()
}
