package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/genai"
)

const (
	audioInMIMEType = "audio/pcm;rate=16000"
	videoMIMEType   = "image/jpeg"
)

// GeminiConfig carries everything needed to open live sessions.
type GeminiConfig struct {
	APIKey string
	Model  string
	Live   *genai.LiveConnectConfig
}

// GeminiConnector opens Gemini Live sessions over the genai SDK.
type GeminiConnector struct {
	client *genai.Client
	model  string
	live   *genai.LiveConnectConfig
	log    *slog.Logger
}

func NewGeminiConnector(ctx context.Context, cfg GeminiConfig, log *slog.Logger) (*GeminiConnector, error) {
	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiConnector{
		client: client,
		model:  cfg.Model,
		live:   cfg.Live,
		log:    log.With("component", "gemini"),
	}, nil
}

func (g *GeminiConnector) Connect(ctx context.Context, sessionID string) (Session, error) {
	raw, err := g.client.Live.Connect(ctx, g.model, g.live)
	if err != nil {
		return nil, fmt.Errorf("connect live session: %w", err)
	}

	s := &geminiSession{
		raw:    raw,
		events: make(chan Event),
		done:   make(chan struct{}),
		log:    g.log.With("session_id", sessionID),
	}
	go s.pump()

	g.log.Info("live session opened", "session_id", sessionID, "model", g.model)
	return s, nil
}

type geminiSession struct {
	raw    *genai.Session
	events chan Event
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error

	mu  sync.Mutex
	err error

	log *slog.Logger
}

func (s *geminiSession) SendAudio(pcm []byte) error {
	return s.raw.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: pcm, MIMEType: audioInMIMEType},
	})
}

func (s *geminiSession) SendVideoFrame(jpeg []byte) error {
	return s.raw.SendRealtimeInput(genai.LiveRealtimeInput{
		Video: &genai.Blob{Data: jpeg, MIMEType: videoMIMEType},
	})
}

func (s *geminiSession) SendToolResult(id, name string, result map[string]any) error {
	return s.raw.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:       id,
			Name:     name,
			Response: result,
		}},
	})
}

func (s *geminiSession) Events() <-chan Event {
	return s.events
}

func (s *geminiSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *geminiSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.raw.Close()
		s.log.Info("live session closed")
	})
	return s.closeErr
}

// pump reads server messages until the stream ends and fans the decoded
// events to the consumer. A receive error after Close is the expected
// teardown path, not a stream failure.
func (s *geminiSession) pump() {
	defer close(s.events)

	for {
		msg, err := s.raw.Receive()
		if err != nil {
			select {
			case <-s.done:
			default:
				if !isStreamEnd(err) {
					s.mu.Lock()
					s.err = err
					s.mu.Unlock()
				}
			}
			return
		}

		for _, ev := range DecodeServerMessage(msg) {
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func isStreamEnd(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
