// Package realtime relays live voice sessions between a browser and the
// OpenAI realtime API.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/edufinance/internal/infrastructure/metrics"
)

const (
	DefaultURL          = "wss://api.openai.com/v1/realtime"
	DefaultModel        = "gpt-4o-realtime-preview"
	DefaultVoice        = "alloy"
	DefaultInstructions = "You are a helpful financial assistant for school administrators."

	eventSessionUpdate = "session.update"
	eventAudioAppend   = "input_audio_buffer.append"
	eventAudioDelta    = "response.audio.delta"

	dialTimeout = 10 * time.Second
)

// Config configures a Relay.
type Config struct {
	APIKey       string
	URL          string
	Model        string
	Voice        string
	Instructions string
	Metrics      *metrics.Metrics // optional
	Logger       zerolog.Logger
}

// Relay is an http.Handler that upgrades the client connection and pipes
// it to an upstream realtime session. Binary client frames are PCM audio
// chunks; binary frames sent back are audio deltas. Everything else is
// forwarded as JSON text.
type Relay struct {
	cfg      Config
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
}

// NewRelay creates a new Relay.
func NewRelay(cfg Config) *Relay {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Instructions == "" {
		cfg.Instructions = DefaultInstructions
	}

	return &Relay{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: dialTimeout,
			Proxy:            http.ProxyFromEnvironment,
		},
	}
}

type event struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
	Audio string `json:"audio,omitempty"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities   []string `json:"modalities"`
	Instructions string   `json:"instructions"`
	Voice        string   `json:"voice"`
}

// ServeHTTP implements http.Handler.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	logger := r.cfg.Logger.With().Str("component", "voice_relay").Logger()

	upstream, err := r.dialUpstream(req.Context())
	if err != nil {
		logger.Error().Err(err).Msg("failed to open upstream voice session")
		http.Error(w, `{"error":"request failed"}`, http.StatusBadGateway)
		return
	}
	defer upstream.Close()

	client, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer client.Close()

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.VoiceSessions.Inc()
		defer r.cfg.Metrics.VoiceSessions.Dec()
	}

	logger.Info().Msg("voice session opened")

	if err := r.relay(req.Context(), client, upstream); err != nil && !isClosure(err) {
		logger.Warn().Err(err).Msg("voice session ended with error")
		return
	}

	logger.Info().Msg("voice session closed")
}

func (r *Relay) dialUpstream(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(r.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("model", r.cfg.Model)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := r.dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial realtime api: %w", err)
	}

	update := sessionUpdate{
		Type: eventSessionUpdate,
		Session: sessionConfig{
			Modalities:   []string{"audio", "text"},
			Instructions: r.cfg.Instructions,
			Voice:        r.cfg.Voice,
		},
	}
	if err := conn.WriteJSON(update); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("configure session: %w", err)
	}

	return conn, nil
}

// relay pumps frames both ways until either side goes away. Each connection
// has exactly one writer goroutine.
func (r *Relay) relay(ctx context.Context, client, upstream *websocket.Conn) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return clientToUpstream(client, upstream)
	})
	g.Go(func() error {
		return upstreamToClient(upstream, client)
	})
	g.Go(func() error {
		<-ctx.Done()
		_ = client.Close()
		_ = upstream.Close()
		return nil
	})

	return g.Wait()
}

func clientToUpstream(client, upstream *websocket.Conn) error {
	for {
		kind, data, err := client.ReadMessage()
		if err != nil {
			return err
		}

		if kind == websocket.BinaryMessage {
			data, err = json.Marshal(event{
				Type:  eventAudioAppend,
				Audio: base64.StdEncoding.EncodeToString(data),
			})
			if err != nil {
				return err
			}
		}

		if err := upstream.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
}

func upstreamToClient(upstream, client *websocket.Conn) error {
	for {
		_, data, err := upstream.ReadMessage()
		if err != nil {
			return err
		}

		var ev event
		if json.Unmarshal(data, &ev) == nil && ev.Type == eventAudioDelta {
			audio, err := base64.StdEncoding.DecodeString(ev.Delta)
			if err != nil {
				return fmt.Errorf("decode audio delta: %w", err)
			}
			if err := client.WriteMessage(websocket.BinaryMessage, audio); err != nil {
				return err
			}
			continue
		}

		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			return err
		}
	}
}

func isClosure(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
