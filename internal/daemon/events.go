package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/labrunner/internal/config"
	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
)

// RunEventMessage is the JSON envelope published per lifecycle event.
type RunEventMessage struct {
	RunID     string          `json:"run_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NATSPublisher forwards run lifecycle events to a JetStream stream. It
// plugs into the history emitter as a sink, so every persisted event is
// also published.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to NATS and ensures the configured stream exists.
func NewNATSPublisher(cfg *config.NATSConfig) (*NATSPublisher, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New(errors.CategoryConfig, errors.SeverityFatal, "nats url is required")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryNetwork, errors.SeverityFatal, "failed to connect to NATS").
			WithContext("url", cfg.URL)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, errors.CategoryNetwork, errors.SeverityFatal, "failed to create JetStream context")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject + ".>"},
	}); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, errors.CategoryNetwork, errors.SeverityFatal, "failed to ensure event stream").
			WithContext("stream", cfg.Stream)
	}

	slog.Info("NATS publisher connected",
		slog.String("url", cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// Forward implements history.Sink. Publish failures are logged, never
// propagated: external eventing must not fail runs.
func (p *NATSPublisher) Forward(event history.Event) {
	msg := RunEventMessage{
		RunID:     event.RunID(),
		Type:      event.Type(),
		Timestamp: event.Timestamp(),
		Payload:   json.RawMessage(event.Payload()),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("Failed to marshal run event", logfields.RunID(event.RunID()), logfields.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(ctx, p.subjectFor(event), data); err != nil {
		slog.Warn("Failed to publish run event",
			logfields.RunID(event.RunID()),
			slog.String("type", event.Type()),
			logfields.Error(err))
		return
	}

	slog.Debug("Published run event", logfields.RunID(event.RunID()), slog.String("type", event.Type()))
}

// subjectFor maps run.completed to <prefix>.completed and so on.
func (p *NATSPublisher) subjectFor(event history.Event) string {
	t := event.Type()
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	return p.subject + "." + t
}

// Connected reports whether the NATS connection is up.
func (p *NATSPublisher) Connected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

var _ history.Sink = (*NATSPublisher)(nil)
