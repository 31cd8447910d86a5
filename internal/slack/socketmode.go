package slack

import (
	"context"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"
)

const (
	socketWriteTimeout = 10 * time.Second
	reconnectBase      = time.Second
	reconnectCap       = 30 * time.Second
)

// envelope is one socket mode frame from the source.
type envelope struct {
	Type       string          `json:"type"`
	EnvelopeID string          `json:"envelope_id"`
	Reason     string          `json:"reason"`
	Payload    json.RawMessage `json:"payload"`
}

type slashPayload struct {
	Command string `json:"command"`
	Text    string `json:"text"`
	UserID  string `json:"user_id"`
}

type ackFrame struct {
	EnvelopeID string `json:"envelope_id"`
	Payload    any    `json:"payload,omitempty"`
}

// SocketRunner serves slash commands over an outbound socket mode
// connection, for deployments that cannot expose an HTTP endpoint to the
// platform.
type SocketRunner struct {
	client *Client
	cmd    *Commander
	log    *slog.Logger
	dialer *websocket.Dialer
}

func NewSocketRunner(client *Client, cmd *Commander, log *slog.Logger) *SocketRunner {
	if log == nil {
		log = slog.Default()
	}
	return &SocketRunner{
		client: client,
		cmd:    cmd,
		log:    log,
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
	}
}

// Run connects and serves until ctx is cancelled. Dropped connections and
// server-initiated disconnects trigger a fresh dial with capped backoff;
// the backoff resets after any connection that lasted a while.
func (r *SocketRunner) Run(ctx context.Context) error {
	backoff := reconnectBase
	for {
		started := time.Now()
		err := r.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > time.Minute {
			backoff = reconnectBase
		}
		r.log.Warn("socket mode connection ended, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < reconnectCap {
			backoff *= 2
		}
	}
}

// runOnce serves a single connection. A nil return means the server asked
// for a reconnect.
func (r *SocketRunner) runOnce(ctx context.Context) error {
	wsURL, err := r.client.OpenSocketURL(ctx)
	if err != nil {
		return err
	}
	conn, resp, err := r.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return oops.With("url", wsURL).Wrap(err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Unblock the read loop when ctx dies.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return oops.Wrap(err)
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			r.log.Warn("unreadable socket frame", "error", err)
			continue
		}
		switch env.Type {
		case "hello":
			r.log.Info("socket mode connected")
		case "disconnect":
			r.log.Info("source asked for a reconnect", "reason", env.Reason)
			return nil
		case "slash_commands":
			r.handleSlash(ctx, conn, env)
		default:
			// Events we did not subscribe to still need an ack.
			if env.EnvelopeID != "" {
				r.ack(conn, env.EnvelopeID, nil)
			}
		}
	}
}

func (r *SocketRunner) handleSlash(ctx context.Context, conn *websocket.Conn, env envelope) {
	var p slashPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		r.log.Warn("unreadable slash payload", "error", err)
		r.ack(conn, env.EnvelopeID, nil)
		return
	}
	msg := r.cmd.Execute(ctx, p.UserID, p.Text)
	r.ack(conn, env.EnvelopeID, msg)
}

func (r *SocketRunner) ack(conn *websocket.Conn, envelopeID string, payload any) {
	conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
	if err := conn.WriteJSON(ackFrame{EnvelopeID: envelopeID, Payload: payload}); err != nil {
		r.log.Warn("socket ack failed", "error", err)
	}
}
