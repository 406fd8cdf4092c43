package api

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avolkov/paperstand/internal/logging"
	"github.com/gorilla/websocket"
)

// Frame types mirrored from the server.
const (
	FrameTypeStatusUpdate = "PAPER_STATUS_UPDATE"
	FrameTypeStatus       = "PAPER_STATUS"
	FrameTypeError        = "ERROR"
)

// Frame is one message on the realtime status channel. Status frames carry
// the paper fields at the top level; error frames carry only Message.
type Frame struct {
	Type         string    `json:"type"`
	PaperID      string    `json:"paperId"`
	Status       string    `json:"status"`
	Title        string    `json:"title"`
	ErrorMessage string    `json:"errorMessage"`
	LastUpdated  time.Time `json:"lastUpdated"`
	Message      string    `json:"message"`
}

type wsConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// dialFunc opens a websocket. The bool reports whether the handshake was
// rejected for authentication, which drives the token refresh path.
type dialFunc func(ctx context.Context, url string) (wsConn, bool, error)

func gorillaDial(ctx context.Context, wsURL string) (wsConn, bool, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		rejected := resp != nil && resp.StatusCode == http.StatusUnauthorized
		return nil, rejected, err
	}
	return conn, false, nil
}

// maxReconnectAttempts bounds one round of redialing. Exhausting a round
// earns a single token refresh and one more round; exhausting that one gives
// up for good.
const maxReconnectAttempts = 5

// Reconnect pacing. Vars so tests can shrink the waits.
var (
	initialReconnectDelay = time.Second
	maxReconnectDelay     = 30 * time.Second
)

// Listener maintains the realtime connection: it dials with the current
// access token, delivers frames to the callback, and reconnects with
// exponential backoff up to a fixed attempt cap. An auth-rejected handshake
// or an exhausted round gets exactly one token refresh attempt; if that does
// not help, the listener gives up and signals that the user must sign in
// again.
type Listener struct {
	client  *Client
	wsURL   string
	onFrame func(Frame)
	log     logging.Logger
	dial    dialFunc

	mu   sync.Mutex
	conn wsConn
}

func NewListener(client *Client, wsURL string, onFrame func(Frame), log logging.Logger) *Listener {
	return &Listener{
		client:  client,
		wsURL:   wsURL,
		onFrame: onFrame,
		log:     log,
		dial:    gorillaDial,
	}
}

// Run blocks until ctx is canceled or the session becomes unrecoverable.
func (l *Listener) Run(ctx context.Context) error {
	delay := initialReconnectDelay
	attempts := 0
	refreshed := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		access, _ := l.client.Tokens()
		conn, rejected, err := l.dial(ctx, l.wsURL+"?token="+url.QueryEscape(access))
		if err != nil {
			if rejected {
				if refreshed {
					l.client.clearTokens()
					l.client.authRequired()
					return err
				}
				if rErr := l.client.refreshAccessToken(ctx); rErr != nil {
					l.client.authRequired()
					return rErr
				}
				refreshed = true
				continue
			}

			attempts++
			if attempts >= maxReconnectAttempts {
				if refreshed {
					l.client.authRequired()
					return err
				}
				if rErr := l.client.refreshAccessToken(ctx); rErr != nil {
					l.client.authRequired()
					return rErr
				}
				refreshed = true
				attempts = 0
				delay = initialReconnectDelay
				continue
			}

			l.log.Warn(ctx, "websocket dial failed", "error", err, "retryIn", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnectDelay)
			continue
		}

		delay = initialReconnectDelay
		attempts = 0
		refreshed = false
		l.setConn(conn)

		l.readLoop(ctx, conn)

		l.setConn(nil)
		_ = conn.Close()
	}
}

func (l *Listener) readLoop(ctx context.Context, conn wsConn) {
	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil {
				l.log.Warn(ctx, "websocket connection lost", "error", err)
			}
			return
		}
		if l.onFrame != nil {
			l.onFrame(frame)
		}
	}
}

func (l *Listener) setConn(conn wsConn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn = conn
}

// RequestStatus asks the server for the paper's current state; the answer
// arrives as a frame on the regular callback. Silently dropped when the
// listener is between connections.
func (l *Listener) RequestStatus(paperID string) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.WriteJSON(map[string]string{
		"action":  "paperProcessStatus",
		"paperId": paperID,
	})
}
