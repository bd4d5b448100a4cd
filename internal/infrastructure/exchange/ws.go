// Package exchange provides the shared websocket plumbing used by every
// connector: dialing, the read loop with liveness pings, and the reconnect
// loop with bounded exponential backoff.
package exchange

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	dialTimeout  = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 20 * time.Second
	writeTimeout = 5 * time.Second

	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// Ping configures session keep-alive. A nil Message sends websocket control
// pings; otherwise the returned payload is sent as a text frame, for
// exchanges that expect an application-level ping.
type Ping struct {
	Message  func() []byte
	Interval time.Duration
}

// Dial opens a websocket connection with a bounded timeout.
func Dial(ctx context.Context, url string) (*websocket.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dctx, url, nil)
	return conn, err
}

// Run drives one connector forever: it calls session, waits out a backoff
// delay when it returns, and redials. session must call ready once the
// subscription is live; that resets the backoff. Run returns only when ctx is
// canceled.
func Run(ctx context.Context, name string, session func(ctx context.Context, ready func()) error) {
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Warn().Str("feed", name).Msg("ws connecting")
		err := session(ctx, func() {
			backoff = initialBackoff
			log.Info().Str("feed", name).Msg("ws connected & subscribed")
		})

		if ctx.Err() != nil {
			return
		}
		log.Warn().Str("feed", name).Err(err).Msg("ws disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = minDur(backoff*2, maxBackoff)
	}
}

// ReadLoop reads frames until the connection breaks or ctx is canceled,
// sending keep-alive pings on the side. onMsg must not block. ReadLoop
// returns only after the reader goroutine has exited, so onMsg is never
// called again after ReadLoop returns and callers may close the channels
// onMsg writes to.
func ReadLoop(ctx context.Context, conn *websocket.Conn, ping Ping, onMsg func([]byte)) error {
	if ping.Interval <= 0 {
		ping.Interval = pingInterval
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(ping.Interval)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			onMsg(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// unblock ReadMessage, then wait for the reader to finish
			// so no in-flight frame is delivered after we return
			_ = conn.Close()
			<-errCh
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			if ping.Message != nil {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = conn.WriteMessage(websocket.TextMessage, ping.Message())
			} else {
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout))
			}
		}
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
