package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/neurocore/internal/buffer"
	"github.com/gorilla/websocket"
)

// #region websocket-source

// WebsocketSource reads JSON frames from an EEG streaming endpoint.
type WebsocketSource struct {
	conn *websocket.Conn
}

// DialWebsocket connects to a streaming endpoint, e.g. ws://host:port/eeg.
func DialWebsocket(ctx context.Context, url string) (*WebsocketSource, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	log.Printf("[INGEST] connected to %s", url)
	return &WebsocketSource{conn: conn}, nil
}

// Next blocks for the next frame. Malformed frames are returned as errors
// for the caller's rejected-tick handling, never skipped silently.
func (w *WebsocketSource) Next(ctx context.Context) (*buffer.Buffer, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := w.conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	} else {
		// Clear any previous deadline.
		if err := w.conn.SetReadDeadline(time.Time{}); err != nil {
			return nil, fmt.Errorf("clear read deadline: %w", err)
		}
	}

	var frame Frame
	if err := w.conn.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame.ToBuffer()
}

// Close closes the connection.
func (w *WebsocketSource) Close() error {
	return w.conn.Close()
}

// #endregion websocket-source
