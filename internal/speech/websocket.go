package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"
)

const maxMessageBytes = 1 << 20

// WSSource reads events from a recognizer speaking JSON text frames.
type WSSource struct {
	conn *websocket.Conn
}

// DialWebsocket connects to a recognizer at url.
func DialWebsocket(ctx context.Context, url string) (*WSSource, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial recognizer: %w", err)
	}
	conn.SetReadLimit(maxMessageBytes)
	return &WSSource{conn: conn}, nil
}

// Run forwards text frames to out until the peer closes normally or ctx is
// done. Binary frames are ignored. It does not close out.
func (s *WSSource) Run(ctx context.Context, out chan<- Event) error {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("failed to read recognizer frame: %w", err)
		}
		if typ != websocket.MessageText {
			continue
		}
		ev, ok := parseLine(string(data))
		if !ok {
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// Close ends the connection with a normal closure.
func (s *WSSource) Close() error {
	err := s.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close recognizer: %w", err)
	}
	return nil
}
