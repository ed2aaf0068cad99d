// Package speech delivers recognized-text events from a line stream or a
// websocket recognizer.
package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event is one recognition result. Partial events may be superseded by a
// later final event for the same utterance.
type Event struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// parseLine decodes one JSON event. Anything that is not a JSON object is
// taken as final recognized text.
func parseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}
	if strings.HasPrefix(line, "{") {
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err == nil {
			return ev, true
		}
	}
	return Event{Text: line, IsFinal: true}, true
}

// ReadJSONLines sends one event per non-blank line of r to out until r is
// exhausted or ctx is done. It does not close out.
func ReadJSONLines(ctx context.Context, r io.Reader, out chan<- Event) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ev, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read speech events: %w", err)
	}
	return nil
}
