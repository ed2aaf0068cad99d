// Package upload shares reading position and progress with a remote service.
// Every call is best effort: failures are logged and never reach the ledger.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bible365/bible365/internal/bible"
	"github.com/bible365/bible365/internal/model"
)

const defaultTimeout = 10 * time.Second

// ErrUnauthorized is returned for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.Code)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	UserID  string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client posts progress in background goroutines.
type Client struct {
	base   *url.URL
	token  string
	userID string
	http   *http.Client
	log    *slog.Logger
	wg     sync.WaitGroup
}

// New validates the base URL and returns a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("upload base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid upload base url %q", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:   base,
		token:  opts.Token,
		userID: opts.UserID,
		http:   hc,
		log:    logger.With("component", "upload"),
	}, nil
}

type lastReadRequest struct {
	VerseID  string `json:"verseId"`
	Mode     string `json:"mode"`
	TeamID   *int   `json:"teamId"`
	TeamName string `json:"teamName,omitempty"`
}

type progressRequest struct {
	Mode            string  `json:"mode"`
	TeamID          *int    `json:"teamId"`
	CompletionCount int     `json:"completionCount"`
	Progress        float64 `json:"progress"`
}

type bookFinishedRequest struct {
	TeamID    int `json:"teamId"`
	BookIndex int `json:"bookIndex"`
}

func teamFields(mode model.Mode) (*int, string) {
	id, ok := model.TeamID(mode)
	if !ok {
		return nil, ""
	}
	return &id, model.ModeDisplayName(mode)
}

// NotifyLastRead records the verse currently shown.
func (c *Client) NotifyLastRead(mode model.Mode, verseID string) {
	teamID, teamName := teamFields(mode)
	body := lastReadRequest{
		VerseID:  verseID,
		Mode:     model.ModeString(mode),
		TeamID:   teamID,
		TeamName: teamName,
	}
	c.goLogged("last-read", func(ctx context.Context) error {
		return c.post(ctx, "/api/bible/last-read", nil, body, true)
	})
}

// NotifyProgress sends global progress and, in team mode, a finished book.
func (c *Client) NotifyProgress(mode model.Mode, report model.ProgressReport) {
	teamID, _ := teamFields(mode)
	progress := progressRequest{
		Mode:            model.ModeString(mode),
		TeamID:          teamID,
		CompletionCount: report.GlobalCompletionCount,
		Progress:        report.GlobalRatio,
	}
	var finished *bookFinishedRequest
	if teamID != nil && report.FinishedBook != "" {
		if b, ok := bible.BookByCode(report.FinishedBook); ok {
			finished = &bookFinishedRequest{TeamID: *teamID, BookIndex: b.Index}
		}
	}

	c.goLogged("progress", func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return c.post(gctx, "/api/bible/progress", nil, progress, true)
		})
		if finished != nil {
			g.Go(func() error {
				q := url.Values{"userId": []string{c.userID}}
				return c.post(gctx, "/api/team/progress/book-finished", q, finished, false)
			})
		}
		return g.Wait()
	})
}

// Wait blocks until every pending upload has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) goLogged(op string, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		err := fn(ctx)
		switch {
		case err == nil:
			c.log.Debug("upload ok", "op", op)
		case errors.Is(err, ErrUnauthorized):
			c.log.Warn("upload rejected, login required", "op", op)
		default:
			c.log.Warn("upload failed", "op", op, "err", err)
		}
	}()
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body any, auth bool) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close; response already consumed.
			_ = cerr
		}
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Path: path, Code: resp.StatusCode}
	}
	return nil
}
