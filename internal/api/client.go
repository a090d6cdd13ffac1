package api

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"biblia-tui/internal/logging"
)

const (
	defaultTimeout = 15 * time.Second

	// errorBodyLimit caps how much of a failed response is kept in StatusError.
	errorBodyLimit = 512

	opBooks     = "books"
	opChapters  = "chapters"
	opVerses    = "verses"
	opVerseText = "verse_text"
)

// Content is the read-only surface of the Bible content provider.
type Content interface {
	ListBooks(ctx context.Context) (Envelope[[]Book], error)
	ListChapters(ctx context.Context, bookID string) (Envelope[[]Chapter], error)
	ListVerses(ctx context.Context, chapterID string) (Envelope[[]Verse], error)
	GetVerseText(ctx context.Context, verseID string) (Envelope[VerseContent], error)
}

// Envelope is the {"data": ...} wrapper every provider response uses.
type Envelope[T any] struct {
	Data T `json:"data"`
}

type Book struct {
	ID           string `json:"id"`
	BibleID      string `json:"bibleId,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Name         string `json:"name"`
	NameLong     string `json:"nameLong,omitempty"`
}

type Chapter struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId,omitempty"`
	Number    string `json:"number,omitempty"`
	Reference string `json:"reference"`
}

type Verse struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId,omitempty"`
	ChapterID string `json:"chapterId,omitempty"`
	Reference string `json:"reference"`
}

// VerseContent carries the verse body as an HTML fragment.
type VerseContent struct {
	ID        string `json:"id"`
	Reference string `json:"reference,omitempty"`
	Content   string `json:"content"`
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bibleID    string
	timeout    time.Duration
	metrics    *Metrics
	log        zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is not
// modified; a timeout set with WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(baseURL, apiKey, bibleID string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bibleID: bibleID,
		log:     logging.Component("api"),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		c.httpClient = &http.Client{Timeout: cmp.Or(c.timeout, defaultTimeout)}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

func (c *Client) ListBooks(ctx context.Context) (Envelope[[]Book], error) {
	return get[[]Book](ctx, c, opBooks, c.biblePath("books"))
}

func (c *Client) ListChapters(ctx context.Context, bookID string) (Envelope[[]Chapter], error) {
	return get[[]Chapter](ctx, c, opChapters, c.biblePath("books", bookID, "chapters"))
}

func (c *Client) ListVerses(ctx context.Context, chapterID string) (Envelope[[]Verse], error) {
	return get[[]Verse](ctx, c, opVerses, c.biblePath("chapters", chapterID, "verses"))
}

func (c *Client) GetVerseText(ctx context.Context, verseID string) (Envelope[VerseContent], error) {
	return get[VerseContent](ctx, c, opVerseText, c.biblePath("verses", verseID))
}

// biblePath builds /bibles/{id}/<segments...> with every segment escaped.
func (c *Client) biblePath(segments ...string) string {
	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, "bibles", url.PathEscape(c.bibleID))
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return "/" + strings.Join(parts, "/")
}

func get[T any](ctx context.Context, c *Client, op, path string) (Envelope[T], error) {
	var out Envelope[T]

	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return out, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(op, 0, time.Since(started))
		c.log.Warn().Err(err).Str("op", op).Str("request_id", reqID).Msg("request failed")
		return out, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.metrics.observe(op, resp.StatusCode, time.Since(started))
	c.log.Debug().
		Str("op", op).
		Str("path", path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return out, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("%s: decode response: %w", op, err)
	}

	return out, nil
}
