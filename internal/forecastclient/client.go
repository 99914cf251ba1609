// Package forecastclient fetches and normalizes forecasts for a Selection,
// keeping only the result of the most recent submission.
package forecastclient

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
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cor0nius/meteomap/internal/forecast"
	"github.com/cor0nius/meteomap/internal/selection"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	forecastPath = "/weather/previsao"
	maxBodyBytes = 4 << 20
)

// State is the phase of the current fetch.
type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
	Success State = "success"
	Failure State = "failure"
)

// SourceMeta describes the request that produced a successful outcome.
type SourceMeta struct {
	RequestID uuid.UUID        `json:"requestId"`
	URL       string           `json:"url"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Duration  time.Duration    `json:"duration"`
	RowCount  int              `json:"rowCount"`
	Inputs    *forecast.Inputs `json:"inputs,omitempty"`
}

// Outcome is a snapshot of the client's state. Rows, Summary and Meta are
// set only on Success; Err only on Failure.
type Outcome struct {
	State     State
	Selection *selection.Selection
	Rows      []forecast.Row
	Summary   forecast.Summary
	Meta      *SourceMeta
	Err       error
	Seq       uint64
}

// Observer receives fetch telemetry. Only results that are applied are
// reported to ObserveFetch.
type Observer interface {
	ObserveFetch(kind Kind, elapsed time.Duration)
	ObserveStale()
}

type noopObserver struct{}

func (noopObserver) ObserveFetch(Kind, time.Duration) {}
func (noopObserver) ObserveStale()                    {}

// Client owns a single forecast request lifecycle at a time. Each Submit
// takes a new sequence number; a response is applied only if no later
// Submit or Reset happened while it was in flight.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer

	mu      sync.Mutex
	seq     uint64
	outcome Outcome
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

func New(baseURL string, httpClient *http.Client, logger *slog.Logger, observer Observer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		observer:   observer,
		outcome:    Outcome{State: Idle},
	}
}

// Submit starts fetching the forecast for sel and returns immediately.
// Submitting the selection that is already loading or loaded does nothing.
func (c *Client) Submit(sel selection.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.outcome
	if cur.Selection != nil && cur.Selection.Same(sel) && (cur.State == Loading || cur.State == Success) {
		c.logger.Debug("forecast already requested for selection", "seq", cur.Seq)
		return
	}
	c.submitLocked(sel)
}

// Retry re-submits the selection of a failed outcome.
func (c *Client) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome.State != Failure || c.outcome.Selection == nil {
		return ErrNothingToRetry
	}
	c.submitLocked(*c.outcome.Selection)
	return nil
}

// Reset returns the client to Idle. Any request in flight is cancelled and
// its result discarded.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.stopLocked()
	c.outcome = Outcome{State: Idle, Seq: c.seq}
}

// Outcome returns the current state.
func (c *Client) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Wait blocks until every started fetch goroutine has returned.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) submitLocked(sel selection.Selection) {
	c.seq++
	seq := c.seq
	c.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.outcome = Outcome{State: Loading, Selection: &sel, Seq: seq}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		start := time.Now()
		rows, summary, meta, err := c.fetch(ctx, sel)
		c.apply(seq, sel, rows, summary, meta, err, time.Since(start))
	}()
}

func (c *Client) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Client) apply(seq uint64, sel selection.Selection, rows []forecast.Row, summary forecast.Summary, meta *SourceMeta, err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("discarding stale forecast result", "seq", seq, "current", c.seq)
		c.observer.ObserveStale()
		return
	}
	c.stopLocked()

	kind := KindOf(err)
	c.observer.ObserveFetch(kind, elapsed)
	if err != nil {
		c.logger.Warn("forecast fetch failed", "seq", seq, "kind", string(kind), "error", err, "cause", errors.Unwrap(err))
		c.outcome = Outcome{State: Failure, Selection: &sel, Err: err, Seq: seq}
		return
	}
	c.logger.Info("forecast loaded", "seq", seq, "rows", len(rows), "duration", elapsed.String())
	c.outcome = Outcome{State: Success, Selection: &sel, Rows: rows, Summary: summary, Meta: meta, Seq: seq}
}

func (c *Client) fetch(ctx context.Context, sel selection.Selection) ([]forecast.Row, forecast.Summary, *SourceMeta, error) {
	reqURL, err := BuildURL(c.baseURL, sel)
	if err != nil {
		return nil, forecast.Summary{}, nil, &NetworkError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, forecast.Summary{}, nil, &NetworkError{Err: err}
	}
	req.Header.Set("ngrok-skip-browser-warning", "true")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, forecast.Summary{}, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, forecast.Summary{}, nil, &HTTPError{
			StatusCode:  resp.StatusCode,
			Status:      resp.Status,
			BodyPreview: preview(body),
		}
	}
	if err != nil {
		return nil, forecast.Summary{}, nil, &NetworkError{Err: err}
	}
	if len(body) > maxBodyBytes {
		return nil, forecast.Summary{}, nil, &MalformedJSONError{
			Err: fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, maxBodyBytes),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return nil, forecast.Summary{}, nil, &ContentTypeError{
			ContentType: contentType,
			Detected:    mimetype.Detect(body).String(),
		}
	}

	payload, err := decodePayload(body)
	if err != nil {
		return nil, forecast.Summary{}, nil, &MalformedJSONError{Err: err}
	}

	rows := forecast.DeriveRows(payload)
	summary := forecast.DeriveSummary(payload, rows)
	meta := &SourceMeta{
		RequestID: uuid.New(),
		URL:       reqURL,
		FetchedAt: started.UTC(),
		Duration:  time.Since(started),
		RowCount:  len(rows),
	}
	if in, ok := forecast.ExtractInputs(payload); ok {
		meta.Inputs = &in
	}
	return rows, summary, meta, nil
}

func decodePayload(body []byte) (forecast.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload forecast.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return payload, nil
}

// BuildURL returns the forecast URL for sel under base.
func BuildURL(base string, sel selection.Selection) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + forecastPath)
	if err != nil {
		return "", fmt.Errorf("failed to parse forecast base URL: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(sel.Coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(sel.Coords.Lng, 'f', -1, 64))
	q.Set("day", strconv.Itoa(sel.Date.Day))
	q.Set("month", strconv.Itoa(sel.Date.Month))
	q.Set("year", strconv.Itoa(sel.Date.Year))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
