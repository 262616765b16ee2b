// Package sheets downloads tabs of a published spreadsheet as CSV.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/Sirkin25/sirkin-dashboard-sub000/internal/errors"
	"github.com/Sirkin25/sirkin-dashboard-sub000/internal/logging"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public spreadsheet endpoint.
	DefaultBaseURL = "https://docs.google.com/spreadsheets/d"
	// DefaultRequestsPerSecond keeps well under the public endpoint's quota.
	DefaultRequestsPerSecond = 2.0
	// DefaultBurst lets one tab's operations start together.
	DefaultBurst = 4

	maxBodyBytes = 8 << 20
)

var (
	// ErrHTTPStatus is wrapped when a source answers with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrEmptySheet is wrapped when a source returns no rows.
	ErrEmptySheet = errors.New("sheet is empty")
	// ErrNoSource is wrapped when every source failed.
	ErrNoSource = errors.New("no source returned the sheet")
	// ErrNoSheetID is returned when the client has no spreadsheet configured.
	ErrNoSheetID = errors.New("sheet id not configured")
	// ErrBodyTooLarge is wrapped when a source returns more than the body limit.
	ErrBodyTooLarge = errors.New("sheet body too large")
)

// Source builds the download URL for one endpoint flavour.
type Source struct {
	Name string
	URL  func(baseURL, sheetID, sheet string) string
}

// DefaultSources tries the visualization CSV endpoint first and falls back
// to the export endpoint.
func DefaultSources() []Source {
	return []Source{
		{
			Name: "gviz",
			URL: func(baseURL, sheetID, sheet string) string {
				return fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv&sheet=%s", baseURL, sheetID, url.QueryEscape(sheet))
			},
		},
		{
			Name: "export",
			URL: func(baseURL, sheetID, sheet string) string {
				return fmt.Sprintf("%s/%s/export?format=csv&sheet=%s", baseURL, sheetID, url.QueryEscape(sheet))
			},
		},
	}
}

// Config configures a Client.
type Config struct {
	BaseURL           string
	SheetID           string
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Sources           []Source
	Logger            logging.Logger
}

// Client fetches sheets through a rate limiter.
type Client struct {
	baseURL string
	sheetID string
	http    *http.Client
	limiter *rate.Limiter
	sources []Source
	logger  logging.Logger
}

// NewClient creates a Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		sheetID: cfg.SheetID,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sources: cfg.Sources,
		logger:  cfg.Logger,
	}
}

// Host returns the scheme and host of the base URL, used for connectivity
// probes.
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}

// FetchSheet downloads the named sheet and returns its rows. Sources are
// tried in order; the first one that yields rows wins.
func (c *Client) FetchSheet(ctx context.Context, sheet string) ([][]string, error) {
	if c.sheetID == "" {
		return nil, apperrors.WithHint(ErrNoSheetID, "set sheet_id in config.toml or SIRKIN_SHEET_ID")
	}
	var lastErr error
	for _, src := range c.sources {
		rows, err := c.fetch(ctx, src, sheet)
		if err == nil {
			return rows, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("sheet source failed", "source", src.Name, "tab", sheet, "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrNoSource, sheet, lastErr)
}

func (c *Client) fetch(ctx context.Context, src Source, sheet string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL(c.baseURL, c.sheetID, sheet), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", src.Name, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, src.Name, resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, apperrors.WithHint(err, "publish the spreadsheet or share it with anyone who has the link")
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", src.Name, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, src.Name, maxBodyBytes)
	}
	rows, err := ParseCSV(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, src.Name)
	}
	return rows, nil
}

// ParseCSV decodes CSV data, dropping a UTF-8 byte order mark and rows whose
// cells are all blank. Rows may have differing lengths.
func ParseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if blank(rec) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
