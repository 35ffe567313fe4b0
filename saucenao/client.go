// Package saucenao is a client for the SauceNAO reverse image-search
// API. A single Client is safe for concurrent use; it tracks the
// account's rate-limit quota across calls and filters results by a
// configurable similarity threshold.
package saucenao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://saucenao.com"
	searchPath     = "/search.php"

	// output_type=2 selects the JSON reply format.
	outputTypeJSON = 2

	// MaxResults is the largest numres the API accepts.
	MaxResults = 999

	// Default account quota until the first response reports the real
	// numbers.
	defaultShortLimit = 12
	defaultLongLimit  = 200
)

// Config holds the construction-time settings for a Client. Everything
// here is fixed once the Client is built except MinSimilarity and
// EmptyFilter, which can be changed later through the setters.
type Config struct {
	// APIKey may be empty; anonymous searches get the reduced quota.
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// TestMode asks the API to cap results at one per index.
	TestMode bool

	// DB restricts the search to a single database index. Leave nil to
	// search everything (masks still apply).
	DB *uint32
	// DBMask lists indices to include; DBMaskI lists indices to
	// exclude. Both may be set at once.
	DBMask  []uint32
	DBMaskI []uint32

	// NumResults is the default result cap per search, at most 999.
	// Zero means 999.
	NumResults uint32

	// MinSimilarity drops results below this percentage, 0-100.
	MinSimilarity float64
	// EmptyFilter drops results that carry no external URLs.
	EmptyFilter bool
}

// Client talks to SauceNAO. All methods are safe to call from multiple
// goroutines; in-flight searches never block each other.
type Client struct {
	apiKey     string
	baseURL    string
	testMode   bool
	db         *uint32
	dbMask     []uint32
	dbMaskI    []uint32
	numResults uint32

	client *http.Client
	logger *zap.Logger

	shortLimit atomic.Uint32
	longLimit  atomic.Uint32
	shortLeft  atomic.Uint32
	longLeft   atomic.Uint32

	mu            sync.RWMutex
	minSimilarity float64
	emptyFilter   bool
}

// SearchOptions overrides the Client defaults for one call. Nil fields
// keep the configured defaults.
type SearchOptions struct {
	NumResults    *uint32
	MinSimilarity *float64
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.NumResults > MaxResults {
		return nil, fmt.Errorf("%w: num_results must be at most %d, got %d", ErrInvalidParameters, MaxResults, cfg.NumResults)
	}
	if cfg.MinSimilarity < 0 || cfg.MinSimilarity > 100 {
		return nil, fmt.Errorf("%w: min_similarity must be within 0-100, got %v", ErrInvalidParameters, cfg.MinSimilarity)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NumResults == 0 {
		cfg.NumResults = MaxResults
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		apiKey:        cfg.APIKey,
		baseURL:       cfg.BaseURL,
		testMode:      cfg.TestMode,
		db:            cfg.DB,
		dbMask:        cfg.DBMask,
		dbMaskI:       cfg.DBMaskI,
		numResults:    cfg.NumResults,
		client:        &http.Client{Timeout: cfg.Timeout},
		logger:        logger,
		minSimilarity: cfg.MinSimilarity,
		emptyFilter:   cfg.EmptyFilter,
	}
	c.shortLimit.Store(defaultShortLimit)
	c.longLimit.Store(defaultLongLimit)
	c.shortLeft.Store(defaultShortLimit)
	c.longLeft.Store(defaultLongLimit)

	return c, nil
}

// SetMinSimilarity changes the default similarity threshold for
// subsequent searches.
func (c *Client) SetMinSimilarity(v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: min_similarity must be within 0-100, got %v", ErrInvalidParameters, v)
	}
	c.mu.Lock()
	c.minSimilarity = v
	c.mu.Unlock()
	return nil
}

func (c *Client) MinSimilarity() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.minSimilarity
}

// SetEmptyFilter changes whether results without external URLs are
// dropped on subsequent searches.
func (c *Client) SetEmptyFilter(enabled bool) {
	c.mu.Lock()
	c.emptyFilter = enabled
	c.mu.Unlock()
}

func (c *Client) EmptyFilter() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.emptyFilter
}

// RateLimit returns the quota snapshot from the most recent successful
// response. Before any search completes it reports the anonymous
// defaults.
func (c *Client) RateLimit() RateLimit {
	return RateLimit{
		ShortLimit:     c.shortLimit.Load(),
		LongLimit:      c.longLimit.Load(),
		ShortRemaining: c.shortLeft.Load(),
		LongRemaining:  c.longLeft.Load(),
	}
}

// Search looks up an image and returns the filtered matches in the
// order the API listed them. The target is either an http(s) URL or a
// local file path; local files are uploaded in the request body.
//
// Failures are never retried here. Rate limiting is the caller's
// concern, informed by RateLimit.
func (c *Client) Search(ctx context.Context, target string, opts *SearchOptions) ([]Sauce, error) {
	numResults := c.numResults
	var minOverride *float64
	if opts != nil {
		if opts.NumResults != nil {
			if *opts.NumResults > MaxResults {
				return nil, fmt.Errorf("%w: num_results must be at most %d, got %d", ErrInvalidParameters, MaxResults, *opts.NumResults)
			}
			numResults = *opts.NumResults
		}
		if opts.MinSimilarity != nil {
			if *opts.MinSimilarity < 0 || *opts.MinSimilarity > 100 {
				return nil, fmt.Errorf("%w: min_similarity must be within 0-100, got %v", ErrInvalidParameters, *opts.MinSimilarity)
			}
			minOverride = opts.MinSimilarity
		}
	}

	reqURL, err := c.buildURL(target, numResults)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	var contentType string
	if !isRemote(target) {
		form, ct, err := fileForm(target)
		if err != nil {
			return nil, err
		}
		body = form
		contentType = ct
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrInvalidParse, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// Hard transport rejections (429 pages and the like) are not
		// JSON; anything undecodable on a 200 is a malformed body.
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	results, err := c.normalize(&parsed, minOverride)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("saucenao search finished",
		zap.Bool("remote", isRemote(target)),
		zap.Int("results", len(results)),
		zap.Uint32("short_remaining", c.shortLeft.Load()),
	)

	return results, nil
}

// normalize classifies the decoded response, updates the quota
// counters and maps the surviving rows. A provider-reported failure
// (negative status) leaves the counters untouched.
func (c *Client) normalize(resp *apiResponse, minOverride *float64) ([]Sauce, error) {
	h := resp.Header
	if h.Status < 0 {
		return nil, &APIError{Code: h.Status, Message: h.Message}
	}

	shortLimit, err := parseLimit(h.ShortLimit)
	if err != nil {
		return nil, err
	}
	longLimit, err := parseLimit(h.LongLimit)
	if err != nil {
		return nil, err
	}
	c.shortLeft.Store(h.ShortRemaining)
	c.longLeft.Store(h.LongRemaining)
	c.shortLimit.Store(shortLimit)
	c.longLimit.Store(longLimit)

	minSimilarity := c.MinSimilarity()
	if minOverride != nil {
		minSimilarity = *minOverride
	}
	emptyFilter := c.EmptyFilter()

	var out []Sauce
	for _, r := range resp.Results {
		sim, err := parseSimilarity(r.Header.Similarity)
		if err != nil {
			return nil, err
		}
		if sim < minSimilarity {
			continue
		}
		if emptyFilter && len(r.Data.ExtURLs) == 0 {
			continue
		}

		index, err := parseIndexLabel(r.Header.IndexName)
		if err != nil {
			return nil, err
		}
		out = append(out, toSauce(r, index, sim))
	}
	return out, nil
}

// SearchJSON runs Search and serializes the matches to compact JSON.
func (c *Client) SearchJSON(ctx context.Context, target string, opts *SearchOptions) (string, error) {
	results, err := c.Search(ctx, target, opts)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return string(b), nil
}

// SearchPrettyJSON runs Search and serializes the matches to indented
// JSON.
func (c *Client) SearchPrettyJSON(ctx context.Context, target string, opts *SearchOptions) (string, error) {
	results, err := c.Search(ctx, target, opts)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return string(b), nil
}
