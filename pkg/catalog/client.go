package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/menta2k/creature-card/internal/logger"
	"github.com/menta2k/creature-card/pkg/types"
)

const (
	// DefaultBaseURL is the public PokeAPI v2 endpoint
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	// DefaultMaxID is the highest identifier in the national catalog
	DefaultMaxID     = 1025
	DefaultUserAgent = "creature-card/1.0 (+https://github.com/menta2k/creature-card)"
)

var (
	ErrInvalidID  = errors.New("identifier out of range")
	ErrRequest    = errors.New("catalog request failed")
	ErrStatus     = errors.New("catalog returned non-2xx status")
	ErrDecode     = errors.New("malformed catalog payload")
	ErrIncomplete = errors.New("catalog payload missing required fields")
)

// Config holds catalog client settings
type Config struct {
	BaseURL   string
	MaxID     int
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns settings for the public PokeAPI
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		MaxID:     DefaultMaxID,
		UserAgent: DefaultUserAgent,
	}
}

// Client fetches creature records. Every call is a fresh request; nothing
// is cached.
type Client struct {
	baseURL    string
	maxID      int
	userAgent  string
	httpClient *http.Client
	intN       func(n int) int
}

// payload is the subset of the PokeAPI /pokemon/{id} document we read
type payload struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
	} `json:"sprites"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
}

// NewClient creates a catalog client with default settings
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a catalog client with custom settings
func NewClientWithConfig(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.MaxID <= 0 {
		config.MaxID = DefaultMaxID
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		maxID:      config.MaxID,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: config.Timeout},
		intN:       rand.Intn,
	}
}

// MaxID returns the highest identifier the client will request
func (c *Client) MaxID() int {
	return c.maxID
}

// RandomID picks an identifier uniformly from 1..MaxID
func (c *Client) RandomID() int {
	return c.intN(c.maxID) + 1
}

// FetchRecord requests one catalog entry and normalizes it. Failures are
// logged and returned; no record is produced.
func (c *Client) FetchRecord(ctx context.Context, id int) (types.Record, error) {
	log := logger.Entry(ctx).WithField("id", id)

	rec, err := c.fetchRecord(ctx, id)
	if err != nil {
		log.WithError(err).Warn("fetch record failed")
		return types.Record{}, err
	}

	log.WithField("name", rec.Name).Debug("fetched record")
	return rec, nil
}

func (c *Client) fetchRecord(ctx context.Context, id int) (types.Record, error) {
	if id < 1 || id > c.maxID {
		return types.Record{}, errors.Wrapf(ErrInvalidID, "id %d not in 1..%d", id, c.maxID)
	}

	var p payload
	if err := c.getJSON(ctx, fmt.Sprintf("/pokemon/%d", id), &p); err != nil {
		return types.Record{}, err
	}

	return normalize(p, id)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return errors.Wrapf(ErrRequest, "failed to create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrRequest, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return errors.Wrapf(ErrStatus, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(ErrDecode, "%v", err)
	}
	return nil
}

// normalize extracts the display fields and checks the record invariants
func normalize(p payload, requested int) (types.Record, error) {
	if p.Name == "" {
		return types.Record{}, errors.Wrap(ErrIncomplete, "empty name")
	}
	if p.ID != requested {
		return types.Record{}, errors.Wrapf(ErrIncomplete, "payload id %d does not match requested %d", p.ID, requested)
	}
	if p.Sprites.FrontDefault == nil || *p.Sprites.FrontDefault == "" {
		return types.Record{}, errors.Wrap(ErrIncomplete, "no front_default sprite")
	}
	if len(p.Types) < 1 || len(p.Types) > 2 {
		return types.Record{}, errors.Wrapf(ErrIncomplete, "expected 1 or 2 types, got %d", len(p.Types))
	}

	slots := p.Types
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Slot < slots[j].Slot
	})

	names := make([]string, 0, len(slots))
	for _, t := range slots {
		if t.Type.Name == "" {
			return types.Record{}, errors.Wrap(ErrIncomplete, "type without name")
		}
		names = append(names, t.Type.Name)
	}

	return types.NewRecord(p.Name, *p.Sprites.FrontDefault, names, p.ID), nil
}
