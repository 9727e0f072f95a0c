// Package entropy provides true randomness via random.org for seeding a
// growth run's per-worker generators, so two runs of the same parameters
// produce genuinely different (rather than wall-clock-correlated) networks.
// Falls back to crypto/rand when the API is unavailable.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client fetches true random floats from random.org on demand. A grower
// run draws exactly one seed from it, so there's no pool to manage — each
// call to Float is its own request.
type Client struct {
	apiKey string
	client *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Float returns a random float64 in [0, 1), fetched fresh from random.org.
// Falls back to crypto/rand if the request fails.
func (c *Client) Float() float64 {
	if c == nil {
		return cryptoRandFloat()
	}

	v, ok := c.fetch()
	if !ok {
		return cryptoRandFloat()
	}
	return v
}

// fetch requests a single decimal fraction from random.org.
func (c *Client) fetch() (float64, bool) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        c.apiKey,
			"n":             1,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return 0, false
	}

	resp, err := c.client.Post("https://api.random.org/json-rpc/4/invoke", "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return 0, false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return 0, false
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return 0, false
	}

	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return 0, false
	}

	if len(result.Result.Random.Data) == 0 {
		return 0, false
	}
	return result.Result.Random.Data[0], true
}

// cryptoRandFloat generates a random float64 using crypto/rand as fallback.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// CryptoFloat returns a random float using crypto/rand (no API needed).
// Used as a standalone fallback when no Client is available.
func CryptoFloat() float64 {
	return cryptoRandFloat()
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// FloatFromSource returns a random float from the client if available, or crypto/rand.
func FloatFromSource(c *Client) float64 {
	if c != nil && c.Enabled() {
		return c.Float()
	}
	return cryptoRandFloat()
}

// SeedFromSource derives a base seed for growth.Grow's per-worker
// generators from the given source: a full 63-bit value, not just the
// [0,1) float's precision, so distinct worker offsets stay well separated.
func SeedFromSource(c *Client) int64 {
	f := FloatFromSource(c)
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return int64(f * (1 << 53))
	}
	mixed := binary.LittleEndian.Uint64(buf[:]) ^ uint64(f*(1<<53))
	return int64(mixed &^ (1 << 63))
}

