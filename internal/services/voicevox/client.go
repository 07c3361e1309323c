// Package voicevox speaks the VOICEVOX engine's two-step HTTP protocol:
// an audio query is generated for the text, tuned with per-item settings,
// and then synthesized into audio bytes.
package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// recognizedSettings are the synthesis-parameter keys the engine accepts as
// overrides on an audio query. Anything else in a preset is dropped before
// the synthesis call.
var recognizedSettings = map[string]struct{}{
	"speedScale":         {},
	"pitchScale":         {},
	"intonationScale":    {},
	"volumeScale":        {},
	"prePhonemeLength":   {},
	"postPhonemeLength":  {},
	"pitch":              {},
	"pauseLength":        {},
	"pauseLengthScale":   {},
	"outputSamplingRate": {},
	"outputStereo":       {},
}

// Client wraps the VOICEVOX engine's two-step synthesis protocol.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes the VOICEVOX client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a VOICEVOX engine client.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Synthesize runs the query-then-synthesize protocol for text and speaker,
// overlaying recognized settings onto the audio query, and returns the raw
// audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string, speakerID int, settings map[string]any) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("voicevox synthesize: text required")
	}

	query, err := c.audioQuery(ctx, text, speakerID)
	if err != nil {
		return nil, err
	}
	for key, value := range settings {
		if _, ok := recognizedSettings[key]; ok {
			query[key] = value
		}
	}
	return c.synthesis(ctx, query, speakerID)
}

func (c *Client) audioQuery(ctx context.Context, text string, speakerID int) (map[string]any, error) {
	endpoint := c.baseURL + "/audio_query?" + url.Values{
		"text":    {text},
		"speaker": {strconv.Itoa(speakerID)},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio_query: request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio_query: request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voicevox audio_query: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("voicevox audio_query: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var query map[string]any
	if err := json.Unmarshal(body, &query); err != nil {
		return nil, fmt.Errorf("voicevox audio_query: decode response: %w", err)
	}
	return query, nil
}

func (c *Client) synthesis(ctx context.Context, query map[string]any, speakerID int) ([]byte, error) {
	encoded, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: encode query: %w", err)
	}
	endpoint := c.baseURL + "/synthesis?" + url.Values{
		"speaker": {strconv.Itoa(speakerID)},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: request failed: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voicevox synthesis: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("voicevox synthesis: http %d: %s", resp.StatusCode, strings.TrimSpace(string(audio)))
	}
	if len(audio) == 0 {
		return nil, errors.New("voicevox synthesis: empty audio response")
	}
	return audio, nil
}
