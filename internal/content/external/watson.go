package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// WatsonTTSClient synthesizes speech through the IBM Watson
// Text to Speech HTTP API.
type WatsonTTSClient struct {
	baseURL    string
	apiKey     string
	voice      string
	encoding   string
	httpClient *http.Client
}

func NewWatsonTTSClient(baseURL, apiKey, voice, encoding string, timeout time.Duration) *WatsonTTSClient {
	if voice == "" {
		voice = "en-US_AllisonVoice"
	}
	if encoding == "" {
		encoding = "wav"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WatsonTTSClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		voice:    voice,
		encoding: encoding,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Encoding returns the audio container the client requests.
func (c *WatsonTTSClient) Encoding() string { return c.encoding }

// Synthesize returns the spoken audio for text.
func (c *WatsonTTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("tts endpoint not configured")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/synthesize?voice=%s", c.baseURL, url.QueryEscape(c.voice))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/"+c.encoding)
	req.SetBasicAuth("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tts returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
