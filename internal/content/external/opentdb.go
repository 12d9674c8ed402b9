package external

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/kkysen/listenup/internal/content"
)

// OpenTDBClient fetches trivia questions from the Open Trivia DB (no API
// key required).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type openTDBQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []openTDBQuestion `json:"results"`
}

// Fetch implements content.Source for trivia questions. OpenTDB returns
// HTML-escaped text, so every field is unescaped before normalization.
func (c *OpenTDBClient) Fetch(ctx context.Context, count int, filter content.FilterOptions) ([]content.Item, error) {
	values := filter.Values()
	values.Set("amount", fmt.Sprint(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api.php?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response code %d", payload.ResponseCode)
	}

	items := make([]content.Item, 0, len(payload.Results))
	for _, raw := range payload.Results {
		incorrect := make([]string, len(raw.IncorrectAnswers))
		for i, answer := range raw.IncorrectAnswers {
			incorrect[i] = html.UnescapeString(answer)
		}
		items = append(items, content.NewQuestion(
			html.UnescapeString(raw.Question),
			html.UnescapeString(raw.CorrectAnswer),
			incorrect,
			raw.Type,
			raw.Difficulty,
			html.UnescapeString(raw.Category),
		))
	}
	return items, nil
}
