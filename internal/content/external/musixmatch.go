package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kkysen/listenup/internal/content"
)

// lyricsDisclaimer is the marker Musixmatch appends after the licensed
// portion of the lyrics body.
const lyricsDisclaimer = "*******"

// MusixmatchClient fetches charted songs and their lyrics. Songs are
// pulled by chart rank, one page per song; the page cursor only moves
// forward, so every Fetch asks for songs the client has not requested
// before even though reshuffled rankings can still hand back duplicates.
type MusixmatchClient struct {
	baseURL    string
	apiKey     string
	country    string
	httpClient *http.Client

	page atomic.Uint64
}

func NewMusixmatchClient(baseURL, apiKey, country string, httpClient *http.Client) *MusixmatchClient {
	if baseURL == "" {
		baseURL = "https://api.musixmatch.com/ws/1.1"
	}
	if country == "" {
		country = "us"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &MusixmatchClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		country:    country,
		httpClient: httpClient,
	}
}

// SetStartPage positions the chart cursor, normally at the pool size so
// the first fetch asks for the first un-pooled chart rank.
func (c *MusixmatchClient) SetStartPage(page uint64) {
	c.page.Store(page)
}

// Fetch implements content.Source for songs. The filter does not apply to
// the chart; count songs are taken from consecutive chart ranks.
func (c *MusixmatchClient) Fetch(ctx context.Context, count int, _ content.FilterOptions) ([]content.Item, error) {
	items := make([]content.Item, 0, count)
	for i := 0; i < count; i++ {
		page := c.page.Add(1)
		song, err := c.chartSong(ctx, page)
		if err != nil {
			return items, err
		}
		items = append(items, song)
	}
	return items, nil
}

type chartResponse struct {
	Message struct {
		Body struct {
			TrackList []struct {
				Track struct {
					TrackID    uint64 `json:"track_id"`
					TrackName  string `json:"track_name"`
					ArtistName string `json:"artist_name"`
				} `json:"track"`
			} `json:"track_list"`
		} `json:"body"`
	} `json:"message"`
}

type lyricsResponse struct {
	Message struct {
		Body struct {
			Lyrics struct {
				LyricsBody string `json:"lyrics_body"`
			} `json:"lyrics"`
		} `json:"body"`
	} `json:"message"`
}

// chartSong returns the song at chart rank page, filtered to non-explicit
// non-instrumental tracks that carry lyrics.
func (c *MusixmatchClient) chartSong(ctx context.Context, page uint64) (content.Song, error) {
	values := url.Values{
		"apikey":            {c.apiKey},
		"page":              {fmt.Sprint(page)},
		"page_size":         {"1"},
		"country":           {c.country},
		"f_has_lyrics":      {"1"},
		"f_is_instrumental": {"0"},
		"f_is_explicit":     {"0"},
	}

	var chart chartResponse
	if err := c.getJSON(ctx, "/chart.tracks.get", values, &chart); err != nil {
		return content.Song{}, err
	}
	if len(chart.Message.Body.TrackList) == 0 {
		return content.Song{}, fmt.Errorf("musixmatch chart page %d is empty", page)
	}

	track := chart.Message.Body.TrackList[0].Track
	lyrics, err := c.lyrics(ctx, track.TrackID)
	if err != nil {
		return content.Song{}, err
	}

	return content.Song{
		Artist: track.ArtistName,
		Title:  track.TrackName,
		Lyrics: lyrics,
	}, nil
}

func (c *MusixmatchClient) lyrics(ctx context.Context, trackID uint64) (string, error) {
	values := url.Values{
		"apikey":   {c.apiKey},
		"format":   {"json"},
		"track_id": {fmt.Sprint(trackID)},
	}

	var payload lyricsResponse
	if err := c.getJSON(ctx, "/track.lyrics.get", values, &payload); err != nil {
		return "", err
	}
	return trimLyrics(payload.Message.Body.Lyrics.LyricsBody), nil
}

// trimLyrics cuts the body at the second-to-last disclaimer marker,
// dropping the trailing license notice.
func trimLyrics(body string) string {
	last := strings.LastIndex(body, lyricsDisclaimer)
	if last < 0 {
		return body
	}
	end := strings.LastIndex(body[:last], lyricsDisclaimer)
	if end < 0 {
		return body
	}
	return body[:end]
}

func (c *MusixmatchClient) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("musixmatch %s non-200: %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
