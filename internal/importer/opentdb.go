// Package importer pulls trivia questions from the Open Trivia Database
// into the question bank.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the public opentdb endpoint.
const DefaultBaseURL = "https://opentdb.com/api.php"

// Item is one decoded question with HTML entities already unescaped.
type Item struct {
	Type             string
	Difficulty       string
	Category         string
	Question         string
	CorrectAnswer    string
	IncorrectAnswers []string
}

type apiResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Type             string   `json:"type"`
		Difficulty       string   `json:"difficulty"`
		Category         string   `json:"category"`
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// Client talks to an opentdb compatible API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 15 * time.Second}}
}

// Fetch asks for amount questions. category 0 means any category.
func (c *Client) Fetch(ctx context.Context, amount, category int) ([]Item, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("opentdb url: %w", err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(amount))
	if category > 0 {
		q.Set("category", strconv.Itoa(category))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("opentdb request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opentdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("opentdb: read body: %w", err)
	}
	var ar apiResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("opentdb: decode: %w", err)
	}
	if ar.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb: response code %d", ar.ResponseCode)
	}

	items := make([]Item, 0, len(ar.Results))
	for _, r := range ar.Results {
		it := Item{
			Type:          r.Type,
			Difficulty:    r.Difficulty,
			Category:      html.UnescapeString(r.Category),
			Question:      html.UnescapeString(r.Question),
			CorrectAnswer: html.UnescapeString(r.CorrectAnswer),
		}
		for _, a := range r.IncorrectAnswers {
			it.IncorrectAnswers = append(it.IncorrectAnswers, html.UnescapeString(a))
		}
		items = append(items, it)
	}
	return items, nil
}
