package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
	"news-digest-bot/internal/models"
)

const DefaultGNewsURL = "https://gnews.io/api/v4/search"

// GNewsClient calls the gnews.io search API.
type GNewsClient struct {
	token    string
	language string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
}

type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewGNewsClient returns a client allowing at most rps requests per second.
func NewGNewsClient(token, language string, rps float64) *GNewsClient {
	if rps <= 0 {
		rps = 1
	}
	return &GNewsClient{
		token:    token,
		language: language,
		baseURL:  DefaultGNewsURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// WithBaseURL points the client at another endpoint.
func (c *GNewsClient) WithBaseURL(u string) *GNewsClient {
	c.baseURL = u
	return c
}

func (c *GNewsClient) Name() string {
	return "gnews"
}

func (c *GNewsClient) Search(ctx context.Context, topic models.Topic, max int) ([]models.Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gnews rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", string(topic))
	params.Set("lang", c.language)
	params.Set("max", strconv.Itoa(max))
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gnews returned status %d", resp.StatusCode)
	}

	var apiResp gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode gnews response: %w", err)
	}

	now := time.Now().UTC()
	articles := make([]models.Article, 0, len(apiResp.Articles))
	for _, a := range apiResp.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		publishedAt, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			publishedAt = now
		}
		content := a.Content
		if content == "" {
			content = a.Description
		}
		articles = append(articles, models.Article{
			Title:       a.Title,
			Content:     content,
			URL:         a.URL,
			PublishedAt: publishedAt.UTC(),
			Topic:       topic,
		})
	}
	return articles, nil
}
