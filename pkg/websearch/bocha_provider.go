package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sparklink-ai-be/pkg/retrieval"
)

// BochaProvider calls the Bocha AI web search API.
type BochaProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewBochaProvider(apiKey string, baseURL string) *BochaProvider {
	if baseURL == "" {
		baseURL = "https://api.bochaai.com/v1/web-search"
	}
	return &BochaProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type bochaRequest struct {
	Query   string `json:"query"`
	Count   int    `json:"count"`
	Summary bool   `json:"summary"`
}

type bochaResponse struct {
	Data struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
				Summary string `json:"summary"`
			} `json:"value"`
		} `json:"webPages"`
	} `json:"data"`
}

func (p *BochaProvider) Search(ctx context.Context, query string, maxResults int) ([]retrieval.Hit, error) {
	if p.apiKey == "" {
		// Soft failure: web search is optional
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	reqBody := bochaRequest{
		Query:   query,
		Count:   maxResults,
		Summary: true,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp bochaResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	pages := apiResp.Data.WebPages.Value
	hits := make([]retrieval.Hit, 0, len(pages))
	for i, page := range pages {
		if i >= maxResults {
			break
		}
		content := page.Summary
		if content == "" {
			content = page.Snippet
		}
		// Rank-based score: the API orders by relevance but exposes
		// no numeric score
		score := 1.0 - float64(i)*0.1
		if score < 0.1 {
			score = 0.1
		}
		hits = append(hits, retrieval.Hit{
			Content: content,
			Score:   score,
			Source:  retrieval.SourceWebSearch,
			Title:   page.Name,
			Locator: page.URL,
		})
	}
	return hits, nil
}
