package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/openclaw/picoclaw/types"
)

const braveSearchEndpoint = "https://api.search.brave.com/res/v1/web/search"

// SearchResult is one structured web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchTool queries the Brave Search API. Without a configured
// credential it returns an empty result list instead of failing the loop.
// A token-bucket limiter keeps burst-happy models inside the API quota.
type WebSearchTool struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewWebSearchTool creates a web_search tool. apiKey may be empty.
func NewWebSearchTool(apiKey string, logger *zap.Logger) *WebSearchTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearchTool{
		apiKey:   apiKey,
		endpoint: braveSearchEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(2*time.Second), 5),
		logger:   logger,
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for information. Returns top search results with titles, URLs, and snippets."
}

func (t *WebSearchTool) Schema() *types.JSONSchema {
	count := types.NewIntegerSchema().WithDescription("Number of results to return (default: 5)")
	count.Default = 5
	return types.NewObjectSchema().
		AddProperty("query", types.NewStringSchema().WithDescription("The search query")).
		AddProperty("count", count).
		AddRequired("query")
}

type webSearchArgs struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var params webSearchArgs
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if params.Count <= 0 {
		params.Count = 5
	}

	if t.apiKey == "" {
		t.logger.Debug("web search skipped, no API key configured")
		return marshalResults(nil)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("search cancelled: %w", err)
	}

	q := url.Values{}
	q.Set("q", params.Query)
	q.Set("count", strconv.Itoa(params.Count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, params.Count)
	for i, r := range br.Web.Results {
		if i >= params.Count {
			break
		}
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return marshalResults(results)
}

func marshalResults(results []SearchResult) (string, error) {
	if results == nil {
		results = []SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	return string(data), nil
}
