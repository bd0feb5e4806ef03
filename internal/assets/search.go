package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Category selects which provider answers a search.
type Category string

const (
	CategoryDesign Category = "design"
	CategoryPhoto  Category = "photo"
	CategoryArt    Category = "art"
	CategoryIcon   Category = "icon"
)

// DefaultQuery is searched when the panel opens with no results.
const DefaultQuery = "creative design"

const generatedResults = 12

// Style suffixes appended to the prompt for generated images.
var categoryStyles = map[Category]string{
	CategoryDesign: "aesthetic, trending on pinterest, high quality, 8k, photography",
	CategoryPhoto:  "raw photo, realistic, cinematic lighting, 8k, high resolution, photography",
	CategoryArt:    "digital art, detailed, 8k, trending on artstation",
}

// IconSets are the Iconify collections queried for icons, in display order.
var IconSets = []string{"mdi", "fa", "bi", "heroicons", "noto", "twemoji", "fluent", "ri", "ph"}

// Result is one search hit. URL is a preview, FullURL is what gets inserted.
type Result struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	FullURL string `json:"fullUrl"`
	Author  string `json:"author"`
	Type    string `json:"type"`
}

// Endpoints are the provider base URLs. Zero fields use the public services.
type Endpoints struct {
	Generated string // image generation, prompt appended to /prompt/
	Icons     string // Iconify API
	Words     string // Datamuse-compatible suggestion API
}

func (e Endpoints) withDefaults() Endpoints {
	if e.Generated == "" {
		e.Generated = "https://image.pollinations.ai"
	}
	if e.Icons == "" {
		e.Icons = "https://api.iconify.design"
	}
	if e.Words == "" {
		e.Words = "https://api.datamuse.com"
	}
	return e
}

// Searcher builds result lists for the asset panel.
type Searcher struct {
	endpoints Endpoints
	client    *http.Client
}

// NewSearcher returns a Searcher. client may be nil.
func NewSearcher(endpoints Endpoints, client *http.Client) *Searcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Searcher{endpoints: endpoints.withDefaults(), client: client}
}

// Search returns result URLs for query. Results are URLs only; nothing is
// fetched until one is inserted.
func (s *Searcher) Search(query string, cat Category) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if cat == CategoryIcon {
		return s.icons(query), nil
	}
	style, ok := categoryStyles[cat]
	if !ok {
		return nil, fmt.Errorf("search: unknown category %q", cat)
	}
	return s.generated(query, style, string(cat)), nil
}

func (s *Searcher) generated(query, style, kind string) []Result {
	prompt := url.PathEscape(query + ", " + style)
	out := make([]Result, generatedResults)
	for i := range out {
		base := fmt.Sprintf("%s/prompt/%s", s.endpoints.Generated, prompt)
		out[i] = Result{
			ID:      fmt.Sprintf("%s-%d", kind, i),
			URL:     fmt.Sprintf("%s?width=400&height=400&nologo=true&seed=%d", base, i),
			FullURL: fmt.Sprintf("%s?width=1024&height=1024&nologo=true&seed=%d", base, i),
			Author:  "AI Generated",
			Type:    "image",
		}
	}
	return out
}

func (s *Searcher) icons(query string) []Result {
	name := url.PathEscape(strings.ToLower(strings.ReplaceAll(query, " ", "-")))
	out := make([]Result, len(IconSets))
	for i, set := range IconSets {
		base := fmt.Sprintf("%s/%s:%s.svg", s.endpoints.Icons, set, name)
		out[i] = Result{
			ID:      fmt.Sprintf("icon-%d", i),
			URL:     base + "?height=100",
			FullURL: base + "?height=300",
			Author:  set,
			Type:    "icon",
		}
	}
	return out
}

// Suggest returns a spelling correction for query, or "" when the best
// match is the query itself.
func (s *Searcher) Suggest(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}
	u := s.endpoints.Words + "/sug?s=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("suggest: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: suggest: %w", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: suggest: status %d", ErrFetch, resp.StatusCode)
	}

	var words []struct {
		Word  string `json:"word"`
		Score int    `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&words); err != nil {
		return "", fmt.Errorf("suggest: decode: %w", err)
	}
	if len(words) == 0 || strings.EqualFold(words[0].Word, query) {
		return "", nil
	}
	return words[0].Word, nil
}

// PinterestURL is the external search page for query.
func PinterestURL(query string) string {
	return "https://www.pinterest.com/search/pins/?q=" + url.QueryEscape(strings.TrimSpace(query))
}
