package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/noah-isme/curriculum-api/internal/models"
	appErrors "github.com/noah-isme/curriculum-api/pkg/errors"
)

const maxWebResources = 6

// ResourceProvider supplies supplementary learning resources for a subject.
type ResourceProvider interface {
	FetchResources(ctx context.Context, subject string, level models.SkillLevel) ([]models.ResourceEntry, error)
}

// StaticResourceProvider formats six deterministic placeholder resources.
type StaticResourceProvider struct{}

// NewStaticResourceProvider constructs the placeholder provider.
func NewStaticResourceProvider() *StaticResourceProvider {
	return &StaticResourceProvider{}
}

// FetchResources never fails.
func (p *StaticResourceProvider) FetchResources(ctx context.Context, subject string, level models.SkillLevel) ([]models.ResourceEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.staticResources(subject, level), nil
}

func (p *StaticResourceProvider) staticResources(subject string, level models.SkillLevel) []models.ResourceEntry {
	q := encodeURIComponent(subject)
	return []models.ResourceEntry{
		{
			Title:       fmt.Sprintf("🌐 %s Tutorial - %s Guide", subject, level),
			URL:         "https://www.coursera.org/search?query=" + q,
			Description: fmt.Sprintf("Comprehensive %s guide covering %s fundamentals and practical applications.", strings.ToLower(string(level)), subject),
		},
		{
			Title:       fmt.Sprintf("🌐 %s Documentation and Best Practices", subject),
			URL:         "https://developer.mozilla.org/en-US/search?q=" + q,
			Description: fmt.Sprintf("Official documentation with examples, API references, and industry best practices for %s.", subject),
		},
		{
			Title:       fmt.Sprintf("🌐 %s Course Materials - MIT OpenCourseWare", subject),
			URL:         "https://ocw.mit.edu/search/?q=" + q,
			Description: fmt.Sprintf("Academic course materials including lectures, assignments, and supplementary readings for %s.", subject),
		},
		{
			Title:       fmt.Sprintf("🌐 %s Practical Examples - GitHub", subject),
			URL:         "https://github.com/search?q=" + q + "&type=repositories",
			Description: fmt.Sprintf("Real-world examples and open-source projects demonstrating %s applications in industry.", subject),
		},
		{
			Title:       fmt.Sprintf("🌐 %s Research Papers - Google Scholar", subject),
			URL:         "https://scholar.google.com/scholar?q=" + q,
			Description: fmt.Sprintf("Latest research publications and academic papers covering advanced topics in %s.", subject),
		},
		{
			Title:       fmt.Sprintf("🌐 %s Video Tutorials - YouTube", subject),
			URL:         "https://www.youtube.com/results?search_query=" + encodeURIComponent(subject+" tutorial"),
			Description: fmt.Sprintf("Video tutorials and lectures covering %s concepts and practical implementations.", subject),
		},
	}
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ),
// matching browser query encoding. url.QueryEscape differs on space and the marks.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedURIByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func unreservedURIByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// WebSearchConfig tunes the scraping provider.
type WebSearchConfig struct {
	BaseURL    string
	Selector   string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// WebSearchResourceProvider scrapes an HTML search results page for resources.
type WebSearchResourceProvider struct {
	client *http.Client
	cfg    WebSearchConfig
	logger *zap.Logger
}

// NewWebSearchResourceProvider wires an HTTP client; a nil client gets cfg.Timeout.
func NewWebSearchResourceProvider(client *http.Client, cfg WebSearchConfig, logger *zap.Logger) *WebSearchResourceProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Selector == "" {
		cfg.Selector = "a.result__a"
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearchResourceProvider{client: client, cfg: cfg, logger: logger}
}

// FetchResources returns up to six results in document order.
func (p *WebSearchResourceProvider) FetchResources(ctx context.Context, subject string, level models.SkillLevel) ([]models.ResourceEntry, error) {
	pageURL, err := p.searchURL(subject, level)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.cfg.RetryDelay):
			}
		}
		doc, err := p.fetchDocument(ctx, pageURL)
		if err == nil {
			return p.extractResources(doc, subject, level), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Debug("web search attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("web search for %q failed", subject))
}

func (p *WebSearchResourceProvider) searchURL(subject string, level models.SkillLevel) (string, error) {
	parsed, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", p.cfg.BaseURL, err)
	}
	query := parsed.Query()
	query.Set("q", fmt.Sprintf("%s %s tutorial", subject, strings.ToLower(string(level))))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (p *WebSearchResourceProvider) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "curriculum-api/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return doc, nil
}

func (p *WebSearchResourceProvider) extractResources(doc *goquery.Document, subject string, level models.SkillLevel) []models.ResourceEntry {
	base, _ := url.Parse(p.cfg.BaseURL)
	results := make([]models.ResourceEntry, 0, maxWebResources)
	seen := map[string]struct{}{}

	doc.Find(p.cfg.Selector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		title := strings.Join(strings.Fields(link.Text()), " ")
		if !ok || title == "" {
			return true
		}
		target := resolveResultURL(base, href)
		if target == "" {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}
		results = append(results, models.ResourceEntry{
			Title:       "🌐 " + title,
			URL:         target,
			Description: fmt.Sprintf("Web result for %s at %s level.", subject, strings.ToLower(string(level))),
		})
		return len(results) < maxWebResources
	})
	return results
}

// resolveResultURL makes href absolute and unwraps redirect links carrying the target in uddg.
func resolveResultURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if target := ref.Query().Get("uddg"); target != "" {
		return target
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
