package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

// truncationMarker is appended when scraped content exceeds max_length.
const truncationMarker = "...[truncated]"

// Scraper fetches a page from an allowlisted domain and extracts its
// text content.
type Scraper struct {
	allowedDomains []string
	maxLength      int
	client         *http.Client
}

func NewScraper(allowedDomains []string, maxLength int, timeout time.Duration) *Scraper {
	return &Scraper{
		allowedDomains: allowedDomains,
		maxLength:      maxLength,
		client:         &http.Client{Timeout: timeout},
	}
}

func (s *Scraper) Descriptor() registry.ToolDescriptor {
	return registry.ToolDescriptor{
		Name:        "web_scraper",
		Description: "Extract content from web pages with domain restrictions",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string", "description": "URL to scrape"},
				"selector": map[string]any{
					"type":        "string",
					"description": "HTML tag name to extract (e.g. p, h1, a)",
				},
				"max_length": map[string]any{
					"type":        "integer",
					"description": "Maximum response length",
				},
			},
			"required": []any{"url"},
		},
		Handler: s.handle,
	}
}

func (s *Scraper) handle(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	rawURL, _ := args["url"].(string)
	selector, _ := args["selector"].(string)
	maxLength := s.maxLength
	if v, ok := args["max_length"].(float64); ok && v > 0 {
		maxLength = int(v)
	}

	if err := s.checkDomain(rawURL); err != nil {
		return nil, err
	}

	body, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var content string
	if selector != "" {
		content = extractByTag(body, selector)
	} else {
		content = ExtractText(body)
	}

	if len(content) > maxLength {
		content = content[:maxLength] + truncationMarker
	}

	return protocol.Text("Scraped content from %s:\n\n%s", rawURL, content), nil
}

// checkDomain enforces the allowlist by substring match against the
// hostname. Substring (not suffix) matching is the documented policy; it
// is known-loose and deliberately preserved.
func (s *Scraper) checkDomain(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return protocol.Errorf(protocol.KindDomain, "invalid url: %s", rawURL)
	}
	host := strings.ToLower(parsed.Hostname())
	for _, allowed := range s.allowedDomains {
		if strings.Contains(host, strings.ToLower(allowed)) {
			return nil
		}
	}
	return protocol.Errorf(protocol.KindAccessDenied, "domain not allowed: %s", host)
}

func (s *Scraper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "toolgate/1.0 (+https://github.com/toolgate-ai/toolgate)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		// Timeouts and transport failures alike are opaque to the caller.
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// ExtractText converts HTML to clean text, skipping script/style and
// page chrome.
func ExtractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var sb strings.Builder
	walkText(doc, &sb, map[string]bool{
		"script": true, "style": true, "noscript": true,
		"svg": true, "iframe": true,
	})
	return strings.TrimSpace(sb.String())
}

func walkText(n *html.Node, sb *strings.Builder, skipTags map[string]bool) {
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb, skipTags)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "br", "div", "li", "tr", "h1", "h2", "h3", "h4":
			sb.WriteString("\n")
		}
	}
}

// extractByTag returns the text of every element with the given tag
// name, one per line.
func extractByTag(htmlContent, tag string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			var sb strings.Builder
			collectText(n, &sb)
			if text := strings.TrimSpace(sb.String()); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, "\n")
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
