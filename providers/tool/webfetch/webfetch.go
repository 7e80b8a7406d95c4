package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/reagent/internal/utils"
	"github.com/leofalp/reagent/providers/tool"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value.
	DefaultUserAgent = "reagent-webfetch-tool/1.0"
	// MaxBodySize is the maximum response body size (10MB).
	MaxBodySize = 10 * 1024 * 1024
	// MaxRedirects caps the redirect chain.
	MaxRedirects = 10
)

// NewWebFetchTool returns a [tool.Tool] that fetches a web page and returns
// its content as Markdown.
//
// Partial URLs are normalised by prepending "https://". Up to [MaxRedirects]
// redirects are followed, the body is capped at [MaxBodySize], and context
// cancellation is honoured throughout.
func NewWebFetchTool() *tool.Tool[Input, Output] {
	return tool.NewTool[Input, Output](
		"fetch_web_page",
		Fetch,
		tool.WithDescription("Fetches a web page and converts its HTML content to Markdown. Supports partial URLs like 'example.com'. Use this to read documentation, changelogs or issue threads referenced by a pull request."),
	)
}

// Input holds the parameters passed to the web fetch tool.
type Input struct {
	// URL is the page to fetch; partial URLs get an https:// prefix.
	URL string `json:"url" jsonschema:"description=The URL of the web page to fetch (partial URLs like 'example.com' are accepted),required"`

	// TimeoutSeconds overrides the default request timeout.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" jsonschema:"description=Request timeout in seconds (default: 30)"`
}

// Output holds the fetched page. URL reflects the final destination after
// all redirects.
type Output struct {
	URL      string `json:"url" jsonschema:"description=The final URL after following all redirects"`
	Markdown string `json:"markdown" jsonschema:"description=The page content converted to Markdown"`
}

// Fetch retrieves the page at input.URL and converts it to Markdown.
//
// Failure classification: network errors, timeouts, 429 and 5xx responses
// are transient; bad URLs, other HTTP statuses, oversized bodies and
// conversion failures are permanent.
func Fetch(ctx context.Context, input Input) (Output, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return Output{}, tool.Permanent(fmt.Errorf("URL cannot be empty"))
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	timeout := DefaultTimeout
	if input.TimeoutSeconds > 0 {
		timeout = time.Duration(input.TimeoutSeconds) * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, tool.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	request.Header.Set("User-Agent", DefaultUserAgent)

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
			}
			return nil
		},
	}

	response, err := client.Do(request)
	if err != nil {
		return Output{}, tool.Transient(fmt.Errorf("failed to fetch URL: %w", err))
	}
	defer utils.CloseWithLog(response.Body)

	if response.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status code: %d %s", response.StatusCode, response.Status)
		if response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= 500 {
			return Output{}, tool.Transient(statusErr)
		}
		return Output{}, tool.Permanent(statusErr)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(response.Body, MaxBodySize))
	if err != nil {
		if ctxWithTimeout.Err() != nil {
			return Output{}, tool.Transient(fmt.Errorf("timeout while reading response body: %w", err))
		}
		return Output{}, tool.Transient(fmt.Errorf("failed to read response body: %w", err))
	}
	if len(htmlBytes) == MaxBodySize {
		return Output{}, tool.Permanent(fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize))
	}

	markdown, err := htmltomarkdown.ConvertString(string(htmlBytes))
	if err != nil {
		return Output{}, tool.Permanent(fmt.Errorf("failed to convert HTML to Markdown: %w", err))
	}

	return Output{
		URL:      response.Request.URL.String(),
		Markdown: markdown,
	}, nil
}
