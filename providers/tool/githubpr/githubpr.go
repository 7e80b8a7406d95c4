package githubpr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/leofalp/reagent/internal/utils"
	"github.com/leofalp/reagent/providers/tool"
)

const (
	// DefaultBaseURL is the GitHub REST API root.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout is the per-request timeout for GitHub API calls.
	DefaultTimeout = 30 * time.Second
	// MaxDiffLength caps the diff text returned to the model. Diffs beyond
	// this are cut and marked, never dropped.
	MaxDiffLength = 50000

	acceptJSON = "application/vnd.github.v3+json"
	acceptDiff = "application/vnd.github.v3.diff"
)

// Service holds the GitHub API configuration shared by the tool's requests.
type Service struct {
	token   string
	baseURL string
	client  *http.Client
}

type serviceOptions struct {
	token   string
	baseURL string
	client  *http.Client
}

// WithToken sets the GitHub personal access token. Without one, only public
// repositories are accessible and rate limits are much lower.
func WithToken(token string) func(*serviceOptions) {
	return func(o *serviceOptions) {
		o.token = token
	}
}

// WithBaseURL overrides the GitHub API root, e.g. for GitHub Enterprise.
func WithBaseURL(baseURL string) func(*serviceOptions) {
	return func(o *serviceOptions) {
		o.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHttpClient sets a custom HTTP client.
func WithHttpClient(client *http.Client) func(*serviceOptions) {
	return func(o *serviceOptions) {
		o.client = client
	}
}

// NewService creates a GitHub API service. The token defaults to the
// GITHUB_TOKEN environment variable.
func NewService(options ...func(*serviceOptions)) *Service {
	configured := serviceOptions{
		token:   os.Getenv("GITHUB_TOKEN"),
		baseURL: DefaultBaseURL,
	}
	for _, option := range options {
		option(&configured)
	}
	if configured.client == nil {
		configured.client = &http.Client{Timeout: DefaultTimeout}
	}

	return &Service{
		token:   configured.token,
		baseURL: configured.baseURL,
		client:  configured.client,
	}
}

// NewGitHubPRTool returns a [tool.Tool] that fetches pull request metadata
// and the diff for review.
//
// Example:
//
//	prTool := githubpr.NewGitHubPRTool(githubpr.WithToken(token))
//	registry, _ := tool.NewRegistry(prTool)
func NewGitHubPRTool(options ...func(*serviceOptions)) *tool.Tool[Input, Output] {
	service := NewService(options...)
	return tool.NewTool[Input, Output](
		"fetch_github_pr",
		service.Fetch,
		tool.WithDescription("Fetches a GitHub pull request: title, author, description, changed files, addition/deletion counts and the unified diff. Use this to get the code changes before reviewing a PR. Works on public repositories; private repositories require a configured GitHub token."),
	)
}

// Input identifies the pull request to fetch.
type Input struct {
	Owner     string `json:"owner" jsonschema:"description=Repository owner (username or organization),required"`
	Repo      string `json:"repo" jsonschema:"description=Repository name,required"`
	PRNumber  int    `json:"pr_number" jsonschema:"description=Pull request number to review,required"`
	FocusArea string `json:"focus_area,omitempty" jsonschema:"description=Specific area to focus review on (e.g. 'performance' 'security' 'style')"`
}

// Output holds the pull request data shaped for review.
type Output struct {
	PRTitle           string   `json:"pr_title" jsonschema:"description=Pull request title"`
	PRAuthor          string   `json:"pr_author" jsonschema:"description=Login of the pull request author"`
	ChangedFiles      []string `json:"changed_files" jsonschema:"description=Paths of the files changed by the pull request"`
	Additions         int      `json:"additions" jsonschema:"description=Total lines added"`
	Deletions         int      `json:"deletions" jsonschema:"description=Total lines deleted"`
	Diff              string   `json:"diff" jsonschema:"description=Unified diff of the pull request (truncated when very large)"`
	PRDescription     string   `json:"pr_description" jsonschema:"description=Pull request body text"`
	PRURL             string   `json:"pr_url" jsonschema:"description=Web URL of the pull request"`
	RepositoryPrivate bool     `json:"repository_private" jsonschema:"description=Whether the repository is private"`
	FocusArea         string   `json:"focus_area,omitempty" jsonschema:"description=Focus area requested by the caller, echoed back"`
}

// prInfo mirrors the fields consumed from the pulls endpoint.
type prInfo struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Base struct {
		Repo struct {
			Private bool `json:"private"`
		} `json:"repo"`
	} `json:"base"`
}

type prFile struct {
	Filename string `json:"filename"`
}

// Fetch retrieves the pull request metadata, its changed files and its
// unified diff.
//
// Failure classification:
//   - 404 is permanent: the PR does not exist (or is invisible without
//     credentials, which retrying will not fix either)
//   - 403 rate limiting and 5xx responses are transient
//   - a private repository without a configured token is permanent
func (s *Service) Fetch(ctx context.Context, input Input) (Output, error) {
	prPath := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", s.baseURL, input.Owner, input.Repo, input.PRNumber)

	var info prInfo
	if err := s.getJSON(ctx, prPath, &info, input); err != nil {
		return Output{}, err
	}

	if info.Base.Repo.Private && s.token == "" {
		return Output{}, tool.Permanent(fmt.Errorf("repository %s/%s is private: a GitHub token is required for access", input.Owner, input.Repo))
	}

	var files []prFile
	if err := s.getJSON(ctx, prPath+"/files", &files, input); err != nil {
		return Output{}, err
	}

	diff, err := s.getDiff(ctx, prPath, input)
	if err != nil {
		return Output{}, err
	}

	changed := make([]string, len(files))
	for i, file := range files {
		changed[i] = file.Filename
	}

	return Output{
		PRTitle:           info.Title,
		PRAuthor:          info.User.Login,
		ChangedFiles:      changed,
		Additions:         info.Additions,
		Deletions:         info.Deletions,
		Diff:              truncateDiff(diff),
		PRDescription:     info.Body,
		PRURL:             info.HTMLURL,
		RepositoryPrivate: info.Base.Repo.Private,
		FocusArea:         input.FocusArea,
	}, nil
}

func (s *Service) getJSON(ctx context.Context, url string, target any, input Input) error {
	body, err := s.get(ctx, url, acceptJSON, input)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return tool.Permanent(fmt.Errorf("decoding GitHub response from %s: %w", url, err))
	}
	return nil
}

func (s *Service) getDiff(ctx context.Context, url string, input Input) (string, error) {
	body, err := s.get(ctx, url, acceptDiff, input)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (s *Service) get(ctx context.Context, url string, accept string, input Input) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, tool.Permanent(fmt.Errorf("creating request: %w", err))
	}
	request.Header.Set("Accept", accept)
	if s.token != "" {
		request.Header.Set("Authorization", "token "+s.token)
	}

	response, err := s.client.Do(request)
	if err != nil {
		// Network-level failures are worth retrying.
		return nil, tool.Transient(fmt.Errorf("calling GitHub API: %w", err))
	}
	defer utils.CloseWithLog(response.Body)

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, tool.Transient(fmt.Errorf("reading GitHub response: %w", err))
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return body, nil
	}
	return nil, classifyStatus(response.StatusCode, body, input)
}

func classifyStatus(status int, body []byte, input Input) error {
	switch {
	case status == http.StatusNotFound:
		return tool.Permanent(fmt.Errorf("PR not found: %s/%s#%d", input.Owner, input.Repo, input.PRNumber))
	case status == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "rate limit"):
		return tool.Transient(fmt.Errorf("GitHub API rate limit exceeded. Consider adding authentication for higher limits"))
	case status >= 500:
		return tool.Transient(fmt.Errorf("GitHub API returned status %d: %s", status, utils.TruncateString(string(body), utils.DefaultMaxStringLength)))
	default:
		return tool.Permanent(fmt.Errorf("GitHub API returned status %d: %s", status, utils.TruncateString(string(body), utils.DefaultMaxStringLength)))
	}
}

func truncateDiff(diff string) string {
	if len(diff) > MaxDiffLength {
		return diff[:MaxDiffLength] + "\n... (diff truncated for length)"
	}
	return diff
}
