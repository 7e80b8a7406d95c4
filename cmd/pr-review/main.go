// Command pr-review reviews a GitHub pull request with a tool-using agent:
// it fetches the PR, reasons over the diff and prints a structured review.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/leofalp/reagent/agent"
	"github.com/leofalp/reagent/core/parse"
	"github.com/leofalp/reagent/providers/observability/slogtrace"
	"github.com/leofalp/reagent/providers/reasoning/openai"
	"github.com/leofalp/reagent/providers/tool"
	"github.com/leofalp/reagent/providers/tool/githubpr"
	"github.com/leofalp/reagent/providers/tool/webfetch"
)

const reviewInstructions = `You are a GitHub PR reviewer. Your task is to review pull requests and provide helpful feedback.
You should:
1. Fetch the PR information using the fetch_github_pr tool
2. Analyze the changes and their impact
3. Identify potential issues or improvements
4. Provide a detailed review with actionable feedback

Your final answer must be a JSON object with these fields:
- "review_summary": a summary of the changes
- "issues_found": a list of issues found (may be empty)
- "suggestions": a list of suggestions for improvement (may be empty)
- "overall_assessment": your overall assessment of the PR`

// review is the final answer shape the agent is instructed to produce.
type review struct {
	ReviewSummary     string   `json:"review_summary"`
	IssuesFound       []string `json:"issues_found"`
	Suggestions       []string `json:"suggestions"`
	OverallAssessment string   `json:"overall_assessment"`
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool
	var maxSteps int
	var model string

	cmd := &cobra.Command{
		Use:           "pr-review OWNER REPO PR_NUMBER",
		Short:         "Review a GitHub pull request with an AI agent",
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prNumber, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("PR_NUMBER must be an integer, got %q", args[2])
			}
			cmd.SilenceUsage = true
			return runReview(cmd, args[0], args[1], prNumber, verbose, maxSteps, model)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the agent's thought process")
	cmd.Flags().IntVar(&maxSteps, "max-steps", agent.DefaultMaxSteps, "maximum reasoning steps before giving up")
	cmd.Flags().StringVar(&model, "model", "", "OpenAI model to use (default: OPENAI_MODEL or gpt-4o-mini)")
	return cmd
}

func runReview(cmd *cobra.Command, owner, repo string, prNumber int, verbose bool, maxSteps int, model string) error {
	prTool := tool.WithRetry(githubpr.NewGitHubPRTool(), tool.RetryConfig{})
	registry, err := tool.NewRegistry(prTool, webfetch.NewWebFetchTool())
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	reasoner := openai.NewReasoner(registry)
	if model != "" {
		reasoner.WithModel(model)
	}

	runnerOptions := []agent.RunnerOption{agent.WithMaxSteps(maxSteps)}
	if verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		runnerOptions = append(runnerOptions, agent.WithTraceSink(slogtrace.New(slogtrace.WithLogger(logger))))
	}

	runner, err := agent.NewRunner(reasoner, registry, runnerOptions...)
	if err != nil {
		return fmt.Errorf("building runner: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	goal := agent.Goal{
		Instructions: reviewInstructions,
		Input: map[string]any{
			"owner":     owner,
			"repo":      repo,
			"pr_number": prNumber,
		},
	}

	result, err := runner.Run(ctx, goal)
	if err != nil {
		return fmt.Errorf("agent run %s failed: %w", result.RunID, err)
	}
	if result.Status == agent.StatusMaxSteps {
		return fmt.Errorf("agent run %s gave up after %d steps without an answer", result.RunID, len(result.Transcript))
	}

	parsed, err := parse.ParseStringAs[review](string(result.FinalAnswer))
	if err != nil {
		return fmt.Errorf("agent run %s produced an unreadable review: %w", result.RunID, err)
	}

	printReview(cmd, parsed)
	return nil
}

func printReview(cmd *cobra.Command, r review) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== PR Review Results ===")
	fmt.Fprintf(out, "\nSummary: %s\n", r.ReviewSummary)

	if len(r.IssuesFound) > 0 {
		fmt.Fprintln(out, "\nIssues Found:")
		for _, issue := range r.IssuesFound {
			fmt.Fprintf(out, "- %s\n", issue)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintln(out, "\nSuggestions:")
		for _, suggestion := range r.Suggestions {
			fmt.Fprintf(out, "- %s\n", suggestion)
		}
	}

	fmt.Fprintf(out, "\nOverall Assessment: %s\n", r.OverallAssessment)
}
