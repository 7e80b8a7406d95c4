// Package githubpr provides a tool that fetches the metadata, changed files
// and unified diff of a GitHub pull request, shaped for consumption by a
// reviewing agent.
//
// Without a token only public repositories are accessible, at unauthenticated
// rate limits. Failures are classified so callers can tell retryable ones
// (rate limiting, GitHub outages) from dead ends (missing PRs, private
// repositories without credentials).
package githubpr
