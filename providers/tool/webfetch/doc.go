// Package webfetch provides a tool that fetches web pages and converts
// their HTML content to Markdown, giving the reviewing agent a way to read
// documentation, issue threads and other context linked from a pull
// request.
package webfetch
