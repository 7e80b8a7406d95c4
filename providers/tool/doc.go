// Package tool defines the capability contract of the agent loop: a tool is
// a named unit of external capability with typed input and output schemas
// and a single execution function.
//
// Concrete tools are built with [NewTool], which binds a strongly-typed Go
// function and derives both JSON schemas via reflection. The loop stores
// and dispatches tools through the [GenericTool] interface and looks them
// up by name in a [Registry].
//
// Tools report failures through [ExecError], which classifies them as
// transient or permanent. The agent runner never retries; callers that want
// retry semantics wrap a tool with [WithRetry].
package tool
