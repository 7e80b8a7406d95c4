// Package agent implements the ReAct control loop: repeated cycles of
// think, choose action, execute tool, observe result, until the reasoning
// backend produces a final answer or the step budget runs out.
//
// The three moving parts are the [Reasoner] (produces the next thought and
// either an action or a final answer from the goal and the transcript so
// far), the [Dispatcher] (validates and executes actions against a tool
// registry, converting every outcome into an [Observation]), and the
// [Runner] (the state machine tying them together).
//
// A run is strictly sequential: one reasoning call, one dispatch, one
// recorded [Step] per iteration. The runner never retries anything; failed
// observations are fed back into the transcript so the reasoning backend
// can adapt, which is the intended self-correction mechanism. Retry policy
// for transient tool failures belongs to the tools themselves (see
// tool.WithRetry).
//
// Multiple runners may execute concurrently; they share nothing but the
// read-mostly tool registry.
package agent
