// Package openai implements [agent.Reasoner] on top of the OpenAI chat
// completions API.
//
// Each reasoning call sends the goal, the registered tool descriptions and
// the full transcript so far, and asks the model for one structured
// decision: either the next tool invocation or the final answer. The
// backend keeps no state between calls; everything the model needs is
// rebuilt from the transcript, which keeps runs replayable.
package openai
