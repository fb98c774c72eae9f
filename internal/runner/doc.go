// Package runner drives the tool-calling loop between a model endpoint and
// a tool registry.
//
// Invariant:
//   - every tool call of an assistant turn is answered by exactly one tool
//     result, appended in request order, before the endpoint is called again.
//
// Flow:
//
//	user(text) -> assistant(tool calls) -> tool(result)... -> assistant(text)
package runner
