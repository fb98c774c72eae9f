// Package conversation holds the message history exchanged with the model.
//
// Ordering:
//   - system (optional, first) -> user -> assistant(tool calls) -> tool results -> assistant ...
//   - every tool call in an assistant message is answered by exactly one tool
//     result before the next assistant or user message is appended.
//
// Transcripts persist as JSON, or YAML when the path ends in .yaml/.yml.
package conversation
