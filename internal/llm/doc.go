// Package llm implements the generation call layer: OpenAI-compatible chat
// providers behind per-provider rate limiting, retry with exponential backoff,
// primary-to-backup fallback, and content validation of generated text.
//
// Three provider roles exist: the default role serves per-paper generation
// (title translation and TLDR), the strong role serves the daily summary, and
// the optional backup role is tried once after the primary role has failed
// repeatedly. A result produced by the backup is tagged so callers can account
// for backup usage per paper.
package llm
