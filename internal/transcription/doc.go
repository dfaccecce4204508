// Package transcription implements the HTTP client for the external
// speech-to-text endpoint.
package transcription
