// Package cache provides a concurrency-safe LRU cache of decoded audio sample
// buffers keyed by source identity, bounded by entry count, aggregate memory,
// and entry age. Decoding is delegated to an injected collaborator.
package cache
