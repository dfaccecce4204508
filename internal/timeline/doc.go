// Package timeline computes mutual-silence gaps from a turn sequence and a
// real-time to visual-time mapping that shrinks long gaps for display. The
// mapping is purely presentational and must never drive playback position.
package timeline
