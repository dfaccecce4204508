// Package segment turns per-channel VAD output into a single chronological
// sequence of speaker turns. Channel 0 maps to speaker A and channel 1 to
// speaker B; adjacent same-speaker segments separated by a short gap are merged.
package segment
