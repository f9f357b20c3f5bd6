// Package bufstats computes channel-major descriptive statistics over
// audio-style buffers.
//
// BufStats orchestrates the statistic kernel over a caller-selected
// frame/channel window of a source buffer, with a statistic-selection
// mask, derivative orders, optional frame weights, and defensive
// zeroing for degenerate weights. MultiStats is the unmasked full-layout
// variant. RunningStats maintains incremental windowed mean/stddev.
//
// Instances are safe to move between goroutines but not to share;
// Corpus fans out over many buffers with one instance per worker.
package bufstats
