// Package sonago provides signal-analysis and dataset primitives for Go.
//
// Sonago is an in-process toolkit for audio feature extraction and the
// data pipelines that sit on top of it: channel-major buffer statistics,
// feature scaling, PCA with composable preprocessing, clustering,
// nearest-neighbor search, spectral transforms, loudness measurement,
// and onset/novelty segmentation.
//
// # Quick Start
//
// Buffer statistics over a channel-major source:
//
//	stats, _ := bufstats.New(func(o *bufstats.Options) {
//		o.Select = bufstats.Select(bufstats.StatMean, bufstats.StatStd)
//		o.NumDerivatives = 1
//	})
//	out, _ := stats.Process(source, numFrames, numChannels, nil)
//	ch0, _ := out.Channel(0)
//
// PCA with robust-scaling preprocessing:
//
//	p, _ := pca.New(pca.WithRobustScale(25, 75))
//	proj, explained, _ := p.FitTransform(data, rows, cols, 2)
//	recon, _ := p.InverseTransform(proj, rows, 2)
//
// # Data Layout
//
// Every numeric exchange uses flat, caller-allocated float64 buffers
// with explicit shape parameters. Point and feature matrices are
// row-major; audio statistics input is channel-major (each channel's
// frames contiguous). See package tensor for the shared contract.
//
// # Concurrency
//
// Instances own their state exclusively and are safe to move between
// goroutines, but not to share. Concurrent use of two different
// instances is always safe.
package sonago
