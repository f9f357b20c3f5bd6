// Package cluster provides k-means clustering over row-major feature
// matrices, including a spherical variant that operates on the unit
// hypersphere with cosine assignment.
package cluster
