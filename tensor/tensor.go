// Package tensor defines the flat-buffer shape conventions shared by
// every analysis component.
//
// Point and feature matrices are row-major (`[row0_cols..., row1_cols...]`).
// Audio-statistics input is channel-major (`[channel0_frames..., channel1_frames...]`),
// i.e. each channel's frames are contiguous. A buffer's length must
// always equal the product of its declared shape; violations are
// precondition failures, never silently truncated.
package tensor

import (
	"github.com/hupe1980/sonago"
)

// ValidateRowMajor checks a row-major matrix against its declared shape.
func ValidateRowMajor(data []float64, rows, cols int) error {
	if rows <= 0 {
		return sonago.NewInvalidConfig("rows", "must be > 0")
	}
	if cols <= 0 {
		return sonago.NewInvalidConfig("cols", "must be > 0")
	}
	if len(data) != rows*cols {
		return &sonago.ErrShapeMismatch{Rows: rows, Cols: cols, Len: len(data)}
	}
	return nil
}

// ValidateChannelMajor checks a channel-major buffer against its
// declared frame/channel counts.
func ValidateChannelMajor(data []float64, frames, channels int) error {
	if frames <= 0 {
		return sonago.NewInvalidConfig("frames", "must be > 0")
	}
	if channels <= 0 {
		return sonago.NewInvalidConfig("channels", "must be > 0")
	}
	if len(data) != frames*channels {
		return &sonago.ErrShapeMismatch{Rows: channels, Cols: frames, Len: len(data)}
	}
	return nil
}

// Row returns the i-th row of a row-major matrix as a borrowed slice.
// The slice aliases data and is valid as long as data is.
func Row(data []float64, cols, i int) []float64 {
	return data[i*cols : (i+1)*cols]
}

// Channel returns one channel of a channel-major buffer as a borrowed slice.
func Channel(data []float64, frames, ch int) []float64 {
	return data[ch*frames : (ch+1)*frames]
}

// Window describes a frame/channel sub-range of a channel-major buffer.
type Window struct {
	StartFrame   int
	NumFrames    int
	StartChannel int
	NumChannels  int
}

// ExtractWindow copies the selected frame/channel sub-range of a
// channel-major source into a fresh channel-major buffer. The window
// must lie fully within the source bounds.
func ExtractWindow(src []float64, srcFrames, srcChannels int, w Window) ([]float64, error) {
	if err := ValidateChannelMajor(src, srcFrames, srcChannels); err != nil {
		return nil, err
	}
	if w.StartFrame < 0 || w.StartFrame >= srcFrames {
		return nil, sonago.NewInvalidConfig("startFrame", "out of range")
	}
	if w.NumFrames <= 0 || w.StartFrame+w.NumFrames > srcFrames {
		return nil, sonago.NewInvalidConfig("numFrames", "out of range")
	}
	if w.StartChannel < 0 || w.StartChannel >= srcChannels {
		return nil, sonago.NewInvalidConfig("startChannel", "out of range")
	}
	if w.NumChannels <= 0 || w.StartChannel+w.NumChannels > srcChannels {
		return nil, sonago.NewInvalidConfig("numChannels", "out of range")
	}

	out := make([]float64, w.NumChannels*w.NumFrames)
	for ch := 0; ch < w.NumChannels; ch++ {
		srcStart := (w.StartChannel+ch)*srcFrames + w.StartFrame
		copy(out[ch*w.NumFrames:(ch+1)*w.NumFrames], src[srcStart:srcStart+w.NumFrames])
	}
	return out, nil
}
