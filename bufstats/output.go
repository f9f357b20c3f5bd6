package bufstats

// Output holds channel-major statistic values: each channel's
// valuesPerChannel results are contiguous.
type Output struct {
	values           []float64
	numChannels      int
	valuesPerChannel int
}

// Values returns the flat output buffer.
func (o *Output) Values() []float64 { return o.values }

// NumChannels returns the number of output channels.
func (o *Output) NumChannels() int { return o.numChannels }

// ValuesPerChannel returns the number of values emitted per channel.
func (o *Output) ValuesPerChannel() int { return o.valuesPerChannel }

// Channel returns the contiguous slice for one channel. The slice
// borrows the output buffer. ok is false when the channel is out of range.
func (o *Output) Channel(ch int) (values []float64, ok bool) {
	if ch < 0 || ch >= o.numChannels {
		return nil, false
	}
	start := ch * o.valuesPerChannel
	return o.values[start : start+o.valuesPerChannel], true
}
