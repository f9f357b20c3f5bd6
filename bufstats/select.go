package bufstats

// Stat identifies one of the canonical statistics, in their fixed
// output order. The order is shared between kernel output and
// selection masks and never changes.
type Stat int

const (
	StatMean Stat = iota
	StatStd
	StatSkewness
	StatKurtosis
	StatLow
	StatMid
	StatHigh
)

// NumStats is the number of canonical statistics per derivative block.
const NumStats = 7

func (s Stat) String() string {
	switch s {
	case StatMean:
		return "mean"
	case StatStd:
		return "std"
	case StatSkewness:
		return "skewness"
	case StatKurtosis:
		return "kurtosis"
	case StatLow:
		return "low"
	case StatMid:
		return "mid"
	case StatHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Selection is a mask over the canonical statistics. Selection filters
// the fixed order; it never reorders.
type Selection [NumStats]bool

// SelectAll selects every statistic.
func SelectAll() Selection {
	var s Selection
	for i := range s {
		s[i] = true
	}
	return s
}

// Select builds a selection from an explicit list of statistics.
func Select(stats ...Stat) Selection {
	var s Selection
	for _, st := range stats {
		if st >= 0 && int(st) < NumStats {
			s[st] = true
		}
	}
	return s
}

// Count returns the number of selected statistics.
func (s Selection) Count() int {
	n := 0
	for _, enabled := range s {
		if enabled {
			n++
		}
	}
	return n
}
