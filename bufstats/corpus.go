package bufstats

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sonago"
)

// Source is one channel-major buffer queued for corpus processing.
type Source struct {
	Data        []float64
	NumFrames   int
	NumChannels int
	// Weights is optional; when set it must match the configured frame span.
	Weights []float64
}

// CorpusOptions configures a Corpus.
type CorpusOptions struct {
	// Logger receives per-batch progress; defaults to a no-op logger.
	Logger *sonago.Logger
	// Parallelism bounds the number of concurrent workers.
	// Defaults to GOMAXPROCS.
	Parallelism int
	// Stats mutates the BufStats options used by every worker.
	Stats []func(o *Options)
}

// Corpus fans BufStats processing out over many source buffers.
// Each worker owns its own BufStats instance, so no statistic state is
// ever shared between goroutines.
type Corpus struct {
	logger      *sonago.Logger
	parallelism int
	statFns     []func(o *Options)
}

// NewCorpus creates a Corpus. The statistic configuration is validated
// eagerly so a bad config fails here rather than mid-batch.
func NewCorpus(optFns ...func(o *CorpusOptions)) (*Corpus, error) {
	opts := CorpusOptions{
		Logger:      sonago.NoopLogger(),
		Parallelism: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if _, err := New(opts.Stats...); err != nil {
		return nil, err
	}
	return &Corpus{
		logger:      opts.Logger,
		parallelism: opts.Parallelism,
		statFns:     opts.Stats,
	}, nil
}

// ProcessAll computes statistics for every source. Results are returned
// in input order. The first failing source aborts the batch.
func (c *Corpus) ProcessAll(ctx context.Context, sources []Source) ([]*Output, error) {
	outs := make([]*Output, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bs, err := New(c.statFns...)
			if err != nil {
				return err
			}
			out, err := bs.Process(src.Data, src.NumFrames, src.NumChannels, src.Weights)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.WithCount(len(sources)).Debug("corpus batch completed")
	return outs, nil
}
