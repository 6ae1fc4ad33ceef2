package inspect

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Target names one dataset to inspect: the container file path and the
// dataset inside it.
type Target struct {
	Path    string
	Dataset string
}

// InspectAll inspects many targets concurrently using a bounded worker pool.
// Each target gets its own single-threaded engine; maxWorkers <= 0 leaves the
// pool unbounded. Reports come back in target order.
func InspectAll(ctx context.Context, targets []Target, maxWorkers int, opts ...Option) ([]*Report, error) {
	p := pool.New().WithContext(ctx)
	if maxWorkers > 0 {
		p = p.WithMaxGoroutines(maxWorkers)
	}

	reports := make([]*Report, len(targets))
	for i, target := range targets {
		i, target := i, target
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in, err := NewFromFile(target.Dataset, target.Path, opts...)
			if err != nil {
				return fmt.Errorf("failed to inspect %q in %s: %w", target.Dataset, target.Path, err)
			}
			defer in.Close()

			report := BuildReport(in)
			report.Path = target.Path
			reports[i] = report
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
