package publisher

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/suite"
)

// job is one case to publish under the item parentID.
type job struct {
	tc       *suite.Case
	parentID string
}

// runPool drains jobs with threads workers and waits for all of them. With
// threads <= 0 jobs run one after the other on the caller goroutine. The first
// error stops the jobs not yet started.
func runPool(ctx context.Context, threads int, jobs []job, fn func(context.Context, job) error) error {
	if threads <= 0 {
		for _, j := range jobs {
			if err := fn(ctx, j); err != nil {
				return err
			}
		}
		return nil
	}

	queue := make(chan job, len(jobs))
	for _, j := range jobs {
		queue <- j
	}
	close(queue)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for j := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(gctx, j); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
