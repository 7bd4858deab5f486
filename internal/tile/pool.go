package tile

import (
	"context"
	"sync"

	"github.com/jeffboody/osmdb-sub002/pkg/osmdbtypes"
)

// Job is one tile-build request submitted to a Pool.
type Job struct {
	TileCoordinates osmdbtypes.TileCoordinates
	Changeset       int64
}

// Result is one completed (or failed) tile build.
type Result struct {
	Job  Job
	Blob []byte
	Err  error
}

// Pool runs a fixed number of worker goroutines, each serving tile
// requests end-to-end with its own thread id (tid), per spec §5's
// scheduling model: thread identity selects the per-thread statement
// set used for range/search queries.
type Pool struct {
	driver   *Driver
	nthreads int
}

// NewPool creates a Pool of nthreads workers over driver.
func NewPool(driver *Driver, nthreads int) *Pool {
	if nthreads < 1 {
		nthreads = 1
	}
	return &Pool{driver: driver, nthreads: nthreads}
}

// Run drains jobs, dispatching each to a worker goroutine identified
// by tid in [0, nthreads), and returns one Result per Job in
// submission order (results[i] is the outcome of jobs[i]).
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	jobCh := make(chan int)

	var wg sync.WaitGroup
	for tid := 0; tid < p.nthreads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for i := range jobCh {
				j := jobs[i]
				c := j.TileCoordinates
				blob, err := p.driver.Build(ctx, tid, c.Z, c.X, c.Y, j.Changeset)
				results[i] = Result{Job: j, Blob: blob, Err: err}
			}
		}(tid)
	}

	for i := range jobs {
		select {
		case jobCh <- i:
		case <-ctx.Done():
			results[i] = Result{Job: jobs[i], Err: ctx.Err()}
		}
	}
	close(jobCh)
	wg.Wait()

	return results
}
