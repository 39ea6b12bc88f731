package frontier

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/napolitain/blueprint-solver/internal/models"
)

// parallelThreshold is the smallest frontier worth splitting across workers.
var parallelThreshold = 256

// expand generates every candidate of the frontier. With more than one
// worker, large frontiers are split into contiguous chunks and the chunk
// results are concatenated in order, so the output matches a sequential run.
func (s *Solver) expand(ctx context.Context, dst []node, frontier []node, lim *limits) ([]node, error) {
	workers := min(s.cfg.Workers, len(frontier))
	if workers <= 1 || len(frontier) < parallelThreshold {
		return s.expandRange(dst, frontier, lim), nil
	}

	size := (len(frontier) + workers - 1) / workers
	parts := make([][]node, 0, workers)
	for lo := 0; lo < len(frontier); lo += size {
		parts = append(parts, frontier[lo:min(lo+size, len(frontier))])
	}

	results := make([][]node, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.expandRange(nil, part, lim)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		dst = append(dst, r...)
	}
	return dst, nil
}

// expandRange appends the candidates of every node in frontier to dst.
func (s *Solver) expandRange(dst []node, frontier []node, lim *limits) []node {
	var buf [1 + models.NumProducers]move
	for _, n := range frontier {
		for _, m := range s.moves(buf[:0], n.state, lim) {
			path := n.path
			if m.built != buildNothing {
				path = path.push(n.state.Time+1, m.built)
			}
			dst = append(dst, node{state: m.state, path: path})
		}
	}
	return dst
}
