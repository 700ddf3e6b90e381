package concept

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// visitedSet is a mutation-safe set of concept uuids shared by all
// traversal goroutines. It doubles as the cycle guard: add reports
// whether the uuid was newly inserted.
type visitedSet struct {
	mu sync.Mutex
	m  map[string]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{m: make(map[string]struct{})}
}

func (v *visitedSet) add(uuid string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.m[uuid]; ok {
		return false
	}
	v.m[uuid] = struct{}{}
	return true
}

func (v *visitedSet) snapshot() map[string]struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]struct{}, len(v.m))
	for k := range v.m {
		out[k] = struct{}{}
	}
	return out
}

// SetResolver computes the transitive closure of concept-set membership
// starting from a root uuid. Sibling members are fetched concurrently up
// to the configured worker limit; any fetch failure aborts the whole
// resolution so that allowance decisions never use a partial closure.
type SetResolver struct {
	source  Source
	workers int
}

// NewSetResolver creates a resolver. workers <= 0 resolves sequentially.
func NewSetResolver(source Source, workers int) *SetResolver {
	if workers <= 0 {
		workers = 1
	}
	return &SetResolver{source: source, workers: workers}
}

// Resolve returns the set of all uuids reachable from rootUUID through
// set membership, including the root itself. An empty root yields an
// empty set. Cycles terminate via the visited guard.
func (r *SetResolver) Resolve(ctx context.Context, rootUUID string) (map[string]struct{}, error) {
	visited := newVisitedSet()
	if rootUUID == "" {
		return visited.snapshot(), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	g.Go(func() error {
		return r.expand(gctx, g, rootUUID, visited)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return visited.snapshot(), nil
}

// expand visits one node and schedules its members. When the worker
// limit is saturated the member is expanded inline on the current
// goroutine, which keeps the traversal deadlock-free.
func (r *SetResolver) expand(ctx context.Context, g *errgroup.Group, uuid string, visited *visitedSet) error {
	if uuid == "" || !visited.add(uuid) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := r.source.GetConcept(ctx, uuid)
	if err != nil {
		return fmt.Errorf("resolve members of %s: %w", uuid, err)
	}

	for _, member := range c.SetMembers {
		memberUUID := member.UUID
		scheduled := g.TryGo(func() error {
			return r.expand(ctx, g, memberUUID, visited)
		})
		if !scheduled {
			if err := r.expand(ctx, g, memberUUID, visited); err != nil {
				return err
			}
		}
	}
	return nil
}
