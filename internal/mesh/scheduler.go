package mesh

import (
	"container/heap"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/light"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
	"github.com/brinkworld/voxelcore/internal/world/culling"
)

// MaxProcessingChunks bounds how many chunk builds the Scheduler runs
// concurrently.
const MaxProcessingChunks = 4

// job is one queued (re)build request.
type job struct {
	pos      vec.ChunkPos
	context  world.RerenderContext
	priority int64 // Manhattan distance to Scheduler.focus; smaller pops first
	index    int   // heap.Interface bookkeeping
}

// jobHeap implements heap.Interface ordered by ascending priority,
// grounded on the pathfinder's nodeHeap (F-score min-heap) pattern.
type jobHeap []*job

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h jobHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }

func (h *jobHeap) Push(x any) {
	j := x.(*job)
	j.index = len(*h)
	*h = append(*h, j)
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*h = old[:n-1]
	return j
}

// Scheduler runs chunk (re)builds — viewable-direction mask, light
// field, mesh buffers — on a bounded worker pool, prioritized by
// distance from a moving focus point (typically the nearest player).
// Grounded on the teacher's pathfinding A* open-set (container/heap
// min-heap of in-flight work) generalized from a one-shot search queue
// into a long-lived, re-prioritizable rebuild queue; the worker pool
// itself is an golang.org/x/sync/errgroup with SetLimit(MaxProcessingChunks),
// the bounded-pool mechanism the concurrency model calls for.
type Scheduler struct {
	store *world.Store
	cat   *catalog.Catalog

	mu     sync.Mutex
	queue  jobHeap
	queued map[vec.ChunkPos]*job
	focus  vec.ChunkPos

	results func(vec.ChunkPos, *Buffers)

	wake chan struct{}
}

// NewScheduler constructs a Scheduler bound to store/cat. onBuilt, if
// non-nil, is invoked (from a worker goroutine) with the freshly built
// buffers every time a chunk finishes.
func NewScheduler(store *world.Store, cat *catalog.Catalog, onBuilt func(vec.ChunkPos, *Buffers)) *Scheduler {
	return &Scheduler{
		store:   store,
		cat:     cat,
		queued:  make(map[vec.ChunkPos]*job),
		results: onBuilt,
		wake:    make(chan struct{}, 1),
	}
}

// SetFocus updates the point rebuild priority is measured from (e.g. on
// player movement), re-weighting every job still waiting in the queue.
func (s *Scheduler) SetFocus(pos vec.ChunkPos) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = pos
	for _, j := range s.queue {
		j.priority = j.pos.ManhattanDistance(s.focus)
	}
	heap.Init(&s.queue)
}

// Request enqueues pos for a rebuild under the given rerender context.
// A pos already queued keeps its existing entry but widens its context
// (Surrounding subsumes Adjacent subsumes None) rather than queuing
// twice.
func (s *Scheduler) Request(pos vec.ChunkPos, ctx world.RerenderContext) {
	s.mu.Lock()
	if existing, ok := s.queued[pos]; ok {
		if ctx > existing.context {
			existing.context = ctx
		}
		s.mu.Unlock()
		return
	}
	j := &job{pos: pos, context: ctx, priority: pos.ManhattanDistance(s.focus)}
	s.queued[pos] = j
	heap.Push(&s.queue, j)
	s.mu.Unlock()
	queueDepth.Inc()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue until ctx is cancelled: one goroutine consumes
// the store's RerenderChunkRequestEvent stream into Request calls,
// while the caller's goroutine dispatches queued jobs onto an errgroup
// capped at MaxProcessingChunks concurrent builds. Returns ctx.Err() on
// cancellation (matching errgroup's own convention for a cancelled
// group) or the first build error, if any were returned.
func (s *Scheduler) Run(ctx context.Context) error {
	go s.consumeEvents(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxProcessingChunks)

	for {
		j, ok := s.pop()
		if !ok {
			select {
			case <-gctx.Done():
				return g.Wait()
			case <-s.wake:
				continue
			}
		}

		g.Go(func() error {
			s.build(j)
			return nil
		})
	}
}

func (s *Scheduler) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.store.Events():
			if !ok {
				return
			}
			if rr, ok := ev.(world.RerenderChunkRequestEvent); ok {
				s.Request(rr.Pos, rr.Context)
			}
		}
	}
}

func (s *Scheduler) pop() (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	j := heap.Pop(&s.queue).(*job)
	delete(s.queued, j.pos)
	queueDepth.Dec()
	return j, true
}

// build performs one chunk's rebuild: recompute its light field,
// recompute the viewable-direction mask, build mesh buffers, publish
// ChunkRebuiltEvent. A chunk flagged AtEdge whose 6-neighborhood isn't
// fully resident is requeued, when the request's context is
// RerenderSurrounding, rather than published with guessed boundary
// faces; under any other context it is built with whichever neighbors
// are resident.
func (s *Scheduler) build(j *job) {
	chunk, ok := s.store.Get(j.pos)
	if !ok {
		return // unloaded since enqueue; drop silently
	}

	done := observeBuild(chunk.IsEmpty())
	defer done()

	neighborMap := s.store.Neighbors(j.pos)
	var sixNeighbors [6]*world.ChunkData
	for _, d := range vec.AllDirections {
		off := d.Offset()
		np := j.pos.Add(vec.ChunkPos{X: off.X, Y: off.Y, Z: off.Z})
		sixNeighbors[d] = neighborMap[np]
	}

	missingNeighbor := false
	for _, n := range sixNeighbors {
		if n == nil {
			missingNeighbor = true
			break
		}
	}
	atEdge := chunk.Flags.Has(world.FlagAtEdge)
	if atEdge && missingNeighbor && j.context == world.RerenderSurrounding {
		// The missing neighbor's own future Load re-requests this chunk
		// via RerenderSurrounding once it becomes resident.
		s.Request(j.pos, j.context)
		return
	}

	if chunk.IsEmpty() {
		// An all-air chunk keeps its current light field but is marked Ready.
		chunk.ReplaceLight(chunk.Snapshot().Light)
		chunk.SetMask(&culling.Mask{})
		buf := &Buffers{}
		if s.results != nil {
			s.results(j.pos, buf)
		}
		s.store.Publish(world.ChunkRebuiltEvent{Pos: j.pos})
		return
	}

	columnPos := vec.ColumnPos{X: j.pos.X, Z: j.pos.Z}
	field := light.Build(s.cat, j.pos, chunk, neighborMap, s.store.Column)
	chunk.ReplaceLight(field)
	if col, ok := s.store.Column(columnPos); ok {
		col.MarkClean()
	}

	mask := culling.Compute(s.cat, chunk, sixNeighbors, atEdge, !missingNeighbor)
	chunk.SetMask(mask)

	buf := Build(s.cat, chunk, mask, sixNeighbors)
	if s.results != nil {
		s.results(j.pos, buf)
	}
	s.store.Publish(world.ChunkRebuiltEvent{Pos: j.pos})

	if j.context == world.RerenderSurrounding {
		for _, d := range vec.AllDirections {
			off := d.Offset()
			np := j.pos.Add(vec.ChunkPos{X: off.X, Y: off.Y, Z: off.Z})
			if _, ok := s.store.Get(np); ok {
				s.Request(np, world.RerenderAdjacent)
			}
		}
	}
}
