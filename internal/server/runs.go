package server

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/program"
)

// Run kinds.
const (
	kindProgram  = "program"
	kindInterval = "interval"
)

// run is one live workout. Exactly one of program and interval is set.
type run struct {
	id       uuid.UUID
	kind     string
	program  *program.Runner
	interval *interval.Runner
}

func (r *run) state() any {
	if r.program != nil {
		return r.program.State()
	}
	return r.interval.State()
}

func (r *run) done() <-chan struct{} {
	if r.program != nil {
		return r.program.Done()
	}
	return r.interval.Done()
}

func (r *run) close() {
	if r.program != nil {
		r.program.Close()
		return
	}
	r.interval.Close()
}

// registry owns the live runs. Finished runs are closed and evicted.
type registry struct {
	log  *slog.Logger
	mu   sync.Mutex
	runs map[uuid.UUID]*run
	wg   sync.WaitGroup
}

func newRegistry(log *slog.Logger) *registry {
	return &registry{log: log, runs: make(map[uuid.UUID]*run)}
}

func (g *registry) add(r *run) {
	r.id = uuid.New()
	g.mu.Lock()
	g.runs[r.id] = r
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		<-r.done()
		g.remove(r.id)
	}()
	g.log.Info("run created", "run_id", r.id, "kind", r.kind)
}

func (g *registry) get(id uuid.UUID) (*run, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.runs[id]
	return r, ok
}

// remove closes and forgets a run. It reports whether the run was known.
func (g *registry) remove(id uuid.UUID) bool {
	g.mu.Lock()
	r, ok := g.runs[id]
	delete(g.runs, id)
	g.mu.Unlock()
	if ok {
		r.close()
		g.log.Info("run closed", "run_id", id, "kind", r.kind)
	}
	return ok
}

func (g *registry) closeAll() {
	g.mu.Lock()
	ids := make([]uuid.UUID, 0, len(g.runs))
	for id := range g.runs {
		ids = append(ids, id)
	}
	g.mu.Unlock()

	for _, id := range ids {
		g.remove(id)
	}
	g.wg.Wait()
}
