package locator

import (
	"context"
	"sync"
	"time"
)

// Phase is the stage a background build is in.
type Phase string

const (
	PhaseExtracting Phase = "extracting"
	PhaseEmbedding  Phase = "embedding"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// ProgressSnapshot is an immutable view of a running build.
type ProgressSnapshot struct {
	Phase          Phase   `json:"phase"`
	Source         string  `json:"source,omitempty"`
	PagesDone      int     `json:"pages_done"`
	ChunksEmbedded int     `json:"chunks_embedded"`
	ChunksTotal    int     `json:"chunks_total"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Progress tracks a background build. Safe for concurrent use.
type Progress struct {
	mu sync.RWMutex

	phase     Phase
	source    string
	pagesDone int
	embedded  int
	total     int
	start     time.Time
	errMsg    string
}

func newProgress() *Progress {
	return &Progress{phase: PhaseExtracting, start: time.Now()}
}

func (p *Progress) pageDone(source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	p.pagesDone++
}

func (p *Progress) embedDone(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = PhaseEmbedding
	p.embedded = done
	p.total = total
}

func (p *Progress) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.phase = PhaseFailed
		p.errMsg = err.Error()
		return
	}
	p.phase = PhaseDone
}

// Snapshot returns a copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProgressSnapshot{
		Phase:          p.phase,
		Source:         p.source,
		PagesDone:      p.pagesDone,
		ChunksEmbedded: p.embedded,
		ChunksTotal:    p.total,
		ElapsedSeconds: time.Since(p.start).Seconds(),
		ErrorMessage:   p.errMsg,
	}
}

// Runner executes one index build in a background goroutine so callers
// can keep serving queries against the previous snapshot, poll progress,
// or cancel. When deep is set the build is followed by the embedding
// precompute pass.
type Runner struct {
	loc  *HybridLocator
	deep bool

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	progress *Progress
	err      error
}

// NewRunner creates a runner for the locator.
func NewRunner(loc *HybridLocator, deep bool) *Runner {
	return &Runner{loc: loc, deep: deep}
}

// Running reports whether a build is in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Progress returns the tracker of the current or last build, nil if no
// build has started.
func (r *Runner) Progress() *Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Start launches a build of folder. A second Start while one is in
// flight is a no-op.
func (r *Runner) Start(ctx context.Context, folder string) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.doneCh = make(chan struct{})
	r.progress = newProgress()
	r.err = nil
	progress, doneCh := r.progress, r.doneCh
	r.mu.Unlock()

	go func() {
		defer close(doneCh)
		defer cancel()

		err := r.loc.Build(ctx, folder, BuildOptions{
			Progress: func(source string, page, total int) {
				progress.pageDone(source)
			},
		})
		if err == nil && r.deep {
			err = r.loc.PrecomputeEmbeddings(ctx, progress.embedDone)
		}
		progress.finish(err)

		r.mu.Lock()
		r.running = false
		r.err = err
		r.mu.Unlock()
	}()
}

// Cancel aborts the in-flight build, if any, and waits for it to stop.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel, doneCh := r.cancel, r.doneCh
	running := r.running
	r.mu.Unlock()
	if !running || cancel == nil {
		return
	}
	cancel()
	<-doneCh
}

// Wait blocks until the build finishes and returns its error.
func (r *Runner) Wait() error {
	r.mu.Lock()
	doneCh := r.doneCh
	r.mu.Unlock()
	if doneCh != nil {
		<-doneCh
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
