// README: Generation job registry: opaque job ids, polling reads, cancellation.
package generation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"wander/internal/types"
)

// job is one registered run. The snapshot pointer is replaced wholesale on
// every progress event; pollers read it under the registry lock and never
// see a partially written record.
type job struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	cancel   context.CancelFunc
	done     bool
}

func (j *job) publish(s Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	// Percent never goes backwards, even if events arrive reordered.
	if j.snapshot != nil && s.Percent < j.snapshot.Percent && s.Stage != StageError {
		s.Percent = j.snapshot.Percent
	}
	snap := s
	j.snapshot = &snap
	if s.Stage.IsTerminal() {
		j.done = true
	}
}

func (j *job) read() Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return *j.snapshot
}

// Registry owns all in-flight and finished jobs for this process. Jobs do
// not survive a restart.
type Registry struct {
	mu   sync.RWMutex
	jobs map[types.ID]*job
	orch *Orchestrator
}

func NewRegistry(orch *Orchestrator) *Registry {
	return &Registry{
		jobs: map[types.ID]*job{},
		orch: orch,
	}
}

// Start registers a new job and launches its orchestrator run in the
// background, returning immediately with the job id. The run owns its own
// context: abandoning the HTTP request that started it does not kill it,
// only an explicit Cancel does.
func (r *Registry) Start(params Params) (types.ID, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	jobID := types.ID(uuid.NewString())
	runCtx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel}
	j.publish(Snapshot{JobID: jobID, Stage: StageStarted, Percent: 0, UpdatedAt: time.Now()})

	r.mu.Lock()
	r.jobs[jobID] = j
	r.mu.Unlock()

	// Progress events flow through a channel sized for the worst case, so
	// the pipeline's emit calls can never block on a slow reader.
	events := make(chan Snapshot, len(params.Destinations)+4)
	drained := make(chan struct{})
	go func() {
		for s := range events {
			j.publish(s)
		}
		close(drained)
	}()

	go func() {
		defer cancel()
		_, err := r.orch.Run(runCtx, jobID, params, func(s Snapshot) { events <- s })
		close(events)
		// Wait for the dispatcher to drain so a buffered progress event can
		// never overwrite the terminal snapshot.
		<-drained
		if err != nil {
			log.Printf("job %s failed: %v", jobID, err)
			msg := err.Error()
			if errors.Is(err, context.Canceled) {
				msg = "generation cancelled"
			}
			j.publish(Snapshot{
				JobID:     jobID,
				Stage:     StageError,
				Percent:   100,
				Error:     msg,
				UpdatedAt: time.Now(),
			})
		}
	}()

	return jobID, nil
}

// Poll returns the latest snapshot for a job.
func (r *Registry) Poll(jobID types.ID) (Snapshot, error) {
	r.mu.RLock()
	j, ok := r.jobs[jobID]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrJobNotFound
	}
	return j.read(), nil
}

// Cancel aborts a running job. The orchestrator notices at its next stage
// boundary and the job terminates with an error snapshot. Canceling a
// finished job is an error so callers can distinguish "stopped it" from
// "it was already over".
func (r *Registry) Cancel(jobID types.ID) error {
	r.mu.RLock()
	j, ok := r.jobs[jobID]
	r.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}

	j.mu.RLock()
	done := j.done
	j.mu.RUnlock()
	if done {
		return ErrJobNotRunning
	}

	j.cancel()
	return nil
}
