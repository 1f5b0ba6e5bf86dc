// Package runner drives a scheduler's frame loop under an idle-timeout
// stop condition: a counted polling loop that keeps running while there is
// work in flight and shuts itself down, invoking a callback, once nothing
// has happened for a configurable number of consecutive checks.
package runner

import (
	"time"

	"github.com/voodooEntity/reactor/internal/archivist"
	"github.com/voodooEntity/reactor/internal/scheduler"
)

// Runner polls a Scheduler's pending work and stops itself once it has
// been idle for more than idleLimit consecutive checks.
type Runner struct {
	sched     *scheduler.Scheduler
	interval  time.Duration
	idleLimit int
	onStop    func()
	log       *archivist.Archivist
	stopCh    chan struct{}
}

// New builds a Runner. onStop may be nil.
func New(sched *scheduler.Scheduler, interval time.Duration, idleLimit int, onStop func(), log *archivist.Archivist) *Runner {
	return &Runner{sched: sched, interval: interval, idleLimit: idleLimit, onStop: onStop, log: log}
}

// Loop blocks, polling every interval, until either Stop is called or the
// scheduler has had nothing pending for more than idleLimit consecutive
// checks.
func (r *Runner) Loop() {
	r.sched.StartFrameLoop(r.interval)
	r.stopCh = make(chan struct{})
	idle := 0
	for {
		select {
		case <-r.stopCh:
			r.endgame()
			return
		case <-time.After(r.interval):
		}
		if r.sched.PendingCount() > 0 {
			idle = 0
			continue
		}
		idle++
		if idle > r.idleLimit {
			r.endgame()
			return
		}
	}
}

// Stop requests the loop end on its next check.
func (r *Runner) Stop() {
	if r.stopCh != nil {
		close(r.stopCh)
	}
}

func (r *Runner) endgame() {
	if r.log != nil {
		r.log.Info("runner: idle for too long, stopping frame loop")
	}
	r.sched.StopFrameLoop()
	if r.onStop != nil {
		r.onStop()
	}
}
