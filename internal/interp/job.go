package interp

import (
	"sort"
	"sync"
)

// bgJob is one background command (`cmd &`, §5 background jobs): a single
// goroutine's exit status, collected once and then replayed to every
// waiter.
type bgJob struct {
	pid    int
	done   chan struct{}
	status int
}

// jobTable tracks every background job spawned by an Interp, shared by
// pointer across the shallow *Interp copies runSubshell/runPipelineStage/
// runBackground make (§6: one job table per shell process, not per scope
// frame), so `wait` sees jobs launched from any subshell the same way a real
// shell's job table is process-wide. `$!` (LastBgPID) is set only on the
// copy that spawned the job.
type jobTable struct {
	mu      sync.Mutex
	jobs    map[int]*bgJob
	nextPID int
}

func newJobTable() *jobTable {
	return &jobTable{jobs: map[int]*bgJob{}, nextPID: 1000}
}

func (t *jobTable) spawn() *bgJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextPID++
	j := &bgJob{pid: t.nextPID, done: make(chan struct{})}
	t.jobs[j.pid] = j
	return j
}

func (t *jobTable) finish(j *bgJob, status int) {
	j.status = status
	close(j.done)
}

// wait blocks until pid's job finishes and returns its status, or (0,
// false) if no such job was ever spawned (§7: `wait` on an unknown pid is a
// usage error, left to the builtin layer to report).
func (t *jobTable) wait(pid int) (int, bool) {
	t.mu.Lock()
	j, ok := t.jobs[pid]
	t.mu.Unlock()
	if !ok {
		return 0, false
	}
	<-j.done
	return j.status, true
}

// waitAll blocks until every currently-known job has finished, returning
// their statuses in spawn order — used both by `wait` with no operands and
// by the shell-exit reap (§5: "background children whose status was not
// collected are reaped at shell exit").
func (t *jobTable) waitAll() []int {
	t.mu.Lock()
	pids := make([]int, 0, len(t.jobs))
	for pid := range t.jobs {
		pids = append(pids, pid)
	}
	t.mu.Unlock()
	sort.Ints(pids)
	statuses := make([]int, 0, len(pids))
	for _, pid := range pids {
		t.mu.Lock()
		j := t.jobs[pid]
		t.mu.Unlock()
		<-j.done
		statuses = append(statuses, j.status)
	}
	return statuses
}
