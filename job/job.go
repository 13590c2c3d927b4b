// Package job implements cjsh's job table, foreground/background
// transitions, terminal process-group transfer, and the pending-signal
// drain loop a job-control shell needs.
//
// interp/handler_unix.go already starts every external command in its
// own process group (Setpgid) and signals it by group (Kill(-pid, ...));
// this package generalizes that one-shot pattern into a persistent table
// so pipelines can be stopped, resumed, and foregrounded independently of
// the command that started them, and adds the terminal-group transfer
// (tcsetpgrp) mvdan-sh never needed since it is a library, not an
// interactive shell.
package job

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// State is a job's run state.
type State int

const (
	Running State = iota
	Stopped
	Done
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Process is one member of a job's pipeline.
type Process struct {
	Pid      int
	Command  string
	Done     bool
	Status   int
	Signaled bool
	Signal   syscall.Signal
}

// Job is one pipeline started by the shell, foreground or background.
type Job struct {
	ID         int
	PGID       int
	Command    string
	Processes  []*Process
	Background bool
}

// State derives the job's overall state from its processes: done only
// when every process has exited, stopped when none are running but at
// least one was stopped rather than exited.
func (j *Job) State() State {
	anyStopped := false
	for _, p := range j.Processes {
		if !p.Done {
			if p.Status == statusStopped {
				anyStopped = true
				continue
			}
			return Running
		}
	}
	if anyStopped {
		return Stopped
	}
	return Done
}

// ExitStatus is the exit status of the job's last process, the status a
// pipeline reports to `$?`.
func (j *Job) ExitStatus() int {
	if len(j.Processes) == 0 {
		return 0
	}
	last := j.Processes[len(j.Processes)-1]
	if last.Signaled {
		return 128 + int(last.Signal)
	}
	return last.Status
}

const statusStopped = -1 // sentinel Process.Status while stopped, never a real exit code

// Manager owns the job table, the controlling terminal, and the
// pending-signal bitmap for one shell process.
type Manager struct {
	mu sync.Mutex

	ttyFd     int
	shellPGID int
	huponexit bool

	jobs    map[int]*Job
	nextID  int
	current int
	prev    int

	pending *pendingSignals
	traps   map[string]func()
}

// NewManager puts the shell in its own process group, takes the
// controlling terminal, and ignores the job-control signals the shell
// itself must never be stopped or interrupted by.
func NewManager(ttyFd int) (*Manager, error) {
	m := &Manager{
		ttyFd:     ttyFd,
		shellPGID: syscall.Getpid(),
		jobs:      map[int]*Job{},
		nextID:    1,
		pending:   newPendingSignals(),
		traps:     map[string]func(){},
	}
	if err := unix.Setpgid(0, m.shellPGID); err != nil {
		return nil, fmt.Errorf("job: setpgid: %w", err)
	}
	if ttyFd >= 0 {
		if err := unix.Tcsetpgrp(ttyFd, int32(m.shellPGID)); err != nil {
			return nil, fmt.Errorf("job: tcsetpgrp: %w", err)
		}
	}
	ignoreTTYSignals()
	m.watchSignals()
	return m, nil
}

// SetHupOnExit controls whether Shutdown sends SIGHUP to surviving jobs.
func (m *Manager) SetHupOnExit(v bool) { m.huponexit = v }

// Add registers a freshly started pipeline as a new job and assigns it
// the next job-id, marking it the current ('+') job.
func (m *Manager) Add(pgid int, command string, background bool, procs []*Process) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := &Job{ID: m.nextID, PGID: pgid, Command: command, Processes: procs, Background: background}
	m.jobs[j.ID] = j
	m.nextID++
	m.prev = m.current
	m.current = j.ID
	return j
}

// SetForeground transfers the controlling terminal to pgid. Pass the
// shell's own pgid to reclaim it.
func (m *Manager) SetForeground(pgid int) error {
	if m.ttyFd < 0 {
		return nil
	}
	return unix.Tcsetpgrp(m.ttyFd, int32(pgid))
}

// WaitForeground blocks until j's process group stops or every process
// in it exits, draining SIGCHLD (and reaping other jobs' children along
// the way, since wait(-1) collects across the whole process) until j
// itself is Done or Stopped, then reclaims the terminal.
func (m *Manager) WaitForeground(j *Job) (int, error) {
	defer m.SetForeground(m.shellPGID)
	for {
		state := j.State()
		if state == Done || state == Stopped {
			if state == Done {
				m.removeLocked(j.ID)
			}
			return j.ExitStatus(), nil
		}
		if err := m.reapOnce(true); err != nil {
			return j.ExitStatus(), err
		}
	}
}

// reapOnce performs one waitpid(-1, WNOHANG|WUNTRACED|WCONTINUED) pass
// (or a blocking wait if block is true and nothing is immediately
// reapable) and updates every job's process table. It is the single
// place job state is ever mutated outside Add: the job table is owned by
// the shell process and mutated only on the main thread, never from a
// signal handler.
func (m *Manager) reapOnce(block bool) error {
	var ws syscall.WaitStatus
	flags := unix.WUNTRACED | unix.WCONTINUED
	if !block {
		flags |= unix.WNOHANG
	}
	pid, err := unix.Wait4(-1, &ws, flags, nil)
	if err == syscall.ECHILD {
		return nil
	}
	if err != nil {
		return err
	}
	if pid <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		for _, p := range j.Processes {
			if p.Pid != pid {
				continue
			}
			switch {
			case ws.Exited():
				p.Done = true
				p.Status = ws.ExitStatus()
			case ws.Signaled():
				p.Done = true
				p.Signaled = true
				p.Signal = ws.Signal()
			case ws.Stopped():
				p.Status = statusStopped
			case ws.Continued():
				p.Status = 0
			}
		}
	}
	return nil
}

// Drain is the safe-spot signal handler: read and clear the pending
// bitmap under precedence SIGTERM > SIGHUP > SIGINT > SIGCHLD > others,
// and invoke the matching registered trap (or the default action for
// SIGCHLD, which is always to reap). It returns the signal that fired,
// or 0 if none were pending.
func (m *Manager) Drain() syscall.Signal {
	sig := m.pending.takeHighest()
	if sig == 0 {
		return 0
	}
	if sig == syscall.SIGCHLD {
		m.reapOnce(false)
	}
	if fn, ok := m.traps[sig.String()]; ok {
		fn()
	}
	return sig
}

// SetTrap registers fn to run the next time sig is drained. Passing a
// nil fn clears a previously registered trap.
func (m *Manager) SetTrap(sig syscall.Signal, fn func()) {
	if fn == nil {
		delete(m.traps, sig.String())
		return
	}
	m.traps[sig.String()] = fn
}

// Bg resumes a stopped job in the background: SIGCONT its process group
// without reclaiming the terminal.
func (m *Manager) Bg(id int) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("bg: job %d not found", id)
	}
	if err := unix.Kill(-j.PGID, syscall.SIGCONT); err != nil {
		return err
	}
	for _, p := range j.Processes {
		if p.Status == statusStopped {
			p.Status = 0
		}
	}
	j.Background = true
	return nil
}

// Fg brings a job into the foreground: transfer the terminal, resume it
// if stopped, then wait for it as a new foreground job would be waited
// for.
func (m *Manager) Fg(id int) (int, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("fg: job %d not found", id)
	}
	if err := m.SetForeground(j.PGID); err != nil {
		return 0, err
	}
	if j.State() == Stopped {
		if err := unix.Kill(-j.PGID, syscall.SIGCONT); err != nil {
			return 0, err
		}
	}
	j.Background = false
	return m.WaitForeground(j)
}

// Jobs lists every tracked job, most recently started last, formatted
// as `jobs` would print it: "[id]+ Running   cmd &", the '+' marking the
// current job and '-' the previous one.
func (m *Manager) Jobs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		j := m.jobs[id]
		marker := " "
		switch id {
		case m.current:
			marker = "+"
		case m.prev:
			marker = "-"
		}
		line := fmt.Sprintf("[%d]%s  %-8s %s", j.ID, marker, j.State(), j.Command)
		if j.Background {
			line += " &"
		}
		lines = append(lines, line)
	}
	return lines
}

// Remove drops a job from the table, e.g. once `jobs` or `wait` has
// reported it Done.
func (m *Manager) Remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id int) {
	delete(m.jobs, id)
	if m.current == id {
		m.current = m.prev
		m.prev = 0
	} else if m.prev == id {
		m.prev = 0
	}
}

// Resolve parses a kill/fg/bg-style job or pid spec ("%3", "%+", "%%",
// plain pid) into a signal target: a negative pgid for a job spec, the
// literal pid otherwise.
func (m *Manager) Resolve(spec string) (int, error) {
	if !strings.HasPrefix(spec, "%") {
		pid, err := strconv.Atoi(spec)
		if err != nil {
			return 0, fmt.Errorf("invalid pid %q", spec)
		}
		return pid, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rest := spec[1:]
	var id int
	switch rest {
	case "", "%", "+":
		id = m.current
	case "-":
		id = m.prev
	default:
		n, err := strconv.Atoi(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid job spec %q", spec)
		}
		id = n
	}
	j, ok := m.jobs[id]
	if !ok {
		return 0, fmt.Errorf("%s: no such job", spec)
	}
	return -j.PGID, nil
}

// Kill resolves spec (a job spec or a pid) and sends sig to it.
func (m *Manager) Kill(spec string, sig syscall.Signal) error {
	target, err := m.Resolve(spec)
	if err != nil {
		return err
	}
	return unix.Kill(target, sig)
}

// Shutdown implements the exit-time huponexit policy: if
// enabled, SIGHUP every surviving job, then SIGCONT any still stopped so
// they do not linger stopped forever after the shell that owned their
// terminal is gone.
func (m *Manager) Shutdown() {
	if !m.huponexit {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		unix.Kill(-j.PGID, syscall.SIGHUP)
	}
	for _, j := range m.jobs {
		if j.State() == Stopped {
			unix.Kill(-j.PGID, syscall.SIGCONT)
		}
	}
}
