package sidecar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/craftgen/craftgen/internal/logging"
)

// ExecLauncher starts the worker as a real OS process.
// Stdout and stderr are read line by line on separate goroutines; exit is
// reported once both streams are drained.
type ExecLauncher struct{}

// Launch starts spec. The context only gates the start; the process
// outlives it and is stopped through Child.Kill.
func (ExecLauncher) Launch(ctx context.Context, spec LaunchSpec) (Child, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Program(), spec.Args()...)
	cmd.Env = spec.Environ(os.Environ())
	setProcAttrs(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecFailed, err)
	}

	c := &execChild{
		cmd:   cmd,
		pid:   cmd.Process.Pid,
		queue: newEventQueue(),
		done:  make(chan struct{}),
	}
	go c.watch(stdout, stderr)
	return c, nil
}

type execChild struct {
	cmd   *exec.Cmd
	pid   int
	queue *eventQueue
	done  chan struct{}
}

func (c *execChild) PID() int              { return c.pid }
func (c *execChild) Events() <-chan Event  { return c.queue.out }
func (c *execChild) Done() <-chan struct{} { return c.done }

func (c *execChild) exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// watch drains both pipes, reaps the process and emits Terminated last.
func (c *execChild) watch(stdout, stderr io.Reader) {
	defer logging.LogPanic("sidecar-exec-watch", nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.readLines(stdout, KindStdout)
	}()
	go func() {
		defer wg.Done()
		c.readLines(stderr, KindStderr)
	}()
	wg.Wait()

	status := exitStatus(c.cmd.Wait())
	close(c.done)

	c.queue.push(Terminated(status))
	c.queue.close()
}

func (c *execChild) readLines(r io.Reader, kind Kind) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			c.queue.push(Event{Kind: kind, Line: trimEOL(line)})
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				c.queue.push(Event{Kind: KindError, Err: fmt.Errorf("read %s: %w", kind, err)})
			}
			return
		}
	}
}

func exitStatus(err error) ExitStatus {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return ExitStatus{Code: 0, Description: "exit status 0"}
	case errors.As(err, &exitErr):
		return ExitStatus{Code: exitErr.ExitCode(), Description: exitErr.ProcessState.String()}
	default:
		return ExitStatus{Code: -1, Description: err.Error()}
	}
}

// eventQueue is an unbounded FIFO between the pipe readers and the pump.
// push never waits on the consumer.
type eventQueue struct {
	in  chan Event
	out chan Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		in:  make(chan Event),
		out: make(chan Event),
	}
	go q.run()
	return q
}

func (q *eventQueue) push(ev Event) {
	q.in <- ev
}

// close stops intake; out is closed after the backlog is delivered.
func (q *eventQueue) close() {
	close(q.in)
}

func (q *eventQueue) run() {
	defer close(q.out)

	var pending []Event
	in := q.in
	for in != nil || len(pending) > 0 {
		var out chan Event
		var next Event
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, ev)
		case out <- next:
			pending[0] = Event{}
			pending = pending[1:]
		}
	}
}
