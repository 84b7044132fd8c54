package sidecar

import (
	"bytes"
	"fmt"
)

// Kind tags an Event.
type Kind int

// Event kinds emitted by a child's output channel.
const (
	KindStdout Kind = iota
	KindStderr
	KindTerminated
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindStdout:
		return "stdout"
	case KindStderr:
		return "stderr"
	case KindTerminated:
		return "terminated"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ExitStatus describes how the child exited.
type ExitStatus struct {
	Code        int    // -1 when killed by a signal or unknown
	Description string // e.g. "exit status 1", "signal: killed"
}

func (s ExitStatus) String() string {
	if s.Description != "" {
		return s.Description
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Event is one item from a child's output channel.
// Line is set for KindStdout and KindStderr, Status for KindTerminated,
// Err for KindError.
type Event struct {
	Kind   Kind
	Line   []byte
	Status ExitStatus
	Err    error
}

// StdoutLine builds a stdout event.
func StdoutLine(line string) Event {
	return Event{Kind: KindStdout, Line: []byte(line)}
}

// StderrLine builds a stderr event.
func StderrLine(line string) Event {
	return Event{Kind: KindStderr, Line: []byte(line)}
}

// Terminated builds a termination event.
func Terminated(status ExitStatus) Event {
	return Event{Kind: KindTerminated, Status: status}
}

// trimEOL drops one trailing "\n" or "\r\n".
func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}
