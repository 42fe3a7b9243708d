// Package state implements the reactive DnX request/response engine:
// the downloader state enum, the session-wide flag context, and the ACK
// dispatcher that answers each device request.
package state

import (
	"fmt"

	"github.com/Tinnci/dnx-go/payload"
)

// DldrState is the downloader state. Transitions happen exclusively
// inside ACK handlers.
type DldrState int

const (
	StateInvalid DldrState = iota
	StateFwNormal
	StateFwMisc
	StateFwWipe
	StateOsNormal
	StateOsMisc
)

func (s DldrState) String() string {
	switch s {
	case StateInvalid:
		return "INVALID"
	case StateFwNormal:
		return "FW_NORMAL"
	case StateFwMisc:
		return "FW_MISC"
	case StateFwWipe:
		return "FW_WIPE"
	case StateOsNormal:
		return "OS_NORMAL"
	case StateOsMisc:
		return "OS_MISC"
	default:
		return fmt.Sprintf("DldrState(%d)", int(s))
	}
}

// IsFw reports whether this is a firmware download state.
func (s DldrState) IsFw() bool {
	return s == StateFwNormal || s == StateFwMisc || s == StateFwWipe
}

// IsOs reports whether this is an OS download state.
func (s DldrState) IsOs() bool {
	return s == StateOsNormal || s == StateOsMisc
}

// Context holds all runtime state of one session. Created at session
// start, mutated only on the session goroutine: by handlers, and by the
// session loop, which sets Abort on cancellation.
type Context struct {
	State DldrState

	FwDone   bool
	IfwiDone bool
	OsDone   bool
	Abort    bool
	GppReset bool

	GPFlags  uint32
	IfwiWipe bool

	// Chunk cursors, one per chunked region. Handlers borrow them one
	// at a time; the device re-issues a tag until its region drains.
	Psfw1Cursor payload.ChunkCursor
	Psfw2Cursor payload.ChunkCursor
	SsfwCursor  payload.ChunkCursor
	VedfwCursor payload.ChunkCursor
	IfwiCursor  payload.ChunkCursor
	OsCursor    payload.ChunkCursor
}

// NewContext creates a fresh context in the Invalid state.
func NewContext(gpFlags uint32, ifwiWipe bool) *Context {
	return &Context{
		GPFlags:  gpFlags,
		IfwiWipe: ifwiWipe,
	}
}

// GotoState transitions to a new downloader state.
func (c *Context) GotoState(s DldrState) {
	c.State = s
}

// IsComplete reports the terminal condition: firmware finished (or
// superseded by a GPP reset) and the OS stage finished.
func (c *Context) IsComplete() bool {
	return (c.FwDone || c.GppReset) && c.OsDone
}

// ShouldContinue reports whether the dispatch loop has work left.
func (c *Context) ShouldContinue() bool {
	return !c.Abort && !c.IsComplete()
}
