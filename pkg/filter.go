package pkg

import (
	"fmt"
)

type Verdict int

const (
	Undecided Verdict = iota
	Keep
	Drop
)

func (v Verdict) String() string {
	switch v {
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	}
	return "undecided"
}

// Filter normalizes and selects process records before serialization.
//
// Adjust may rewrite p.Cmdline to remove volatile parts. Include returns
// Undecided to let the next filter in the chain decide.
type Filter interface {
	Name() string
	Adjust(p *Process)
	Include(p *Process, run *Run) Verdict
}

// Run holds the state of one formatter invocation.
type Run struct {
	seen *KeySet
}

func NewRun() *Run {
	return &Run{seen: NewKeySet()}
}

// FirstSeen reports whether p is the first record with its (ppid, user,
// cmdline) combination in this run.
func (r *Run) FirstSeen(p *Process) bool {
	return r.seen.Add(fmt.Sprintf("%d\x00%s\x00%s", p.Ppid, p.User, p.Cmdline))
}

type Formatter struct {
	// Self is the pid of the invoking process; it and its children are
	// never reported. Zero disables the check.
	Self int32

	filters []Filter
}

// NewFormatter chains filters in the given order. Kernel threads and Self
// are excluded before any of them is consulted.
func NewFormatter(filters ...Filter) *Formatter {
	return &Formatter{filters: filters}
}

// DefaultFormatter uses only the built-in rules.
func DefaultFormatter() *Formatter {
	return NewFormatter(&Builtin{})
}

func (f *Formatter) Filters() []Filter {
	return f.filters
}

func (f *Formatter) adjust(p *Process) {
	for _, filter := range f.filters {
		filter.Adjust(p)
	}
}

func (f *Formatter) include(p *Process, run *Run) bool {
	if isKernelThread(p) || f.isSelf(p) {
		return false
	}
	for _, filter := range f.filters {
		switch filter.Include(p, run) {
		case Keep:
			return true
		case Drop:
			return false
		}
	}
	return true
}

func (f *Formatter) isSelf(p *Process) bool {
	return f.Self != 0 && (p.Pid == f.Self || p.HasAncestor(isPid(f.Self)))
}

func isKernelThread(p *Process) bool {
	return p.Pid == 2 || p.HasAncestor(isPid(2))
}
