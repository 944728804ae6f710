package pkg

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrDuplicatePid  = errors.New("duplicate pid")
	ErrMissingParent = errors.New("parent pid not in listing")
	ErrCycle         = errors.New("cyclic parent links")
	ErrMalformedLine = errors.New("malformed listing line")
)

// user pid ppid fname args
var listingLine = regexp.MustCompile(`^\s*(\S+)\s+(\S+)\s+(\S+)\s+(\S+)(?:\s+(.*))?$`)

type Tree struct {
	Root  *Process
	ByPid map[int32]*Process
}

func NewTree() *Tree {
	root := &Process{
		Pid:     0,
		Ppid:    NoParent,
		User:    "root",
		Exe:     "root",
		Cmdline: "root",
	}
	return &Tree{
		Root:  root,
		ByPid: map[int32]*Process{0: root},
	}
}

// BuildTree adds all processes to a fresh tree and links them.
func BuildTree(processes []*Process) (*Tree, error) {
	t := NewTree()
	for _, p := range processes {
		if err := t.Add(p); err != nil {
			return nil, err
		}
	}
	if err := t.FixLinks(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) Add(p *Process) error {
	if _, ok := t.ByPid[p.Pid]; ok {
		return pkgerrors.Wrapf(ErrDuplicatePid, "pid %d", p.Pid)
	}
	t.ByPid[p.Pid] = p
	return nil
}

// FixLinks resolves parent pids into Parent/Children pointers. Listing
// order is arbitrary, so this runs after every process has been added.
func (t *Tree) FixLinks() error {
	for _, p := range t.ByPid {
		p.Parent = nil
		p.Children = nil
	}
	for pid, p := range t.ByPid {
		if p == t.Root {
			continue
		}
		parent, ok := t.ByPid[p.Ppid]
		if !ok {
			return pkgerrors.Wrapf(ErrMissingParent, "pid %d has ppid %d", pid, p.Ppid)
		}
		p.Parent = parent
		parent.Children = append(parent.Children, p)
	}
	return checkCycles(t)
}

// Clone copies every process and its links, so the copy can be adjusted
// without touching t.
func (t *Tree) Clone() *Tree {
	c := &Tree{ByPid: make(map[int32]*Process, len(t.ByPid))}
	for pid, p := range t.ByPid {
		cp := *p
		cp.Parent, cp.Children = nil, nil
		c.ByPid[pid] = &cp
	}
	c.Root = c.ByPid[t.Root.Pid]

	var link func(orig *Process)
	link = func(orig *Process) {
		parent := c.ByPid[orig.Pid]
		for _, child := range orig.Children {
			cp := c.ByPid[child.Pid]
			cp.Parent = parent
			parent.Children = append(parent.Children, cp)
			link(child)
		}
	}
	link(t.Root)
	return c
}

// Len returns the number of processes, the synthetic root excluded.
func (t *Tree) Len() int {
	return len(t.ByPid) - 1
}

// Walk visits every process below the root in pre-order.
func (t *Tree) Walk(visit func(*Process)) {
	var walk func(p *Process)
	walk = func(p *Process) {
		for _, c := range p.Children {
			visit(c)
			walk(c)
		}
	}
	walk(t.Root)
}

// ParseListing reads `user pid ppid fname args` rows. The first non-blank
// line is the header.
func ParseListing(r io.Reader) ([]*Process, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var processes []*Process
	header := true
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		p, err := parseListingLine(line)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "line %d", lineno)
		}
		processes = append(processes, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "read listing")
	}
	return processes, nil
}

func parseListingLine(line string) (*Process, error) {
	m := listingLine.FindStringSubmatch(line)
	if m == nil {
		return nil, pkgerrors.Wrapf(ErrMalformedLine, "%q", line)
	}
	pid, err := strconv.ParseInt(m[2], 10, 32)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrMalformedLine, "bad pid %q", m[2])
	}
	ppid, err := strconv.ParseInt(m[3], 10, 32)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrMalformedLine, "bad ppid %q", m[3])
	}
	return NewProcess(m[1], int32(pid), int32(ppid), m[4], m[5]), nil
}
