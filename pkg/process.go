package pkg

import (
	"path"
	"strings"
)

// NoParent is the Ppid of the synthetic root.
const NoParent int32 = -1

// ExeWidth is the width ps uses for the fname column.
const ExeWidth = 8

type Process struct {
	Pid     int32  `json:"pid"`
	Ppid    int32  `json:"ppid"`
	User    string `json:"user"`
	Exe     string `json:"exe"`
	Cmdline string `json:"cmdline"`

	Parent   *Process   `json:"-"`
	Children []*Process `json:"-"`
}

func NewProcess(user string, pid, ppid int32, exe, cmdline string) *Process {
	if len(exe) > ExeWidth {
		exe = exe[:ExeWidth]
	}
	return &Process{
		Pid:     pid,
		Ppid:    ppid,
		User:    user,
		Exe:     exe,
		Cmdline: cmdline,
	}
}

func (p *Process) IsRoot() bool {
	return p.Ppid == NoParent
}

// Args splits the command line on whitespace.
func (p *Process) Args() []string {
	return strings.Fields(p.Cmdline)
}

// Command returns the basename of the first command line token, with a
// trailing colon removed ("tmux: server" -> "tmux").
func (p *Process) Command() string {
	args := p.Args()
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSuffix(path.Base(args[0]), ":")
}

// HasAncestor reports whether any ancestor of p, excluding the synthetic
// root, satisfies match.
func (p *Process) HasAncestor(match func(*Process) bool) bool {
	for parent := p.Parent; parent != nil && !parent.IsRoot(); parent = parent.Parent {
		if match(parent) {
			return true
		}
	}
	return false
}

func isPid(pid int32) func(*Process) bool {
	return func(p *Process) bool {
		return p.Pid == pid
	}
}
