package pkg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"os/user"
	"strconv"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	pkgerrors "github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// Lister captures a point-in-time process listing.
type Lister interface {
	List(ctx context.Context) ([]*Process, error)
}

func NewLister(kind string) (Lister, error) {
	switch kind {
	case "", "ps":
		return &PsLister{}, nil
	case "gopsutil":
		return NewGopsutilLister(), nil
	}
	return nil, fmt.Errorf("unknown lister %q", kind)
}

// PsListArgs makes ps print `user pid ppid fname args` for every process,
// without truncating the command line.
var PsListArgs = []string{"axww", "-o", "user:32,pid,ppid,fname,args"}

type PsLister struct {
	// Path of the ps binary, "ps" when empty.
	Path string
}

func (l *PsLister) List(ctx context.Context) ([]*Process, error) {
	bin := l.Path
	if bin == "" {
		bin = "ps"
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, PsListArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, pkgerrors.Wrapf(err, "%s: %s", bin, bytes.TrimSpace(stderr.Bytes()))
	}
	return ParseListing(&stdout)
}

// TextLister parses a listing that was captured earlier.
type TextLister struct {
	Reader io.Reader
}

func (l *TextLister) List(ctx context.Context) ([]*Process, error) {
	return ParseListing(l.Reader)
}

// GopsutilLister reads /proc through gopsutil.
type GopsutilLister struct {
	users *cache.Cache[int32, string]
}

func NewGopsutilLister() *GopsutilLister {
	return &GopsutilLister{users: cache.New[int32, string]()}
}

func (l *GopsutilLister) List(ctx context.Context) ([]*Process, error) {
	logrus.WithField("at", time.Now()).Debugln("take process listing")
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list processes")
	}

	var processes []*Process
	for _, p := range ps {
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			// exited while listing
			logrus.WithField("pid", p.Pid).WithError(err).Debugln("skip process")
			continue
		}
		name, _ := p.NameWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)
		if cmdline == "" {
			cmdline = "[" + name + "]"
		}
		processes = append(processes, NewProcess(l.username(ctx, p), p.Pid, ppid, name, cmdline))
	}
	return processes, nil
}

func (l *GopsutilLister) username(ctx context.Context, p *process.Process) string {
	uids, err := p.UidsWithContext(ctx)
	if err != nil || len(uids) < 2 {
		return "?"
	}
	// effective uid, like ps
	uid := uids[1]
	if name, ok := l.users.Get(uid); ok {
		return name
	}
	name := strconv.Itoa(int(uid))
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	l.users.Set(uid, name)
	return name
}
