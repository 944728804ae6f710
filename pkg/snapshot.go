package pkg

import (
	"errors"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultSnapshotPath holds the expected process tree.
const DefaultSnapshotPath = "/var/lib/psdiff.db"

var (
	ErrEmptySnapshot = errors.New("no snapshot stored yet")
	ErrLineExists    = errors.New("line already in snapshot")
	ErrLineNotFound  = errors.New("line not in snapshot")
	ErrNoInitLine    = errors.New("snapshot has no INIT line")
)

// ManualDepth is the depth of hand edited lines: the children of INIT,
// where every daemon started at boot is serialized.
const ManualDepth = 2

// Store keeps the last written serialization in a flat file.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultSnapshotPath
	}
	return &Store{Path: path}
}

// Read returns the stored snapshot, or "" when none was written yet.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrapf(err, "read snapshot %s", s.Path)
	}
	return string(data), nil
}

// Write replaces the snapshot. The new content is written next to it and
// renamed into place, so s.Path never holds a partial file. The previous
// snapshot is kept as s.Path + ".old".
func (s *Store) Write(text string) error {
	tmp := s.Path + ".new"
	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", tmp)
	}
	if _, err := fd.WriteString(text); err != nil {
		fd.Close()
		return pkgerrors.Wrapf(err, "write %s", tmp)
	}
	if err := fd.Sync(); err != nil {
		fd.Close()
		return pkgerrors.Wrapf(err, "sync %s", tmp)
	}
	if err := fd.Close(); err != nil {
		return pkgerrors.Wrapf(err, "close %s", tmp)
	}

	if err := os.Rename(s.Path, s.Path+".old"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("snapshot", s.Path).Warnln("could not keep old snapshot")
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return pkgerrors.Wrapf(err, "rename %s", tmp)
	}
	logrus.WithField("snapshot", s.Path).Debugln("snapshot written")
	return nil
}

// AddLine splices a line into the INIT subtree of the stored snapshot,
// before the first sibling at ManualDepth that sorts after it.
func (s *Store) AddLine(line string) error {
	lines, err := s.readLines()
	if err != nil {
		return err
	}
	start := -1
	for i, l := range lines {
		if l == line {
			return pkgerrors.Wrapf(ErrLineExists, "%q", line)
		}
		if start < 0 && lineDepth(l) == 1 && strings.HasPrefix(l, initPrefix) {
			start = i
		}
	}
	if start < 0 {
		return pkgerrors.Wrapf(ErrNoInitLine, "%s", s.Path)
	}

	pos := len(lines)
	for i := start + 1; i < len(lines); i++ {
		depth := lineDepth(lines[i])
		if depth < ManualDepth || depth == ManualDepth && lines[i] > line {
			pos = i
			break
		}
	}
	lines = append(lines[:pos], append([]string{line}, lines[pos:]...)...)
	return s.Write(strings.Join(lines, "\n") + "\n")
}

// RemoveLine drops one literal line from the stored snapshot.
func (s *Store) RemoveLine(line string) error {
	lines, err := s.readLines()
	if err != nil {
		return err
	}
	pos := -1
	for i, l := range lines {
		if l == line {
			pos = i
			break
		}
	}
	if pos < 0 {
		return pkgerrors.Wrapf(ErrLineNotFound, "%q", line)
	}
	lines = append(lines[:pos], lines[pos+1:]...)
	text := ""
	if len(lines) > 0 {
		text = strings.Join(lines, "\n") + "\n"
	}
	return s.Write(text)
}

func (s *Store) readLines() ([]string, error) {
	text, err := s.Read()
	if err != nil {
		return nil, err
	}
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, pkgerrors.Wrapf(ErrEmptySnapshot, "%s", s.Path)
	}
	return lines, nil
}

var initPrefix = strings.TrimSuffix(FormatLine(1, InitCmdline, ""), "}")

func lineDepth(line string) int {
	return (len(line) - len(strings.TrimLeft(line, " "))) / 2
}
