package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(rows ...string) string {
	return "USER PID PPID COMMAND COMMAND\n" + strings.Join(rows, "\n") + "\n"
}

func buildTree(t *testing.T, text string) *Tree {
	t.Helper()
	processes, err := ParseListing(strings.NewReader(text))
	require.NoError(t, err)
	tree, err := BuildTree(processes)
	require.NoError(t, err)
	return tree
}

func TestParseListing(t *testing.T) {
	processes, err := ParseListing(strings.NewReader(listing(
		"root         1       0 systemd  /sbin/init splash",
		"",
		"alice     1234       1 longname /usr/bin/python3  -m   http.server",
		"root         2       0 kthreadd [kthreadd]",
		"root        99       2 noargs",
	)))
	require.NoError(t, err)
	require.Len(t, processes, 4)

	assert.Equal(t, int32(1), processes[0].Pid)
	assert.Equal(t, int32(0), processes[0].Ppid)
	assert.Equal(t, "/sbin/init splash", processes[0].Cmdline)

	assert.Equal(t, "alice", processes[1].User)
	assert.Equal(t, "longname", processes[1].Exe)
	assert.Equal(t, "/usr/bin/python3  -m   http.server", processes[1].Cmdline)

	assert.Equal(t, "", processes[3].Cmdline)
}

func TestParseListingMalformed(t *testing.T) {
	_, err := ParseListing(strings.NewReader(listing("root 1")))
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = ParseListing(strings.NewReader(listing("root one 0 init /sbin/init")))
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = ParseListing(strings.NewReader(listing("root 1 zero init /sbin/init")))
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestNewProcessTruncatesExe(t *testing.T) {
	p := NewProcess("root", 10, 1, "containerd-shim", "containerd-shim")
	assert.Equal(t, "containe", p.Exe)
}

func TestBuildTreeLinksOutOfOrder(t *testing.T) {
	tree := buildTree(t, listing(
		"alice 501 500 bash -bash",
		"root 500 1 sshd sshd: alice@pts/0",
		"root 1 0 init /sbin/init",
	))

	assert.Equal(t, 3, tree.Len())
	initProc := tree.ByPid[1]
	require.Len(t, tree.Root.Children, 1)
	assert.Same(t, initProc, tree.Root.Children[0])
	assert.Same(t, tree.ByPid[500], initProc.Children[0])
	assert.Same(t, tree.ByPid[500], tree.ByPid[501].Parent)
	assert.True(t, tree.ByPid[501].HasAncestor(isPid(1)))
	assert.False(t, tree.ByPid[501].HasAncestor(isPid(0)))
}

func TestBuildTreeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		rows []string
		err  error
	}{
		{"missing parent", []string{"root 1 0 init /sbin/init", "root 5 4 orphan orphan"}, ErrMissingParent},
		{"duplicate", []string{"root 1 0 init /sbin/init", "root 1 0 init /sbin/init"}, ErrDuplicatePid},
		{"self parent", []string{"root 1 0 init /sbin/init", "root 7 7 loop loop"}, ErrCycle},
		{"loop", []string{"root 1 0 init /sbin/init", "root 7 8 a a", "root 8 7 b b"}, ErrCycle},
	} {
		t.Run(tc.name, func(t *testing.T) {
			processes, err := ParseListing(strings.NewReader(listing(tc.rows...)))
			require.NoError(t, err)
			_, err = BuildTree(processes)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestWalkPreOrder(t *testing.T) {
	tree := buildTree(t, listing(
		"root 1 0 init /sbin/init",
		"root 10 1 a a",
		"root 11 10 b b",
	))
	var pids []int32
	tree.Walk(func(p *Process) {
		pids = append(pids, p.Pid)
	})
	assert.Equal(t, []int32{1, 10, 11}, pids)
}
