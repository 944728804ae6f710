package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func adjusted(cmdline string) string {
	p := NewProcess("root", 100, 1, "x", cmdline)
	(&Builtin{}).Adjust(p)
	return p.Cmdline
}

func TestBuiltinAdjust(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"astcanary 1234", "astcanary"},
		{"/usr/sbin/astcanary /var/run/asterisk/alt.asterisk.canary.tweet.tweet.tweet 2345", "/usr/sbin/astcanary"},
		{"/usr/sbin/amavisd-new (ch14-avail)", "/usr/sbin/amavisd-new"},
		{"amavisd (master)", "amavisd"},
		{"sshd: /usr/sbin/sshd -D [listener] 0 of 10-100 startups", "sshd: /usr/sbin/sshd -D"},
		{
			"/usr/bin/containerd-shim-runc-v2 -namespace moby -id 3f4e5d6c7b8a90123456789abcdef0123456789abcdef0123456789abcdef01 -address /run/containerd/containerd.sock",
			"/usr/bin/containerd-shim-runc-v2 -namespace moby -id ID -address /run/containerd/containerd.sock",
		},
		{
			"containerd-shim -namespace moby -workdir /var/lib/containerd/io.containerd.runtime.v1.linux/moby/0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef -address /run/containerd/containerd.sock",
			"containerd-shim -namespace moby -workdir /var/lib/containerd/io.containerd.runtime.v1.linux/moby/ID -address /run/containerd/containerd.sock",
		},
		{
			"docker-containerd-shim 0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef /var/run/docker/libcontainerd/0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef docker-runc",
			"docker-containerd-shim ID /var/run/docker/libcontainerd/ID docker-runc",
		},
		{"/usr/sbin/nginx -g daemon off;", "/usr/sbin/nginx -g daemon off;"},
	} {
		assert.Equal(t, tc.want, adjusted(tc.in), tc.in)
	}
}

func TestBuiltinInitIsRenamed(t *testing.T) {
	out := format(t, "root 1 0 systemd /sbin/init splash")
	assert.Equal(t, "  INIT  {user=root}\n", out)
}

func TestBuiltinInclude(t *testing.T) {
	out := format(t,
		"root 1 0 init /sbin/init",
		"root 2 0 kthreadd [kthreadd]",
		"root 3 2 kworker [kworker/0:0]",
		"root 10 1 tmux tmux: server",
		"alice 11 10 bash -bash",
		"alice 12 1 systemd /lib/systemd/systemd --user",
		"alice 13 12 pipewire /usr/bin/pipewire",
		"root 20 1 master /usr/lib/postfix/sbin/master -w",
		"postfix 21 20 qmgr qmgr -l -t unix -u",
		"postfix 22 20 pickup pickup -l -t unix -u -c",
		"postfix 23 20 smtpd smtpd -n smtp -t inet -u -c",
		"postgres 30 1 postgres /usr/lib/postgresql/14/bin/postgres -D /var/lib/postgresql/14/main",
		"postgres 31 30 postgres postgres: 14/main: checkpointer",
		"postgres 32 30 postgres postgres: app appdb 10.0.0.5(51234) idle",
		"postgres 33 30 postgres postgres: 14/main: autovacuum worker",
		"postgres 34 30 postgres postgres: 14/main: app appdb 10.0.0.5(51234) idle",
		"postgres 35 30 postgres postgres: 14/main: app appdb [local] idle",
		"postgres 36 30 postgres postgres: app appdb [local] idle",
		"postgres 37 30 postgres postgres: 14/main: parallel worker for PID 34",
		"postgres 38 30 postgres postgres: 14/main: autovacuum launcher",
		"root 40 1 apache2 /usr/sbin/apache2 -k start",
		"www-data 41 40 apache2 /usr/sbin/apache2 -k start",
		"www-data 42 40 apache2 /usr/sbin/apache2 -k start",
		"www-data 43 40 apache2 /usr/sbin/apache2 -k start",
		"uuidd 50 1 uuidd /usr/sbin/uuidd --socket-activation",
		"root 60 1 updatedb /usr/bin/updatedb.plocate",
		"root 61 60 find find /",
	)
	assert.Equal(t, `  INIT  {user=root}
    /lib/systemd/systemd --user  {user=alice}
    /usr/lib/postfix/sbin/master -w  {user=root}
      qmgr -l -t unix -u  {user=postfix}
    /usr/lib/postgresql/14/bin/postgres -D /var/lib/postgresql/14/main  {user=postgres}
      postgres: 14/main: autovacuum launcher  {user=postgres}
      postgres: 14/main: checkpointer  {user=postgres}
    /usr/sbin/apache2 -k start  {user=root}
      /usr/sbin/apache2 -k start  {user=www-data}
    tmux: server  {user=root}
`, out)
}

var selfRows = []string{
	"root 1 0 init /sbin/init",
	"root 90 1 psdiff psdiff show",
	"root 91 90 ps ps axww -o user:32,pid,ppid,fname,args",
}

func TestFormatterDropsSelf(t *testing.T) {
	formatter := DefaultFormatter()
	formatter.Self = 90
	assert.Equal(t, "  INIT  {user=root}\n", formatter.Format(buildTree(t, listing(selfRows...))))
}

func TestFormatterDropsSelfWithoutBuiltin(t *testing.T) {
	keepAll := &RuleFilter{name: "all", rules: []*Rule{{Action: "keep", Scope: "self", Field: "cmdline", Op: "prefix"}}}
	formatter := NewFormatter(keepAll)
	formatter.Self = 90
	assert.Equal(t, "  /sbin/init  {user=root}\n", formatter.Format(buildTree(t, listing(selfRows...))))
}

func TestKernelThreadsCannotBeKept(t *testing.T) {
	keepAll := &RuleFilter{name: "all", rules: []*Rule{{Action: "keep", Scope: "self", Field: "cmdline", Op: "prefix"}}}
	out := NewFormatter(keepAll).Format(buildTree(t, listing(
		"root 1 0 init /sbin/init",
		"root 2 0 kthreadd [kthreadd]",
		"root 3 2 kworker [kworker/0:0]",
	)))
	assert.Equal(t, "  /sbin/init  {user=root}\n", out)
}
