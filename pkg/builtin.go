package pkg

import (
	"regexp"
	"strings"
)

// InitCmdline replaces the pid 1 command line, which differs per distro.
const InitCmdline = "INIT"

// IDPlaceholder replaces container and session identifiers.
const IDPlaceholder = "ID"

var (
	// children of these are short-lived jobs
	jobSupervisors = map[string]bool{
		"cron":   true,
		"CRON":   true,
		"crond":  true,
		"atd":    true,
		"screen": true,
		"SCREEN": true,
		"tmux":   true,
	}

	// present or not depending on timing
	racyCommands = map[string]bool{
		"uuidd":            true,
		"updatedb":         true,
		"updatedb.mlocate": true,
		"updatedb.plocate": true,
	}

	containerShims = map[string]bool{
		"containerd-shim":         true,
		"containerd-shim-runc-v2": true,
	}

	shimIDFlags = map[string]bool{
		"-id":      true,
		"-workdir": true,
	}

	hexID = regexp.MustCompile(`[0-9a-f]{32,64}`)

	// backends, with or without a cluster_name prefix ("postgres: 14/main: ")
	postgresConnection = regexp.MustCompile(`^postgres: (\S+: )?(\S+ \S+ (\S+\(\d+\)|\[local\])|.*autovacuum worker|parallel worker)`)
)

// Builtin carries the baseline knowledge of how common daemons behave.
type Builtin struct{}

func (b *Builtin) Name() string {
	return "builtin"
}

func (b *Builtin) Adjust(p *Process) {
	switch cmd := p.Command(); {
	case cmd == "astcanary":
		// astcanary appends a pid to its arguments
		p.Cmdline = p.Args()[0]
	case cmd == "amavisd" || cmd == "amavisd-new":
		p.Cmdline = stripSuffixFrom(p.Cmdline, " (")
	case strings.HasPrefix(p.Cmdline, "sshd: ") && strings.Contains(p.Cmdline, " [listener]"):
		p.Cmdline = stripSuffixFrom(p.Cmdline, " [listener]")
	case containerShims[cmd]:
		args := p.Args()
		for i := 1; i < len(args); i++ {
			if shimIDFlags[args[i-1]] {
				args[i] = hexID.ReplaceAllString(args[i], IDPlaceholder)
			}
		}
		p.Cmdline = strings.Join(args, " ")
	case cmd == "docker-containerd-shim":
		// docker-containerd-shim ID /var/run/docker/libcontainerd/ID docker-runc
		p.Cmdline = hexID.ReplaceAllString(p.Cmdline, IDPlaceholder)
	}
}

func (b *Builtin) Include(p *Process, run *Run) Verdict {
	if isKernelThread(p) {
		return Drop
	}
	if p.Pid == 1 {
		p.Cmdline = InitCmdline
		return Keep
	}
	if p.HasAncestor(isJobSupervisor) {
		return Drop
	}
	if isDaemonHelper(p) || p.HasAncestor(isDaemonHelper) {
		return Drop
	}
	if isElasticPool(p) {
		if run.FirstSeen(p) {
			return Keep
		}
		return Drop
	}
	if isRacy(p) || p.HasAncestor(isRacy) {
		return Drop
	}
	return Keep
}

func stripSuffixFrom(cmdline, marker string) string {
	if i := strings.Index(cmdline, marker); i > 0 {
		return cmdline[:i]
	}
	return cmdline
}

func isJobSupervisor(p *Process) bool {
	return jobSupervisors[p.Command()] || strings.Contains(p.Cmdline, "systemd --user")
}

// isDaemonHelper matches the respawned children of stable daemons: sshd
// connections, postfix workers and postgres backends.
func isDaemonHelper(p *Process) bool {
	parent := p.Parent
	if parent == nil || parent.IsRoot() {
		return false
	}
	switch {
	case parent.Command() == "sshd" && !strings.HasPrefix(parent.Cmdline, "sshd: ") ||
		strings.HasPrefix(parent.Cmdline, "sshd: /usr/sbin/sshd"):
		return true
	case strings.HasSuffix(parent.Cmdline, "postfix/sbin/master") ||
		strings.HasPrefix(parent.Cmdline, "/usr/lib/postfix/sbin/master") ||
		strings.HasPrefix(parent.Cmdline, "/usr/libexec/postfix/master"):
		cmd := p.Command()
		return cmd != "qmgr" && cmd != "tlsmgr"
	case strings.HasPrefix(parent.Cmdline, "/usr/lib/postgresql/") ||
		strings.HasPrefix(parent.Cmdline, "postgres -D"):
		return postgresConnection.MatchString(p.Cmdline)
	}
	return false
}

func isElasticPool(p *Process) bool {
	cmd := p.Command()
	return cmd == "apache2" || cmd == "httpd" || strings.HasPrefix(p.Cmdline, "php-fpm: pool ")
}

func isRacy(p *Process) bool {
	return racyCommands[p.Command()]
}
