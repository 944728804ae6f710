package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cronRows = []string{
	"root 1 0 init /sbin/init",
	"root 400 1 cron /usr/sbin/cron -f",
	"root 401 400 cron /usr/sbin/CRON -f",
	"backup 402 401 sh /bin/sh -c /usr/local/bin/backup --run=7731",
	"root 500 1 agent /opt/agent/bin/agent --session=9f8e7d",
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFragments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "20-backup.wsv"), `
# keep the nightly backup visible
action   scope  field    op      value                             replace
keep     self   cmdline  prefix  "/bin/sh -c /usr/local/bin/backup"
rewrite  self   cmdline  regex   "--run=\d+"                       "--run=N"
`)
	writeFile(t, filepath.Join(dir, "10-agent.yaml"), `
- action: rewrite
  op: regex
  value: '--session=\w+'
  replace: '--session=ID'
`)
	writeFile(t, filepath.Join(dir, "README"), "not a fragment")

	filters, err := LoadFragments(dir, &Builtin{})
	require.NoError(t, err)
	require.Len(t, filters, 3)
	assert.Equal(t, "10-agent", filters[0].Name())
	assert.Equal(t, "20-backup", filters[1].Name())
	assert.Equal(t, "builtin", filters[2].Name())

	out := NewFormatter(filters...).Format(buildTree(t, listing(cronRows...)))
	assert.Equal(t, `  INIT  {user=root}
    /opt/agent/bin/agent --session=ID  {user=root}
    /usr/sbin/cron -f  {user=root}
      /bin/sh -c /usr/local/bin/backup --run=N  {user=backup}
`, out)
}

func TestFragmentsApplyAlphabetically(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.wsv"), "action value\nkeep /opt/agent\n")
	writeFile(t, filepath.Join(dir, "a.wsv"), "action value\ndrop /opt/agent\n")

	filters, err := LoadFragments(dir, &Builtin{})
	require.NoError(t, err)
	out := NewFormatter(filters...).Format(buildTree(t, listing(cronRows...)))
	assert.NotContains(t, out, "/opt/agent")
}

func TestLoadFragmentsBadRule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.wsv"), "action value\nexplode /opt/agent\n")
	_, err := LoadFragments(dir, &Builtin{})
	assert.ErrorIs(t, err, ErrBadRule)

	writeFile(t, filepath.Join(dir, "bad.wsv"), "action op value\ndrop regex \"(\"\n")
	_, err = LoadFragments(dir, &Builtin{})
	assert.ErrorIs(t, err, ErrBadRule)

	writeFile(t, filepath.Join(dir, "bad.wsv"), "action scope value\ntruncate parent /opt/agent\n")
	_, err = LoadFragments(dir, &Builtin{})
	assert.ErrorIs(t, err, ErrBadRule)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yaml")
	writeFile(t, path, `
rules:
  - action: keep
    scope: ancestor
    value: /usr/sbin/cron
  - action: truncate
    value: /opt/agent
`)
	filters, err := LoadOverride(path, &Builtin{})
	require.NoError(t, err)
	require.Len(t, filters, 2)

	out := NewFormatter(filters...).Format(buildTree(t, listing(cronRows...)))
	assert.Equal(t, `  INIT  {user=root}
    /opt/agent/bin/agent  {user=root}
    /usr/sbin/cron -f  {user=root}
      /usr/sbin/CRON -f  {user=root}
        /bin/sh -c /usr/local/bin/backup --run=7731  {user=backup}
`, out)
}

func TestLoadOverrideWithoutBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yaml")
	writeFile(t, path, "builtin: false\nrules:\n  - action: drop\n    field: user\n    op: equal\n    value: backup\n")
	filters, err := LoadOverride(path, &Builtin{})
	require.NoError(t, err)
	require.Len(t, filters, 1)

	out := NewFormatter(filters...).Format(buildTree(t, listing(cronRows...)))
	assert.Equal(t, `  /sbin/init  {user=root}
    /opt/agent/bin/agent --session=9f8e7d  {user=root}
    /usr/sbin/cron -f  {user=root}
      /usr/sbin/CRON -f  {user=root}
`, out)
}

func TestLoadFormatterModes(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "local.yaml")
	fragments := filepath.Join(dir, "psdiff.d")

	f, err := LoadFormatter(override, fragments, &Builtin{})
	require.NoError(t, err)
	require.Len(t, f.Filters(), 1)
	assert.Equal(t, "builtin", f.Filters()[0].Name())

	require.NoError(t, os.Mkdir(fragments, 0755))
	f, err = LoadFormatter(override, fragments, &Builtin{})
	require.NoError(t, err)
	require.Len(t, f.Filters(), 1)

	writeFile(t, override, "rules: []\n")
	_, err = LoadFormatter(override, fragments, &Builtin{})
	assert.ErrorIs(t, err, ErrExclusiveMode)

	f, err = LoadFormatter(override, "", &Builtin{})
	require.NoError(t, err)
	assert.Len(t, f.Filters(), 2)

	writeFile(t, override, "rules: [")
	_, err = LoadFormatter(override, "", &Builtin{})
	assert.Error(t, err)
}

func TestRuleDedup(t *testing.T) {
	filter, err := NewRuleFilter("pool", []*Rule{{Action: "dedup", Value: "gunicorn: worker"}})
	require.NoError(t, err)
	out := NewFormatter(filter, &Builtin{}).Format(buildTree(t, listing(
		"root 1 0 init /sbin/init",
		"app 10 1 gunicorn gunicorn: master [app]",
		"app 11 10 gunicorn gunicorn: worker [app]",
		"app 12 10 gunicorn gunicorn: worker [app]",
	)))
	assert.Equal(t, `  INIT  {user=root}
    gunicorn: master [app]  {user=app}
      gunicorn: worker [app]  {user=app}
`, out)
}

func TestRuleParentScope(t *testing.T) {
	filter, err := NewRuleFilter("p", []*Rule{{Action: "drop", Scope: "parent", Op: "equal", Value: "gunicorn: master"}})
	require.NoError(t, err)
	out := NewFormatter(filter, &Builtin{}).Format(buildTree(t, listing(
		"root 1 0 init /sbin/init",
		"app 10 1 gunicor gunicorn: master",
		"app 11 10 gunicor gunicorn: worker",
		"app 12 11 sh sh -c true",
	)))
	assert.Equal(t, `  INIT  {user=root}
    gunicorn: master  {user=app}
      sh -c true  {user=app}
`, out)
}
