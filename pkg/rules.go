package pkg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/FFengIll/psdiff/pkg/wsv"
)

var (
	ErrBadRule       = errors.New("bad rule")
	ErrExclusiveMode = errors.New("override file and fragment directory are mutually exclusive")
)

// Rule is one line of a local filter. Keep, drop and dedup rules decide
// inclusion; rewrite and truncate rules adjust the command line.
//
//	action   keep | drop | dedup | rewrite | truncate
//	scope    self | parent | ancestor (include rules only)
//	field    cmdline | user | exe
//	op       prefix | equal | contains | regex
type Rule struct {
	Action  string `yaml:"action"`
	Scope   string `yaml:"scope"`
	Field   string `yaml:"field"`
	Op      string `yaml:"op"`
	Value   string `yaml:"value"`
	Replace string `yaml:"replace"`

	re *regexp.Regexp
}

func (r *Rule) compile() error {
	if r.Scope == "" {
		r.Scope = "self"
	}
	if r.Field == "" {
		r.Field = "cmdline"
	}
	if r.Op == "" {
		r.Op = "prefix"
	}

	switch r.Action {
	case "keep", "drop", "dedup":
		if r.Scope != "self" && r.Scope != "parent" && r.Scope != "ancestor" {
			return pkgerrors.Wrapf(ErrBadRule, "unknown scope %q", r.Scope)
		}
	case "rewrite", "truncate":
		if r.Scope != "self" {
			return pkgerrors.Wrapf(ErrBadRule, "%s only applies to self", r.Action)
		}
	default:
		return pkgerrors.Wrapf(ErrBadRule, "unknown action %q", r.Action)
	}

	switch r.Field {
	case "cmdline", "user", "exe":
	default:
		return pkgerrors.Wrapf(ErrBadRule, "unknown field %q", r.Field)
	}

	switch r.Op {
	case "prefix", "equal", "contains":
	case "regex":
		re, err := regexp.Compile(r.Value)
		if err != nil {
			return pkgerrors.Wrapf(ErrBadRule, "regex %q: %v", r.Value, err)
		}
		r.re = re
	default:
		return pkgerrors.Wrapf(ErrBadRule, "unknown op %q", r.Op)
	}
	return nil
}

func (r *Rule) matchOne(p *Process) bool {
	var value string
	switch r.Field {
	case "user":
		value = p.User
	case "exe":
		value = p.Exe
	default:
		value = p.Cmdline
	}
	switch r.Op {
	case "equal":
		return value == r.Value
	case "contains":
		return strings.Contains(value, r.Value)
	case "regex":
		return r.re.MatchString(value)
	}
	return strings.HasPrefix(value, r.Value)
}

func (r *Rule) match(p *Process) bool {
	switch r.Scope {
	case "parent":
		return p.Parent != nil && !p.Parent.IsRoot() && r.matchOne(p.Parent)
	case "ancestor":
		return p.HasAncestor(r.matchOne)
	}
	return r.matchOne(p)
}

func (r *Rule) isAdjust() bool {
	return r.Action == "rewrite" || r.Action == "truncate"
}

// RuleFilter applies a list of rules. The first matching include rule
// decides; every matching adjust rule is applied in order.
type RuleFilter struct {
	name  string
	rules []*Rule
}

func NewRuleFilter(name string, rules []*Rule) (*RuleFilter, error) {
	for i, r := range rules {
		if err := r.compile(); err != nil {
			return nil, pkgerrors.Wrapf(err, "%s: rule %d", name, i+1)
		}
	}
	return &RuleFilter{name: name, rules: rules}, nil
}

func (f *RuleFilter) Name() string {
	return f.name
}

func (f *RuleFilter) Adjust(p *Process) {
	for _, r := range f.rules {
		if !r.isAdjust() || !r.match(p) {
			continue
		}
		switch {
		case r.Action == "truncate":
			if args := p.Args(); len(args) > 0 {
				p.Cmdline = args[0]
			}
		case r.Op == "regex":
			p.Cmdline = r.re.ReplaceAllString(p.Cmdline, r.Replace)
		default:
			p.Cmdline = r.Replace
		}
	}
}

func (f *RuleFilter) Include(p *Process, run *Run) Verdict {
	for _, r := range f.rules {
		if r.isAdjust() || !r.match(p) {
			continue
		}
		switch r.Action {
		case "keep":
			return Keep
		case "drop":
			return Drop
		case "dedup":
			if run.FirstSeen(p) {
				return Keep
			}
			return Drop
		}
	}
	return Undecided
}

// Override is the site-local replacement for the built-in filter. With
// Builtin unset or true the built-in rules still apply after Rules.
type Override struct {
	Builtin *bool   `yaml:"builtin"`
	Rules   []*Rule `yaml:"rules"`
}

// LoadOverride reads an override file and returns the filter chain it
// describes.
func LoadOverride(path string, builtin *Builtin) ([]Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read override %s", path)
	}
	var o Override
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, pkgerrors.Wrapf(err, "parse override %s", path)
	}
	local, err := NewRuleFilter(filepath.Base(path), o.Rules)
	if err != nil {
		return nil, err
	}
	filters := []Filter{local}
	if o.Builtin == nil || *o.Builtin {
		filters = append(filters, builtin)
	}
	return filters, nil
}

// LoadFragments reads every *.wsv and *.yaml file in dir, in alphabetical
// order, with the built-in filter last.
func LoadFragments(dir string, builtin *Builtin) ([]Filter, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read fragments %s", dir)
	}
	var names []string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".wsv", ".yaml", ".yml":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)

	var filters []Filter
	for _, name := range names {
		path := filepath.Join(dir, name)
		rules, err := readFragment(path)
		if err != nil {
			return nil, err
		}
		f, err := NewRuleFilter(strings.TrimSuffix(name, filepath.Ext(name)), rules)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"fragment": path, "rules": len(rules)}).Debugln("loaded fragment")
		filters = append(filters, f)
	}
	return append(filters, builtin), nil
}

func readFragment(path string) ([]*Rule, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open fragment %s", path)
	}
	defer fd.Close()

	if filepath.Ext(path) != ".wsv" {
		var rules []*Rule
		if err := yaml.NewDecoder(fd).Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
			return nil, pkgerrors.Wrapf(err, "parse fragment %s", path)
		}
		return rules, nil
	}

	rows, err := wsv.NewReader(fd).ReadAll()
	if errors.Is(err, wsv.ErrNoHeader) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parse fragment %s", path)
	}
	rules := make([]*Rule, 0, len(rows))
	for _, row := range rows {
		if _, ok := row["extra0"]; ok {
			return nil, pkgerrors.Wrapf(ErrBadRule, "%s: too many columns in %v", path, row)
		}
		rules = append(rules, &Rule{
			Action:  row["action"],
			Scope:   row["scope"],
			Field:   row["field"],
			Op:      row["op"],
			Value:   row["value"],
			Replace: row["replace"],
		})
	}
	return rules, nil
}

// LoadFormatter builds the formatter for the configured extension mode:
// an override file, a fragment directory, or neither. Paths that do not
// exist are ignored.
func LoadFormatter(override, fragments string, builtin *Builtin) (*Formatter, error) {
	hasOverride := override != "" && exists(override)
	hasFragments := fragments != "" && exists(fragments)

	switch {
	case hasOverride && hasFragments:
		return nil, pkgerrors.Wrap(ErrExclusiveMode, fmt.Sprintf("%s, %s", override, fragments))
	case hasOverride:
		filters, err := LoadOverride(override, builtin)
		if err != nil {
			return nil, err
		}
		logrus.WithField("override", override).Infoln("using local override")
		return NewFormatter(filters...), nil
	case hasFragments:
		filters, err := LoadFragments(fragments, builtin)
		if err != nil {
			return nil, err
		}
		return NewFormatter(filters...), nil
	}
	return NewFormatter(builtin), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
