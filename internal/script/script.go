// Package script loads and replays scene scripts: scripted sequences of
// container and portal operations with expectations on the resulting draw
// order.
package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	sperrors "stageport.dev/stageport/internal/errors"
)

// Extensions lists the file extensions Load understands
var Extensions = []string{".yaml", ".yml", ".toml"}

// Script is a named sequence of steps. Initial steps run inside the stage's
// initial composition pass.
type Script struct {
	Name     string `yaml:"name" toml:"name"`
	Strategy string `yaml:"strategy" toml:"strategy"`
	Initial  []Step `yaml:"initial" toml:"initial"`
	Steps    []Step `yaml:"steps" toml:"steps"`

	Path string `yaml:"-" toml:"-"`
}

// Step is one operation. Exactly one field is set.
type Step struct {
	Container *ContainerStep `yaml:"container" toml:"container"`
	Teardown  string         `yaml:"teardown" toml:"teardown"`
	Portal    *PortalStep    `yaml:"portal" toml:"portal"`
	Set       *PortalStep    `yaml:"set" toml:"set"`
	Dispose   string         `yaml:"dispose" toml:"dispose"`
	Tick      *int           `yaml:"tick" toml:"tick"`
	Advance   string         `yaml:"advance" toml:"advance"`
	Expect    *ExpectStep    `yaml:"expect" toml:"expect"`
}

// ContainerStep declares and mounts a container node
type ContainerStep struct {
	ID     string `yaml:"id" toml:"id"`
	Parent string `yaml:"parent" toml:"parent"`
	Kind   string `yaml:"kind" toml:"kind"`
}

// PortalStep opens a portal, or with Set changes one. Nil fields keep their
// previous value on Set.
type PortalStep struct {
	Name     string   `yaml:"name" toml:"name"`
	Target   *string  `yaml:"target" toml:"target"`
	Priority *float64 `yaml:"priority" toml:"priority"`
	Text     *string  `yaml:"text" toml:"text"`
}

// ExpectStep asserts the draw order of a container by node name
type ExpectStep struct {
	Container string   `yaml:"container" toml:"container"`
	Order     []string `yaml:"order" toml:"order"`
}

// Action returns the name of the operation the step performs
func (s Step) Action() string {
	actions := s.actions()
	if len(actions) != 1 {
		return ""
	}
	return actions[0]
}

func (s Step) actions() []string {
	var set []string
	if s.Container != nil {
		set = append(set, "container")
	}
	if s.Teardown != "" {
		set = append(set, "teardown")
	}
	if s.Portal != nil {
		set = append(set, "portal")
	}
	if s.Set != nil {
		set = append(set, "set")
	}
	if s.Dispose != "" {
		set = append(set, "dispose")
	}
	if s.Tick != nil {
		set = append(set, "tick")
	}
	if s.Advance != "" {
		set = append(set, "advance")
	}
	if s.Expect != nil {
		set = append(set, "expect")
	}
	return set
}

// String describes the step for traces
func (s Step) String() string {
	switch s.Action() {
	case "container":
		desc := fmt.Sprintf("container %s", s.Container.ID)
		if s.Container.Kind != "" {
			desc = fmt.Sprintf("%s %s", s.Container.Kind, s.Container.ID)
		}
		if s.Container.Parent != "" {
			desc += " in " + s.Container.Parent
		}
		return desc
	case "teardown":
		return "teardown " + s.Teardown
	case "portal":
		return "portal " + s.Portal.describe()
	case "set":
		return "set " + s.Set.describe()
	case "dispose":
		return "dispose " + s.Dispose
	case "tick":
		if *s.Tick <= 0 {
			return "settle"
		}
		return fmt.Sprintf("tick %d", *s.Tick)
	case "advance":
		return "advance " + s.Advance
	case "expect":
		return fmt.Sprintf("expect %s = [%s]", s.Expect.Container, strings.Join(s.Expect.Order, ", "))
	}
	return "invalid step"
}

func (p *PortalStep) describe() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Target != nil {
		target := *p.Target
		if target == "" {
			target = "(default)"
		}
		b.WriteString(" -> " + target)
	}
	if p.Priority != nil {
		fmt.Fprintf(&b, " z=%g", *p.Priority)
	}
	if p.Text != nil {
		fmt.Fprintf(&b, " %q", *p.Text)
	}
	return b.String()
}

// Load reads a script, choosing the format from the file extension
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sperrors.NewScriptError(path, 0, "failed to read", err)
	}
	s, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, withPath(err, path)
	}
	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes a script. format is a file extension such as ".yaml" or ".toml".
func Parse(data []byte, format string) (*Script, error) {
	var s Script
	switch strings.ToLower(format) {
	case ".yaml", ".yml", "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, sperrors.NewScriptError("", 0, "failed to parse yaml", err)
		}
	case ".toml", "toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, sperrors.NewScriptError("", 0, "failed to parse toml", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, sperrors.NewScriptError("", 0, fmt.Sprintf("unknown field %q", undecoded[0].String()), nil)
		}
	default:
		return nil, sperrors.NewScriptError("", 0, fmt.Sprintf("unsupported script format %q", format), nil)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every step performs exactly one well-formed action
func (s *Script) Validate() error {
	for i, step := range s.all() {
		if err := step.validate(); err != nil {
			return sperrors.NewScriptError(s.Path, i+1, err.Error(), nil)
		}
	}
	return nil
}

// all returns initial steps followed by the main steps, numbered together
func (s *Script) all() []Step {
	out := make([]Step, 0, len(s.Initial)+len(s.Steps))
	out = append(out, s.Initial...)
	return append(out, s.Steps...)
}

func (s Step) validate() error {
	actions := s.actions()
	switch len(actions) {
	case 0:
		return fmt.Errorf("step has no action")
	case 1:
	default:
		return fmt.Errorf("step has more than one action: %s", strings.Join(actions, ", "))
	}

	switch actions[0] {
	case "container":
		if s.Container.ID == "" {
			return fmt.Errorf("container needs an id")
		}
	case "portal":
		if s.Portal.Name == "" {
			return fmt.Errorf("portal needs a name")
		}
	case "set":
		if s.Set.Name == "" {
			return fmt.Errorf("set needs a portal name")
		}
	case "expect":
		if s.Expect.Container == "" {
			return fmt.Errorf("expect needs a container")
		}
	}
	return nil
}

func withPath(err error, path string) error {
	if se, ok := err.(*sperrors.ScriptError); ok {
		se.Path = path
		return se
	}
	return err
}
