package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stageport.dev/stageport/internal/canvas"
	"stageport.dev/stageport/internal/output"
	"stageport.dev/stageport/internal/portal"
	"stageport.dev/stageport/internal/runtime"
	"stageport.dev/stageport/internal/scene"
	"stageport.dev/stageport/internal/stage"
)

// frameInterval is how often the playground runs one loop tick
const frameInterval = 100 * time.Millisecond

type playKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Retarget key.Binding
	Raise    key.Binding
	Lower    key.Binding
	Toggle   key.Binding
	Teardown key.Binding
	Quit     key.Binding
}

func (k playKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Retarget, k.Raise, k.Lower, k.Toggle, k.Teardown, k.Quit}
}

func (k playKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Retarget, k.Raise, k.Lower},
		{k.Toggle, k.Teardown, k.Quit},
	}
}

var defaultPlayKeys = playKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Retarget: key.NewBinding(
		key.WithKeys("tab", "r"),
		key.WithHelp("tab/r", "retarget"),
	),
	Raise: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "raise"),
	),
	Lower: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "lower"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dispose/reopen"),
	),
	Teardown: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "teardown/remount target"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q", "esc"),
		key.WithHelp("q/esc", "quit"),
	),
}

type frameMsg time.Time

// slot is a container the playground declares
type slot struct {
	id        string
	node      *canvas.Node
	container *stage.Container
}

func (s *slot) mounted() bool {
	return s.container.Mounted()
}

// actor is a portal the user drives
type actor struct {
	name   string
	target int
	props  portal.Props
	portal *portal.Portal
}

type playStyles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	dim      lipgloss.Style
	name     lipgloss.Style
}

func newPlayStyles() playStyles {
	return playStyles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1),
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		name:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

// Playground is the bubbletea model of the interactive stage
type Playground struct {
	stage  *stage.Stage
	ctx    context.Context
	root   *canvas.Node
	slots  []*slot
	actors []*actor
	cursor int
	status string

	styles playStyles
	keys   playKeyMap
	help   help.Model
}

// NewPlayground builds the demo scene on a fresh stage configured from rt
func NewPlayground(rt *runtime.Context) (*Playground, error) {
	defaultID := rt.Config.Stage.DefaultContainer
	if defaultID == "" {
		defaultID = stage.DefaultContainerID
	}
	root := canvas.NewStage("playground")
	def := canvas.NewLayer(defaultID).ServeAs(defaultID)
	root.Add(def)

	st, err := rt.NewStage(stage.WithDefaultRenderer(def), stage.WithDefaultContainer(defaultID))
	if err != nil {
		return nil, err
	}
	p := &Playground{
		stage:  st,
		ctx:    stage.WithStage(context.Background(), st),
		root:   root,
		slots:  []*slot{{id: defaultID, node: def, container: st.DefaultContainer()}},
		styles: newPlayStyles(),
		keys:   defaultPlayKeys,
		help:   help.New(),
	}

	var buildErr error
	st.Compose(func() {
		left := p.declare(root, canvas.KindLayer, "left")
		p.declare(root, canvas.KindLayer, "right")
		p.declare(left, canvas.KindGroup, "overlay")

		for _, a := range []struct {
			name   string
			target int
			z      float64
			text   string
		}{
			{"tooltip", 3, 2, "hint"},
			{"badge", 1, 1, "3"},
			{"cursor", 2, 0, "▲"},
			{"toast", 0, 0, "saved"},
		} {
			act := &actor{name: a.name, target: a.target}
			act.props = portal.Props{
				ContainerID: p.slots[a.target].id,
				Priority:    scene.P(a.z),
				Payload:     canvas.NewShape(a.name, a.text),
			}
			if err := p.open(act); err != nil && buildErr == nil {
				buildErr = err
			}
			p.actors = append(p.actors, act)
		}
	})
	if buildErr != nil {
		return nil, buildErr
	}
	return p, nil
}

func (p *Playground) declare(parent *canvas.Node, kind canvas.Kind, id string) *canvas.Node {
	node := canvas.NewNode(kind, id).ServeAs(id)
	parent.Add(node)
	c := p.stage.NewContainer(kind.AuditName(), id, stage.RenderInto(node))
	c.Mount()
	p.slots = append(p.slots, &slot{id: id, node: node, container: c})
	return node
}

func (p *Playground) open(a *actor) error {
	pt, err := portal.Open(p.ctx, a.props)
	if err != nil {
		return err
	}
	a.portal = pt
	return nil
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (p *Playground) Init() tea.Cmd {
	return frame()
}

func (p *Playground) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		p.stage.Loop().Tick()
		return p, frame()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			return p, tea.Quit

		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}

		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.actors)-1 {
				p.cursor++
			}

		case key.Matches(msg, p.keys.Retarget):
			a := p.selected()
			a.target = (a.target + 1) % len(p.slots)
			a.props.ContainerID = p.slots[a.target].id
			p.commit(a)
			p.status = fmt.Sprintf("%s → %s", a.name, a.props.ContainerID)

		case key.Matches(msg, p.keys.Raise):
			p.shift(1)

		case key.Matches(msg, p.keys.Lower):
			p.shift(-1)

		case key.Matches(msg, p.keys.Toggle):
			a := p.selected()
			if a.portal != nil {
				a.portal.Dispose()
				a.portal = nil
				p.status = a.name + " disposed"
			} else if err := p.open(a); err != nil {
				p.status = err.Error()
			} else {
				p.status = a.name + " reopened"
			}

		case key.Matches(msg, p.keys.Teardown):
			s := p.slots[p.selected().target]
			if s.mounted() {
				s.container.Unmount()
				s.node.ClearRelocated()
				p.status = s.id + " torn down"
			} else {
				s.container.Mount()
				p.status = s.id + " remounted"
			}
		}
	}
	return p, nil
}

func (p *Playground) selected() *actor {
	return p.actors[p.cursor]
}

func (p *Playground) shift(delta float64) {
	a := p.selected()
	a.props.Priority = scene.P(a.props.Priority.Value(0) + delta)
	p.commit(a)
	p.status = fmt.Sprintf("%s z=%s", a.name, a.props.Priority)
}

func (p *Playground) commit(a *actor) {
	if a.portal != nil {
		a.portal.Commit(a.props)
	}
}

func (p *Playground) View() string {
	var b strings.Builder

	b.WriteString(p.styles.title.Render("stageport playground"))
	b.WriteString("\n")

	highlight := p.selected().name
	for _, line := range canvas.Lines(p.root, canvas.RenderOptions{Styled: true, Highlight: highlight}) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, a := range p.actors {
		cursor := "  "
		style := p.styles.name
		if i == p.cursor {
			cursor = p.styles.cursor.Render("▸ ")
			style = p.styles.selected
		}
		phase := "disposed"
		if a.portal != nil {
			phase = a.portal.Phase().String()
		}
		target := p.slots[a.target]
		detail := fmt.Sprintf("→ %s z=%s %s", target.id, a.props.Priority, phase)
		if !target.mounted() {
			detail += " (target torn down)"
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, style.Render(a.name), p.styles.dim.Render(detail)))
	}

	b.WriteString("\n")
	pending := len(p.stage.PendingIDs())
	b.WriteString(p.styles.dim.Render(fmt.Sprintf("tick %d · %d queues pending", p.stage.Loop().Ticks(), pending)))
	if p.status != "" {
		b.WriteString("  " + p.status)
	}
	b.WriteString("\n\n")
	b.WriteString(p.help.View(p.keys))
	b.WriteString("\n")

	return b.String()
}

// RunPlayground runs the playground until the user quits
func RunPlayground(rt *runtime.Context) error {
	if !IsTTY() {
		return fmt.Errorf("the playground needs an interactive terminal")
	}
	// the console is silenced while the playground runs, so keep a file log
	if !rt.Splog.HasLogFile() {
		splog, err := output.NewSplogWithOptions(output.Options{LogFilePath: output.LogFilePath()})
		if err != nil {
			return err
		}
		rt.Splog = splog
	}
	p, err := NewPlayground(rt)
	if err != nil {
		return err
	}

	rt.Splog.SetQuiet(true)
	defer rt.Splog.SetQuiet(false)

	prog := tea.NewProgram(p, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err = prog.Run()
	return err
}
