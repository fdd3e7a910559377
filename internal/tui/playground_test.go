package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"stageport.dev/stageport/internal/canvas"
	"stageport.dev/stageport/internal/config"
	"stageport.dev/stageport/internal/output"
	"stageport.dev/stageport/internal/runtime"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func newTestPlayground(t *testing.T) *Playground {
	t.Helper()
	splog, err := output.NewSplogWithOptions(output.Options{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	p, err := NewPlayground(runtime.NewContext(config.Default(), splog))
	require.NoError(t, err)
	return p
}

func press(p *Playground, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		p.Update(msg)
	}
}

func relocated(s *slot) []string {
	names := []string{}
	for _, n := range s.node.Relocated() {
		names = append(names, n.Name())
	}
	return names
}

func (p *Playground) slotByID(id string) *slot {
	for _, s := range p.slots {
		if s.id == id {
			return s
		}
	}
	return nil
}

func TestPlaygroundInitialScene(t *testing.T) {
	t.Parallel()

	p := newTestPlayground(t)
	require.Equal(t, []string{"tooltip"}, relocated(p.slotByID("overlay")))
	require.Equal(t, []string{"badge"}, relocated(p.slotByID("left")))
	require.Equal(t, []string{"cursor"}, relocated(p.slotByID("right")))
	require.Equal(t, []string{"toast"}, relocated(p.slotByID(config.DefaultContainerID)))

	overlay := p.root.Find("overlay")
	require.NotNil(t, overlay)
	require.Equal(t, "left", overlay.Parent().Name())
	require.Equal(t, canvas.KindGroup, overlay.Kind())
}

func TestPlaygroundRetarget(t *testing.T) {
	t.Parallel()

	p := newTestPlayground(t)
	press(p, "tab")

	require.Empty(t, relocated(p.slotByID("overlay")), "old destination drops the content at once")
	require.Equal(t, []string{"toast"}, relocated(p.slotByID(config.DefaultContainerID)))

	p.Update(frameMsg(time.Now()))
	require.Equal(t, []string{"toast", "tooltip"}, relocated(p.slotByID(config.DefaultContainerID)))
	require.Equal(t, 1, countNodes(p.root, "tooltip"))
}

func TestPlaygroundPriority(t *testing.T) {
	t.Parallel()

	p := newTestPlayground(t)
	press(p, "j", "j", "j")
	require.Equal(t, "toast", p.selected().name)

	press(p, "tab")
	p.Update(frameMsg(time.Now()))
	require.Equal(t, []string{"toast", "badge"}, relocated(p.slotByID("left")))

	press(p, "+", "+")
	require.Equal(t, []string{"badge", "toast"}, relocated(p.slotByID("left")))
	require.Contains(t, p.status, "z=2")
}

func TestPromptScript(t *testing.T) {
	t.Setenv("STAGEPORT_TEST_NO_INTERACTIVE", "1")
	_, err := PromptScript([]string{"a.yaml", "b.yaml"})
	require.ErrorIs(t, err, ErrInteractiveDisabled)
}

func TestPlaygroundDisposeAndReopen(t *testing.T) {
	t.Parallel()

	p := newTestPlayground(t)
	press(p, "j")
	require.Equal(t, "badge", p.selected().name)

	press(p, "d")
	require.Nil(t, p.selected().portal)
	require.Empty(t, relocated(p.slotByID("left")))

	press(p, "d")
	p.Update(frameMsg(time.Now()))
	require.Equal(t, []string{"badge"}, relocated(p.slotByID("left")))
}

func TestPlaygroundTeardown(t *testing.T) {
	t.Parallel()

	p := newTestPlayground(t)
	press(p, "j", "j")
	require.Equal(t, "cursor", p.selected().name)

	press(p, "x")
	right := p.slotByID("right")
	require.False(t, right.mounted())
	require.Empty(t, relocated(right))
	require.Contains(t, p.View(), "(target torn down)")

	// a retarget while the destination is gone waits in the queue
	press(p, "tab", "tab", "tab", "tab")
	p.Update(frameMsg(time.Now()))
	require.Contains(t, p.stage.PendingIDs(), "right")

	press(p, "x")
	require.True(t, right.mounted())
	require.Equal(t, []string{"cursor"}, relocated(right))
}

func TestPlaygroundView(t *testing.T) {
	t.Parallel()

	p := newTestPlayground(t)
	view := p.View()
	require.Contains(t, view, "stageport playground")
	require.Contains(t, view, "layer left [left]")
	require.Contains(t, view, "tooltip")
	require.Contains(t, view, "→ overlay z=2 did-mount")

	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func countNodes(n *canvas.Node, name string) int {
	count := 0
	if n.Name() == name {
		count++
	}
	for _, c := range n.Children() {
		count += countNodes(c, name)
	}
	return count
}
