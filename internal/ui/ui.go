// Package ui provides the terminal moon viewer using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/lunie/internal/phase"
	"github.com/litescript/lunie/internal/scene"
	"github.com/litescript/lunie/internal/state"
	"github.com/litescript/lunie/internal/version"
)

// Blink timing: eyes close for blinkMin..blinkMax every
// blinkEvery..blinkEvery+blinkJitter.
const (
	blinkMin    = 150 * time.Millisecond
	blinkMax    = 200 * time.Millisecond
	blinkEvery  = 3 * time.Second
	blinkJitter = 4 * time.Second

	softnessStep = 0.1

	// header + blank, blank + info + options, blank + footer
	chromeLines = 7
)

// Session is what the viewer renders through.
type Session interface {
	State() *state.Manager
	Render(ctx context.Context) (scene.Frame, error)
	ReloadDataset(ctx context.Context) error
	ReloadAssets()
	IsDataset(path string) bool
}

// Music is optional background playback the viewer can pause.
type Music interface {
	SetPaused(paused bool)
	Paused() bool
}

// Msg types for Bubble Tea
type (
	// ChangeMsg reports a changed dataset or asset file.
	ChangeMsg struct {
		Path    string
		Removed bool
	}

	// frameMsg carries a finished render.
	frameMsg struct {
		seq   int
		frame scene.Frame
		err   error
	}

	// blinkMsg opens or closes the eyes.
	blinkMsg struct {
		closed bool
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	ctx     context.Context
	session Session
	state   *state.Manager
	music   Music
	now     func() time.Time

	// UI state
	width  int
	height int
	ready  bool

	seq       int // latest requested render
	rendering bool
	frame     *scene.Frame
	err       error
	closed    bool

	// Cached art for the current frame and size
	artOpen   string
	artClosed string
}

// New creates a new root UI model. music may be nil.
func New(ctx context.Context, s Session, music Music) Model {
	return Model{
		ctx:     ctx,
		session: s,
		state:   s.State(),
		music:   music,
		now:     time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.render(),
		blinkCmd(false),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.redraw()

	case frameMsg:
		if msg.seq != m.seq {
			// A newer render is on its way.
			break
		}
		m.rendering = false
		m.err = msg.err
		f := msg.frame
		m.frame = &f
		m.redraw()

	case blinkMsg:
		m.closed = msg.closed
		cmds = append(cmds, blinkCmd(msg.closed))

	case ChangeMsg:
		cmds = append(cmds, m.reload(m.session.IsDataset(msg.Path), true))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return tea.Quit

	case "left", "h":
		return m.step(-1)
	case "right", "l":
		return m.step(1)
	case "t":
		if m.state.SetTarget(m.now()) {
			return m.render()
		}

	case "n":
		o := m.state.Options()
		if o.Hemisphere == phase.South {
			o.Hemisphere = phase.North
		} else {
			o.Hemisphere = phase.South
		}
		return m.setOptions(o)
	case "f":
		o := m.state.Options()
		o.ShadeFace = !o.ShadeFace
		return m.setOptions(o)
	case "+", "=":
		o := m.state.Options()
		o.Softness = roundTenth(o.Softness + softnessStep)
		return m.setOptions(o)
	case "-", "_":
		o := m.state.Options()
		o.Softness = max(0, roundTenth(o.Softness-softnessStep))
		return m.setOptions(o)
	case "o":
		o := m.state.Options()
		o.Oversample = nextOversample(o.Oversample)
		return m.setOptions(o)

	case "r":
		return m.reload(true, true)
	case "m":
		if m.music != nil {
			m.music.SetPaused(!m.music.Paused())
		}
	}
	return nil
}

func (m *Model) step(days int) tea.Cmd {
	t := m.state.Target()
	if t.IsZero() {
		t = phase.Day(m.now())
	}
	if m.state.SetTarget(t.AddDate(0, 0, days)) {
		return m.render()
	}
	return nil
}

func (m *Model) setOptions(o scene.Options) tea.Cmd {
	if o == m.state.Options() {
		return nil
	}
	m.state.SetOptions(o)
	return m.render()
}

// render starts an async render of the current target.
func (m *Model) render() tea.Cmd {
	m.seq++
	m.rendering = true
	seq, s, ctx := m.seq, m.session, m.ctx
	return func() tea.Msg {
		f, err := s.Render(ctx)
		return frameMsg{seq: seq, frame: f, err: err}
	}
}

// reload re-reads the dataset and/or assets, then renders.
func (m *Model) reload(dataset, assets bool) tea.Cmd {
	m.seq++
	m.rendering = true
	seq, s, ctx := m.seq, m.session, m.ctx
	return func() tea.Msg {
		if dataset {
			if err := s.ReloadDataset(ctx); err != nil {
				return frameMsg{seq: seq, err: err}
			}
		}
		if assets {
			s.ReloadAssets()
		}
		f, err := s.Render(ctx)
		return frameMsg{seq: seq, frame: f, err: err}
	}
}

// redraw rebuilds the cached moon art for the current frame and size.
func (m *Model) redraw() {
	if !m.ready || m.frame == nil {
		return
	}
	cols, rows := m.artSize()
	m.artOpen = HalfBlock(flatten(m.frame, false), cols, rows)
	if m.frame.FaceClosed != nil {
		m.artClosed = HalfBlock(flatten(m.frame, true), cols, rows)
	} else {
		m.artClosed = m.artOpen
	}
}

// flatten keeps a frame without layers a nil image.Image.
func flatten(f *scene.Frame, closedEyes bool) image.Image {
	if img := f.Flatten(closedEyes); img != nil {
		return img
	}
	return nil
}

func (m Model) artSize() (int, int) {
	return max(1, m.width), max(1, m.height-chromeLines)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	art := m.artOpen
	if m.closed {
		art = m.artClosed
	}
	if art == "" {
		cols, rows := m.artSize()
		art = HalfBlock(nil, cols, rows)
	}

	return m.renderHeader() + "\n\n" + art + "\n\n" + m.renderInfo() + "\n\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	title := gradientText("☾ lunie")
	date := m.state.Target().Format("Monday, January 2, 2006")
	return "  " + title + muted.Render(fmt.Sprintf("  v%s  ·  %s", version.Version, date))
}

// gradientText renders s with a moonlight gradient: pale gold to lavender.
func gradientText(s string) string {
	runes := []rune(s)
	from, to := rgb(0xF5, 0xE6, 0xA8), rgb(0x9D, 0x8C, 0xD6)

	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		c := from.BlendHcl(to, t).Clamped()
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Bold(true).Render(string(r)))
	}
	return b.String()
}

func (m Model) renderInfo() string {
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E8E4D0")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E8A33D"))

	var info string
	switch {
	case m.frame == nil:
		info = dimStyle.Render("Rendering...")
	case m.frame.HasRecord:
		info = infoStyle.Render(m.frame.Record.InfoLine())
	default:
		info = warnStyle.Render("No phase data for " + m.state.Target().Format("01/02/2006"))
	}

	o := m.state.Options()
	face := "off"
	if o.ShadeFace {
		face = "on"
	}
	opts := fmt.Sprintf("%s hemisphere · softness %.1f · oversample %d× · face shading %s",
		o.Hemisphere, o.Softness, o.Oversample, face)
	if m.frame != nil && !m.frame.Shaded && m.frame.Reason != "" {
		opts += " · " + warnStyle.Render("unshaded: "+m.frame.Reason)
	}

	return "  " + info + "\n  " + dimStyle.Render(opts)
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	help := "←/→: day | t: today | n: hemisphere | f: face | +/-: softness | o: oversample | r: reload"
	if m.music != nil {
		help += " | m: music"
	}
	help += " | q: quit"

	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render("ERROR: "+m.err.Error()) + "  "
	case m.rendering:
		status = accentStyle.Render("●") + " "
	}
	return "  " + status + dimStyle.Render(help)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// nextOversample cycles 1 -> 2 -> 4 -> 1.
func nextOversample(n int) int {
	switch n {
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 1
	}
}

// blinkCmd schedules the next blink transition. After the eyes open the
// next blink comes in 3-7 s; after they close they reopen in 150-200 ms.
func blinkCmd(closed bool) tea.Cmd {
	if closed {
		d := blinkMin + rand.N(blinkMax-blinkMin+1)
		return tea.Tick(d, func(time.Time) tea.Msg { return blinkMsg{closed: false} })
	}
	d := blinkEvery + rand.N(blinkJitter+1)
	return tea.Tick(d, func(time.Time) tea.Msg { return blinkMsg{closed: true} })
}
