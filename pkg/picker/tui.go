package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// UIOptions controls the selector behavior.
type UIOptions struct {
	InitialQuery string
	MaxResults   int
}

// Result is the terminal outcome of a selector run: either a confirmed peer
// plus the username to connect with, or Cancelled.
type Result struct {
	Peer      Peer
	Username  string
	Cancelled bool
}

var (
	styleHeader   = lipgloss.NewStyle().Bold(true)
	styleDim      = lipgloss.NewStyle().Faint(true)
	styleSelected = lipgloss.NewStyle().Bold(true).Reverse(true)
	styleOnline   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleOffline  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleIdle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// RunTUI runs the interactive selector and returns the outcome. Bubble Tea
// owns raw mode and the alternate screen; both are restored on every exit
// path (confirm, cancel, error), so no cleanup is needed here.
func RunTUI(peers []Peer, cfg *Config, st *State, opts UIOptions) (Result, error) {
	if cfg == nil {
		return Result{Cancelled: true}, fmt.Errorf("nil config")
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = cfg.MaxResults
	}

	m := newModel(peers, cfg, st, opts)
	out, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return Result{Cancelled: true}, err
	}
	fm, ok := out.(model)
	if !ok {
		return Result{Cancelled: true}, fmt.Errorf("unexpected final model %T", out)
	}
	return fm.result(), nil
}

type model struct {
	cfg  *Config
	st   *State
	opts UIOptions

	input      textinput.Model
	candidates []candidate
	filtered   []candidate

	selected int
	scroll   int

	width  int
	height int
	ready  bool

	// Username prompt modal, opened by Enter on a peer.
	promptingUser bool
	userInput     textinput.Model
	pendingPeer   Peer

	confirmed *Peer
	username  string
	cancelled bool
	quitting  bool
}

func newModel(peers []Peer, cfg *Config, st *State, opts UIOptions) model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "filter peers..."
	ti.CharLimit = 256
	ti.PromptStyle = ti.PromptStyle.Bold(true)
	ti.SetValue(strings.TrimSpace(opts.InitialQuery))
	// Search is focused from the start so typing immediately filters.
	ti.Focus()

	ui := textinput.New()
	ui.Prompt = "Username: "
	ui.CharLimit = 128

	cands := buildCandidates(peers)
	return model{
		cfg:        cfg,
		st:         st,
		opts:       opts,
		input:      ti,
		userInput:  ui,
		candidates: cands,
		filtered:   rankMatches(cands, ti.Value()),
		selected:   0,
		scroll:     0,
		// A usable fallback until the first WindowSizeMsg arrives.
		width:  80,
		height: 24,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		// Interrupt wins over any other pending input, in any mode.
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			return m.quit()
		}
		if m.promptingUser {
			return m.updateUserPrompt(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateBrowse handles keys in the main list mode. The filter recompute runs
// synchronously here: a frame is never rendered against a stale filtered view.
func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if cur := m.current(); cur != nil {
			return m.openUserPrompt(cur.Peer), nil
		}
		return m, nil
	case "esc":
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.recomputeFilter()
		}
		return m, nil
	case "down", "j":
		m.move(1)
		return m, nil
	case "up", "k":
		m.move(-1)
		return m, nil
	case "pgdown":
		m.move(m.listHeight())
		return m, nil
	case "pgup":
		m.move(-m.listHeight())
		return m, nil
	case "home":
		m.gotoFirst()
		return m, nil
	case "end":
		m.gotoLast()
		return m, nil
	}

	// Everything else edits the query (runes, backspace, cursor keys the
	// input understands). Any change resets the cursor to the best match.
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.recomputeFilter()
	}
	return m, cmd
}

func (m model) updateUserPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.username = strings.TrimSpace(m.userInput.Value())
		p := m.pendingPeer
		m.confirmed = &p
		return m.quit()
	case "esc":
		m.promptingUser = false
		return m, nil
	}
	var cmd tea.Cmd
	m.userInput, cmd = m.userInput.Update(msg)
	return m, cmd
}

// openUserPrompt switches to the username modal for peer. The prompt default
// is the remembered preference, then the configured default_user; with
// neither the prompt starts empty (an empty answer means no user@ prefix and
// ssh picks the local login).
func (m model) openUserPrompt(peer Peer) model {
	def := ""
	if m.st != nil && m.st.DefaultUsername != "" {
		def = m.st.DefaultUsername
	} else if m.cfg != nil && m.cfg.DefaultUser != "" {
		def = m.cfg.DefaultUser
	}
	m.userInput.SetValue(def)
	m.userInput.CursorEnd()
	m.userInput.Focus()
	m.pendingPeer = peer
	m.promptingUser = true
	return m
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m model) result() Result {
	if m.confirmed == nil {
		return Result{Cancelled: true}
	}
	return Result{Peer: *m.confirmed, Username: m.username, Cancelled: m.cancelled}
}

// recomputeFilter re-ranks against the current query and resets the cursor
// to the best match (position 0), per the documented edit semantics.
func (m *model) recomputeFilter() {
	m.filtered = rankMatches(m.candidates, m.input.Value())
	m.selected = 0
	m.scroll = 0
}

func (m *model) current() *candidate {
	if len(m.filtered) == 0 || m.selected < 0 || m.selected >= len(m.filtered) {
		return nil
	}
	return &m.filtered[m.selected]
}

// move shifts the cursor by delta, clamped to the filtered view. No-op when
// the view is empty.
func (m *model) move(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
}

func (m *model) gotoFirst() {
	if len(m.filtered) == 0 {
		return
	}
	m.selected = 0
	m.scroll = 0
}

func (m *model) gotoLast() {
	if len(m.filtered) == 0 {
		return
	}
	m.selected = len(m.filtered) - 1
}

// listHeight is the number of peer rows visible at once; it is also the
// page size for PgUp/PgDn.
func (m *model) listHeight() int {
	h := m.height - 7 // header, count, blank, overflow markers, input, hints
	if h < 3 {
		h = 3
	}
	if m.opts.MaxResults > 0 && h > m.opts.MaxResults {
		h = m.opts.MaxResults
	}
	return h
}

// View renders bottom-anchored: the best match sits directly above the input
// line and the list grows upward, like shell history. The scroll offset is
// recomputed every frame so the cursor row is always inside the window.
func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render("tailssh — select a peer") + "\n")

	if m.promptingUser {
		p := m.pendingPeer
		b.WriteString(styleDim.Render(fmt.Sprintf("%d peers", len(m.candidates))) + "\n\n")
		b.WriteString(fmt.Sprintf("Connect to %s (%s)\n\n", p.Hostname, p.Addr))
		b.WriteString(m.userInput.View() + "\n\n")
		b.WriteString(styleDim.Render("enter connect • esc back • ctrl+c quit") + "\n")
		return b.String()
	}

	b.WriteString(styleDim.Render(fmt.Sprintf("%d peers • %d match", len(m.candidates), len(m.filtered))) + "\n")

	height := m.listHeight()

	// Scroll-follow on the frame's copy; recomputeFilter and gotoFirst are
	// the only places that persist a scroll reset.
	if m.selected < m.scroll {
		m.scroll = m.selected
	}
	if m.selected >= m.scroll+height {
		m.scroll = m.selected - height + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	end := m.scroll + height
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	// Rows accumulate top-to-bottom, which for a bottom-anchored list means
	// highest visible index first and filtered[scroll] last, nearest the
	// input line.
	var rows []string
	if len(m.candidates) == 0 {
		rows = append(rows, styleDim.Render("No peers found. Is the mesh client connected?"))
	} else if len(m.filtered) == 0 {
		rows = append(rows, styleDim.Render("No peers match your filter."))
	} else {
		if end < len(m.filtered) {
			rows = append(rows, styleDim.Render(fmt.Sprintf("… (+%d more)", len(m.filtered)-end)))
		}
		for i := end - 1; i >= m.scroll; i-- {
			rows = append(rows, m.renderRow(i))
		}
		if m.scroll > 0 {
			rows = append(rows, styleDim.Render(fmt.Sprintf("… (+%d more)", m.scroll)))
		}
	}

	// Pad above so the input line stays anchored at the bottom.
	for pad := height + 2 - len(rows); pad > 0; pad-- {
		b.WriteString("\n")
	}
	for _, r := range rows {
		b.WriteString(r + "\n")
	}

	b.WriteString(m.input.View() + "\n")
	b.WriteString(styleDim.Render("enter connect • esc clear • ↑/↓ j/k move • ctrl+c quit") + "\n")
	return b.String()
}

func (m model) renderRow(i int) string {
	c := m.filtered[i]
	line := fmt.Sprintf("%-28s %-16s", c.Peer.Hostname, c.Peer.Addr)

	if i == m.selected {
		return styleSelected.Render("> " + line + " " + c.Peer.Status.String())
	}

	var st string
	switch c.Peer.Status {
	case StatusOnline:
		st = styleOnline.Render(c.Peer.Status.String())
	case StatusOffline:
		st = styleOffline.Render(c.Peer.Status.String())
	case StatusIdle:
		st = styleIdle.Render(c.Peer.Status.String())
	default:
		st = styleDim.Render(c.Peer.Status.String())
	}
	return "  " + line + " " + st
}
