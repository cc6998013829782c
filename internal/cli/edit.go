package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/matzehuels/coursemap/pkg/course"
	"github.com/matzehuels/coursemap/pkg/diagram"
	"github.com/matzehuels/coursemap/pkg/drag"
	cerrors "github.com/matzehuels/coursemap/pkg/errors"
	"github.com/matzehuels/coursemap/pkg/event"
	"github.com/matzehuels/coursemap/pkg/view"
	"github.com/matzehuels/coursemap/pkg/widget"
)

// chrome is the number of terminal rows used by the title, status and help
// lines.
const chrome = 3

func (c *CLI) editCommand() *cobra.Command {
	var opts viewOpts

	cmd := &cobra.Command{
		Use:               "edit [document]",
		Short:             "Edit a course document in the terminal",
		Long:              "Opens the course diagram full-screen. Drag steps with the mouse to relink them, drop them on the trash to delete, and press w to write the document back.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: documentArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			doc, _, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			m := newEditModel(args[0], doc, opts, loggerFromContext(cmd.Context()))
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInternal, err, "editor failed")
			}
			if m.dirty {
				printWarning("Quit without saving %s", args[0])
			}
			return nil
		},
	}
	opts.register(cmd, true)
	// Width and height follow the terminal.
	_ = cmd.Flags().MarkHidden("width")
	_ = cmd.Flags().MarkHidden("height")
	return cmd
}

// =============================================================================
// Scheduler - auto-scroll ticks through the bubbletea loop
// =============================================================================

type tickMsg struct{ id int }

// teaScheduler runs recurring jobs as tea.Tick commands, so every tick is
// delivered through Update on the program goroutine.
type teaScheduler struct {
	next   int
	jobs   map[int]*tickJob
	queued []tea.Cmd
}

type tickJob struct {
	id       int
	interval time.Duration
	fn       func()
	s        *teaScheduler
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{jobs: make(map[int]*tickJob)}
}

func (s *teaScheduler) Every(interval time.Duration, fn func()) drag.Stopper {
	s.next++
	j := &tickJob{id: s.next, interval: interval, fn: fn, s: s}
	s.jobs[j.id] = j
	s.queued = append(s.queued, j.tick())
	return j
}

func (j *tickJob) tick() tea.Cmd {
	id := j.id
	return tea.Tick(j.interval, func(time.Time) tea.Msg { return tickMsg{id: id} })
}

func (j *tickJob) Stop() { delete(j.s.jobs, j.id) }

// fire runs the job and re-arms it unless it was stopped meanwhile.
func (s *teaScheduler) fire(id int) tea.Cmd {
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	j.fn()
	if _, ok := s.jobs[id]; !ok {
		return nil
	}
	return j.tick()
}

// drain returns the ticks scheduled since the last call.
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := s.queued
	s.queued = nil
	return tea.Batch(cmds...)
}

// =============================================================================
// Key bindings
// =============================================================================

type editKeys struct {
	Prev, Next, Parent, Child  key.Binding
	ZoomIn, ZoomOut, ZoomReset key.Binding
	PageUp, PageDown           key.Binding
	Delete, Add, ReadOnly      key.Binding
	Detail, Save, Cancel       key.Binding
	Quit, ForceQuit            key.Binding
	Yes, No                    key.Binding
}

var keys = editKeys{
	Prev:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "select")),
	Next:      key.NewBinding(key.WithKeys("right", "l")),
	Parent:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "parent/child")),
	Child:     key.NewBinding(key.WithKeys("down", "j")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-/0", "zoom")),
	ZoomOut:   key.NewBinding(key.WithKeys("-")),
	ZoomReset: key.NewBinding(key.WithKeys("0")),
	PageUp:    key.NewBinding(key.WithKeys("pgup")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown", " ")),
	Delete:    key.NewBinding(key.WithKeys("d", "delete", "backspace"), key.WithHelp("d", "delete")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	ReadOnly:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "read-only")),
	Detail:    key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i", "details")),
	Save:      key.NewBinding(key.WithKeys("w", "ctrl+s"), key.WithHelp("w", "save")),
	Cancel:    key.NewBinding(key.WithKeys("esc")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	Yes:       key.NewBinding(key.WithKeys("y", "Y", "enter")),
	No:        key.NewBinding(key.WithKeys("n", "N", "esc")),
}

// ShortHelp implements help.KeyMap.
func (k editKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Parent, k.Delete, k.Add, k.ReadOnly, k.ZoomIn, k.Detail, k.Save, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k editKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// =============================================================================
// Model
// =============================================================================

type pendingDelete struct {
	req  drag.DeleteRequest
	done func(bool)
}

type editModel struct {
	path   string
	course *course.Course
	w      *widget.Widget
	sched  *teaScheduler
	help   help.Model
	logger *log.Logger

	cols, rows int
	confirm    *pendingDelete
	failed     error
	dirty      bool
	quitArmed  bool
	status     string
	statusErr  bool
}

func newEditModel(path string, c *course.Course, opts viewOpts, logger *log.Logger) *editModel {
	m := &editModel{path: path, course: c, sched: newTeaScheduler(), help: help.New(), logger: logger}
	m.w = newWidget(c, opts, logger, filepath.Dir(path), widget.Options{
		Scheduler: m.sched,
		Confirmer: m,
	})
	m.w.OnStructuralChange(func(event.StructuralChange) { m.dirty = true })
	m.w.OnError(func(e event.Failure) { m.failed = e.Err })
	m.w.OnSelectionChange(func(e event.SelectionChange) {
		if e.Payload == nil {
			m.setStatus("")
		}
	})
	m.w.OnContextMenu(func(e event.ContextMenu) { m.showDetail(e.Payload) })
	return m
}

// ConfirmDelete opens the modal. The answer arrives as a key press.
func (m *editModel) ConfirmDelete(req drag.DeleteRequest, done func(bool)) {
	m.confirm = &pendingDelete{req: req, done: done}
}

func (m *editModel) Init() tea.Cmd { return nil }

func (m *editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.w.Resize(float64(m.cols)*cellW, float64(max(m.rows-chrome, 1))*cellH)
		m.placeTrash()
	case tickMsg:
		return m, m.sched.fire(msg.id)
	case tea.KeyMsg:
		if cmd := m.key(msg); cmd != nil {
			return m, cmd
		}
	case tea.MouseMsg:
		m.mouse(msg)
	}
	return m, m.sched.drain()
}

// placeTrash pins the trash to the bottom-right corner of the diagram area.
func (m *editModel) placeTrash() {
	v := m.w.View()
	const tw, th = 12 * cellW, 3 * cellH
	m.w.SetTrash(view.Rect{X: v.Width - tw - cellW, Y: v.Height - th, W: tw, H: th})
}

func (m *editModel) key(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.ForceQuit) {
		return tea.Quit
	}
	if m.confirm != nil {
		switch {
		case key.Matches(msg, keys.Yes):
			m.answer(true)
		case key.Matches(msg, keys.No):
			m.answer(false)
		}
		return nil
	}
	if !key.Matches(msg, keys.Quit) {
		m.quitArmed = false
	}

	switch {
	case key.Matches(msg, keys.Quit):
		if m.dirty && !m.quitArmed {
			m.quitArmed = true
			m.setError("Unsaved changes: press q again to discard, w to save")
			return nil
		}
		return tea.Quit
	case key.Matches(msg, keys.Cancel):
		if m.w.Cancel() {
			m.setStatus("Cancelled")
		}
	case key.Matches(msg, keys.Prev):
		m.step(-1)
	case key.Matches(msg, keys.Next):
		m.step(1)
	case key.Matches(msg, keys.Parent):
		if n, ok := m.w.Diagram().Node(m.w.Selected()); ok && n.Parent() != nil {
			m.selectNode(n.Parent().ID)
		}
	case key.Matches(msg, keys.Child):
		m.descend()
	case key.Matches(msg, keys.ZoomIn):
		m.w.ZoomIn()
	case key.Matches(msg, keys.ZoomOut):
		m.w.ZoomOut()
	case key.Matches(msg, keys.ZoomReset):
		m.w.ResetZoom()
	case key.Matches(msg, keys.PageUp):
		m.w.PanBy(-m.w.View().Height / 2)
	case key.Matches(msg, keys.PageDown):
		m.w.PanBy(m.w.View().Height / 2)
	case key.Matches(msg, keys.Delete):
		m.delete()
	case key.Matches(msg, keys.Add):
		m.add()
	case key.Matches(msg, keys.ReadOnly):
		m.w.SetReadOnly(!m.w.ReadOnly())
		if m.w.ReadOnly() {
			m.setStatus("Read-only")
		} else {
			m.setStatus("Editing enabled")
		}
	case key.Matches(msg, keys.Detail):
		if n, ok := m.w.Diagram().Node(m.w.Selected()); ok {
			m.showDetail(n.Payload)
		}
	case key.Matches(msg, keys.Save):
		m.save()
	}
	return nil
}

func (m *editModel) mouse(msg tea.MouseMsg) {
	if m.confirm != nil {
		return
	}
	x := float64(msg.X)*cellW + cellW/2
	y := float64(msg.Y-1)*cellH + cellH/2

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.w.PanBy(-2 * cellH)
	case msg.Button == tea.MouseButtonWheelDown:
		m.w.PanBy(2 * cellH)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		m.w.ContextMenu(x, y)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.w.PointerDown(x, y)
	case msg.Action == tea.MouseActionMotion:
		m.w.PointerMove(x, y)
	case msg.Action == tea.MouseActionRelease:
		m.outcome(m.w.PointerUp(x, y))
	}
}

func (m *editModel) outcome(out drag.Outcome) {
	switch out.Kind {
	case drag.OutcomeMove:
		m.setStatus("Moved " + describe(m.w, out.NodeID))
	case drag.OutcomeDelete:
		m.setStatus("Deleted")
	case drag.OutcomeNone:
		if out.Err != nil {
			m.setError(cerrors.UserMessage(classify(out.Err)))
		}
	}
}

func (m *editModel) answer(ok bool) {
	p := m.confirm
	m.confirm = nil
	m.failed = nil
	label := describe(m.w, p.req.NodeID)
	p.done(ok)
	switch {
	case !ok:
		m.setStatus("Kept " + label)
	case m.failed != nil:
		m.setError(fmt.Sprintf("Could not delete %s: %v", label, m.failed))
	default:
		m.setStatus("Deleted " + label)
	}
}

func (m *editModel) delete() {
	id := m.w.Selected()
	if id == diagram.None {
		m.setError("Nothing selected")
		return
	}
	out, err := m.w.Delete(id)
	if err != nil {
		m.setError(cerrors.UserMessage(classify(err)))
		return
	}
	m.outcome(out)
}

func (m *editModel) add() {
	parent := m.w.Selected()
	if parent == diagram.None {
		if r := m.w.Diagram().Root(); r != nil {
			parent = r.ID
		}
	}
	id, err := m.w.Add(course.New(course.TypeText, "New step"), parent)
	if err != nil {
		m.setError(cerrors.UserMessage(classify(err)))
		return
	}
	m.selectNode(id)
	m.setStatus("Added " + describe(m.w, id))
}

func (m *editModel) save() {
	c, err := snapshot(m.course, m.w)
	if err == nil {
		err = course.Save(m.path, c)
	}
	if err != nil {
		m.logger.Error("save failed", "path", m.path, "err", err)
		m.setError(cerrors.UserMessage(err))
		return
	}
	m.course, m.dirty = c, false
	m.setStatus("Saved " + m.path)
}

// step moves the selection through the pre-order, skipping the end marker.
func (m *editModel) step(dir int) {
	var ids []diagram.NodeID
	for _, n := range m.w.Diagram().Nodes() {
		if !n.IsEndMarker() {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	cur := -1
	for i, id := range ids {
		if id == m.w.Selected() {
			cur = i
		}
	}
	next := cur + dir
	if cur < 0 {
		next = 0
	}
	if next >= 0 && next < len(ids) {
		m.selectNode(ids[next])
	}
}

func (m *editModel) descend() {
	n, ok := m.w.Diagram().Node(m.w.Selected())
	if !ok {
		m.step(1)
		return
	}
	for _, ch := range n.Children {
		if !ch.IsEndMarker() {
			m.selectNode(ch.ID)
			return
		}
	}
}

// selectNode selects id and scrolls it into view.
func (m *editModel) selectNode(id diagram.NodeID) {
	m.w.Select(id)
	n, ok := m.w.Diagram().Node(id)
	if !ok {
		return
	}
	v := m.w.View()
	r := m.w.ScreenRect(n)
	switch {
	case r.Y < 0:
		m.w.PanBy(r.Y - cellH)
	case r.Y+r.H > v.Height:
		m.w.PanBy(r.Y + r.H - v.Height + cellH)
	}
	m.setStatus(describe(m.w, id))
}

func (m *editModel) showDetail(p any) {
	n, ok := m.w.Diagram().FindPayload(p)
	if !ok {
		return
	}
	detail, failed := m.w.ValidationDetail(n.ID)
	switch {
	case !failed:
		m.setStatus(describe(m.w, n.ID) + ": not validated")
	case detail.Valid:
		m.setStatus(describe(m.w, n.ID) + ": valid")
	default:
		msgs := strings.Join(detail.Messages, "; ")
		if msgs == "" {
			msgs = "invalid"
		}
		m.setError(describe(m.w, n.ID) + ": " + msgs)
	}
}

func (m *editModel) setStatus(s string) { m.status, m.statusErr = s, false }
func (m *editModel) setError(s string)  { m.status, m.statusErr = s, true }

// =============================================================================
// View
// =============================================================================

var (
	styleBar     = lipgloss.NewStyle().Foreground(colorWhite).Background(lipgloss.Color("236"))
	styleBarMark = lipgloss.NewStyle().Foreground(colorYellow).Background(lipgloss.Color("236"))
)

func (m *editModel) View() string {
	if m.cols == 0 || m.rows == 0 {
		return "loading…"
	}

	title := m.course.Title
	if title == "" {
		title = filepath.Base(m.path)
	}
	title = " " + title
	var marks []string
	if m.dirty {
		marks = append(marks, "● modified")
	}
	if m.w.ReadOnly() {
		marks = append(marks, "read-only")
	}
	v := m.w.View()
	marks = append(marks, fmt.Sprintf("%.0f%%", v.Scale*100))
	right := strings.Join(marks, "  ") + " "
	gap := max(m.cols-lipgloss.Width(title)-lipgloss.Width(right), 1)
	bar := styleBar.Render(title+strings.Repeat(" ", gap)) + styleBarMark.Render(right)

	c := newCanvas(m.cols, max(m.rows-chrome, 1))
	sess, dragging := m.w.Session()
	drawScene(c, m.w.Frame(), trashHot(sess, dragging))
	if p := m.confirm; p != nil {
		lines := []string{"Delete " + describe(m.w, p.req.NodeID) + "?"}
		if p.req.OwnsResources {
			lines = append(lines, "Its stored files will be removed too.")
		}
		lines = append(lines, "", "[y] delete   [n] keep")
		drawModal(c, lines)
	}

	line := runewidth.Truncate(m.status, m.cols, "…")
	status := StyleDim.Render(line)
	if m.statusErr {
		status = StyleError.Render(line)
	}
	return bar + "\n" + c.String() + "\n" + status + "\n" + m.help.View(keys)
}
