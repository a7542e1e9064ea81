package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer draws progress with bubbletea. Events go to a Tracker; the
// model re-reads it on every tick.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	tracker *Tracker
	model   *progressModel
	program *tea.Program
	done    chan struct{}
}

// NewTUIRenderer fails when the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a terminal")
	}
	tracker := NewTracker()
	model := newProgressModel(tracker, cfg.ProjectDir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}
	return &TUIRenderer{cfg: cfg, tracker: tracker, model: model}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(nil)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.tracker.Apply(event)
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.tracker.AddError(event)
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.tracker.Apply(ProgressEvent{Stage: StageComplete})

	r.mu.Lock()
	program := r.program
	r.mu.Unlock()
	if program != nil {
		program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer. It waits briefly for the program to exit.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program, done := r.program, r.done
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	return nil
}

var _ Renderer = (*TUIRenderer)(nil)

type tickMsg time.Time
type completeMsg CompletionStats

// progressModel is the bubbletea model of an index run.
type progressModel struct {
	tracker    *Tracker
	spinner    spinner.Model
	bar        progress.Model
	styles     Styles
	width      int
	projectDir string
	complete   bool
	stats      CompletionStats
}

func newProgressModel(tracker *Tracker, projectDir string) *progressModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))

	return &progressModel{
		tracker:    tracker,
		spinner:    s,
		bar:        progress.New(progress.WithSolidFill(ColorAccent), progress.WithWidth(40), progress.WithoutPercentage()),
		styles:     DefaultStyles(),
		width:      80,
		projectDir: projectDir,
	}
}

// Init implements tea.Model.
func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-24, 20)
	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *progressModel) View() string {
	if m.complete {
		return m.viewComplete()
	}

	st := m.tracker.Stats()
	width := max(m.width-4, 40)

	lines := []string{m.viewStages(st.Stage), m.viewProgress(st)}
	if st.File != "" {
		lines = append(lines, m.styles.Dim.Render(truncatePath(st.File, width-2)))
	}
	if st.Warnings > 0 || st.Errors > 0 {
		lines = append(lines, m.viewProblems(st))
	}

	title := "coderag index"
	if m.projectDir != "" {
		title += " • " + m.projectDir
	}
	return m.styles.Header.Render(title) + "\n" + m.styles.Panel.Width(width).Render(strings.Join(lines, "\n")) + "\n"
}

func (m *progressModel) viewStages(current Stage) string {
	stages := []struct {
		stage Stage
		name  string
	}{
		{StageScanning, "Scan"},
		{StageChunking, "Chunk"},
		{StageEmbedding, "Embed"},
		{StageIndexing, "Index"},
	}

	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		switch {
		case s.stage < current:
			parts = append(parts, m.styles.Done.Render("● "+s.name))
		case s.stage == current:
			parts = append(parts, m.styles.Active.Render(m.spinner.View()+" "+s.name))
		default:
			parts = append(parts, m.styles.Dim.Render("○ "+s.name))
		}
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *progressModel) viewProgress(st TrackerStats) string {
	if st.Total == 0 {
		msg := st.Message
		if msg == "" {
			msg = st.Stage.String() + "..."
		}
		return m.spinner.View() + " " + m.styles.Label.Render(msg)
	}

	unit := "files"
	if st.Stage == StageEmbedding {
		unit = "chunks"
	}
	return fmt.Sprintf("%s  %s\n%s",
		m.bar.ViewAs(st.Progress),
		m.styles.Active.Render(fmt.Sprintf("%3.0f%%", st.Progress*100)),
		m.styles.Label.Render(fmt.Sprintf("%d / %d %s  •  %.0f/s", st.Current, st.Total, unit, st.Rate)))
}

func (m *progressModel) viewProblems(st TrackerStats) string {
	var parts []string
	if st.Warnings > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", st.Warnings)))
	}
	if st.Errors > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", st.Errors)))
	}
	line := strings.Join(parts, "  ")
	if st.LastErr != nil && st.LastErr.File != "" {
		line += m.styles.Dim.Render("  last: " + st.LastErr.File)
	}
	return line
}

func (m *progressModel) viewComplete() string {
	st := m.stats
	label := m.styles.Label.Render

	var lines []string
	if st.Operation == "update" {
		lines = []string{
			m.styles.Success.Render("✓ Update complete"),
			"",
			fmt.Sprintf("%s  %d", label("Added:   "), st.Added),
			fmt.Sprintf("%s  %d", label("Updated: "), st.Updated),
			fmt.Sprintf("%s  %d", label("Removed: "), st.Removed),
		}
	} else {
		lines = []string{
			m.styles.Success.Render("✓ Index complete"),
			"",
			fmt.Sprintf("%s  %d", label("Files:   "), st.Files),
			fmt.Sprintf("%s  %d", label("Chunks:  "), st.Chunks),
			fmt.Sprintf("%s  %d", label("Vectors: "), st.Vectors),
		}
	}
	lines = append(lines, fmt.Sprintf("%s  %s", label("Duration:"), formatDuration(st.Duration)))
	if st.Warnings > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", st.Warnings)))
	}
	return m.styles.Panel.Width(max(m.width-4, 40)).Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration renders d as "850ms", "12s", "3m 4s" or "1h 2m".
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Round(time.Second).Seconds()))
	case d < time.Hour:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		d = d.Round(time.Minute)
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// truncatePath shortens path to maxLen, keeping the file name.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen < 4 {
		return "..."
	}
	i := strings.LastIndex(path, "/")
	name := path[i+1:]
	if len(name)+4 > maxLen {
		return "..." + name[len(name)-maxLen+3:]
	}
	keep := maxLen - len(name) - 4
	return "..." + path[i-keep:i] + "/" + name
}
