// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"audioviz/internal/frame"
)

const (
	defaultMeterWidth = 60
	spectrumRows      = 4
)

var spectrumLevels = []rune(" ▁▂▃▄▅▆▇█")

type frameMsg frame.AudioFrame

type streamEndMsg struct{}

// MeterModel shows band powers as bars and the bucket histogram as a
// spectrum.
type MeterModel struct {
	title    string
	low      progress.Model
	mid      progress.Model
	high     progress.Model
	width    int
	last     frame.AudioFrame
	frames   uint64
	finished bool
}

// NewMeterModel creates a meter titled title.
func NewMeterModel(title string) MeterModel {
	bar := func(from, to string) progress.Model {
		return progress.New(
			progress.WithGradient(from, to),
			progress.WithWidth(defaultMeterWidth),
			progress.WithoutPercentage(),
		)
	}
	return MeterModel{
		title: title,
		low:   bar("#FF7CCB", "#FDFF8C"),
		mid:   bar("#5A56E0", "#EE6FF8"),
		high:  bar("#25A065", "#8CFFE0"),
		width: defaultMeterWidth,
	}
}

func (m MeterModel) Init() tea.Cmd { return nil }

func (m MeterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(10, msg.Width-labelStyle.GetWidth()-8)
		m.low.Width, m.mid.Width, m.high.Width = m.width, m.width, m.width

	case frameMsg:
		m.last = frame.AudioFrame(msg)
		m.frames++

	case streamEndMsg:
		m.finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m MeterModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	rows := []struct {
		label string
		bar   progress.Model
		value float32
	}{
		{"LOW", m.low, m.last.LowPower},
		{"MID", m.mid, m.last.MidPower},
		{"HIGH", m.high, m.last.HighPower},
	}
	for _, r := range rows {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(r.label),
			r.bar.ViewAs(float64(r.value)),
			fmt.Sprintf(" %.2f", r.value)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(spectrumStyle.Render(Spectrum(m.last.HundredHzBuckets[:], m.width, spectrumRows)))
	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("0 Hz%s20 kHz", strings.Repeat(" ", max(1, m.width-9)))))
	sb.WriteString("\n\n")

	status := fmt.Sprintf("frames: %d • q: quit", m.frames)
	if m.finished {
		status = fmt.Sprintf("frames: %d • stream ended", m.frames)
	}
	sb.WriteString(infoStyle.Render(status))
	sb.WriteString("\n")
	return sb.String()
}

// Frames returns the number of frames the model has shown.
func (m MeterModel) Frames() uint64 { return m.frames }

// Spectrum draws buckets as a bar chart width columns wide and rows lines
// high. Buckets are averaged into columns and scaled to the loudest column,
// since bucket sums are not bounded.
func Spectrum(buckets []float32, width, rows int) string {
	if width < 1 || rows < 1 || len(buckets) == 0 {
		return ""
	}

	cols := make([]float32, width)
	var peak float32
	for c := range cols {
		lo := c * len(buckets) / width
		hi := max(lo+1, (c+1)*len(buckets)/width)
		var sum float32
		for _, v := range buckets[lo:min(hi, len(buckets))] {
			sum += max(v, 0)
		}
		cols[c] = sum / float32(hi-lo)
		peak = max(peak, cols[c])
	}

	steps := len(spectrumLevels) - 1
	lines := make([]string, rows)
	for r := range rows {
		var line strings.Builder
		// Row 0 is the top line.
		floor := float32(rows-1-r) * float32(steps)
		for _, v := range cols {
			level := float32(0)
			if peak > 0 {
				level = v / peak * float32(rows*steps)
			}
			idx := int(min(max(level-floor, 0), float32(steps)))
			line.WriteRune(spectrumLevels[idx])
		}
		lines[r] = line.String()
	}
	return strings.Join(lines, "\n")
}

// Meter is a frame sink that renders into a full-screen terminal meter.
type Meter struct {
	program *tea.Program
	final   MeterModel
}

// NewMeter creates a meter program. Options are passed to bubbletea, e.g.
// to redirect input and output in tests.
func NewMeter(title string, opts ...tea.ProgramOption) *Meter {
	return &Meter{program: tea.NewProgram(NewMeterModel(title), opts...)}
}

// Run blocks until the user quits or the stream ends.
func (m *Meter) Run() error {
	final, err := m.program.Run()
	if mm, ok := final.(MeterModel); ok {
		m.final = mm
	}
	return err
}

// Send hands f to the UI. It blocks until the UI accepts it or has exited.
func (m *Meter) Send(f frame.AudioFrame) error {
	m.program.Send(frameMsg(f))
	return nil
}

// Close ends the UI once pending frames are drawn.
func (m *Meter) Close() error {
	m.program.Send(streamEndMsg{})
	return nil
}

// Frames returns the number of frames shown, valid after Run returns.
func (m *Meter) Frames() uint64 { return m.final.Frames() }
