package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/hjreach/internal/metrics"
	"github.com/san-kum/hjreach/internal/solver"
)

const historyLen = 60

type subStepMsg solver.SubStep

type sampleMsg struct {
	sample   int
	t        float64
	fraction float64
}

type doneMsg struct {
	res *solver.Result
	err error
}

type progressModel struct {
	title   string
	times   []float64
	cancel  context.CancelFunc
	started time.Time

	sample   int
	t        float64
	subSteps int
	dt       []float64
	reach    []float64

	done bool
	res  *solver.Result
	err  error

	width int
}

func newProgressModel(title string, times []float64, cancel context.CancelFunc) progressModel {
	return progressModel{
		title:   title,
		times:   times,
		cancel:  cancel,
		started: time.Now(),
		dt:      make([]float64, 0, historyLen),
		width:   80,
	}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case subStepMsg:
		m.t = msg.Time
		m.subSteps = msg.Index
		m.dt = push(m.dt, msg.Dt)
	case sampleMsg:
		m.sample = msg.sample
		m.t = msg.t
		m.reach = push(m.reach, msg.fraction)
	case doneMsg:
		m.done = true
		m.res = msg.res
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + Cyan.Render(m.title) + "  " + Dim.Render(fmt.Sprintf("%d samples", len(m.times))) + "\n")
	b.WriteString(Dimmer.Render("  "+strings.Repeat("─", 40)) + "\n\n")

	bar := m.width - 24
	if bar > 50 {
		bar = 50
	}
	if bar < 10 {
		bar = 10
	}
	b.WriteString("  " + progressBar(m.fraction(), bar) + " " + White.Render(fmt.Sprintf("%5.1f%%", 100*m.fraction())) + "\n\n")

	b.WriteString(KeyValue("time", fmt.Sprintf("%.4f", m.t)) + "\n")
	b.WriteString(KeyValue("sample", fmt.Sprintf("%d/%d", m.sample, len(m.times)-1)) + "\n")
	b.WriteString(KeyValue("sub-steps", fmt.Sprintf("%d", m.subSteps)) + "\n")
	b.WriteString(KeyValue("elapsed", time.Since(m.started).Round(time.Millisecond).String()) + "\n")
	if len(m.dt) > 0 {
		b.WriteString(KeyValue("dt", Magenta.Render(sparkline(m.dt, 30))+Dim.Render(fmt.Sprintf(" %.2e", m.dt[len(m.dt)-1]))) + "\n")
	}
	if len(m.reach) > 0 {
		b.WriteString(KeyValue("reach", Green.Render(sparkline(m.reach, 30))+Dim.Render(fmt.Sprintf(" %.3f", m.reach[len(m.reach)-1]))) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.done && m.err != nil:
		b.WriteString("  " + Red.Render("failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString("  " + Green.Render("done") + "\n")
	default:
		b.WriteString(Dim.Render("  q cancel") + "\n")
	}
	return b.String()
}

// fraction is the share of solver time covered so far.
func (m progressModel) fraction() float64 {
	if len(m.times) < 2 {
		return 0
	}
	span := m.times[len(m.times)-1] - m.times[0]
	f := (m.t - m.times[0]) / span
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// observer forwards solver callbacks to a running program, dropping
// sub-steps that arrive faster than the frame rate.
type observer struct {
	send      func(tea.Msg)
	frameRate int
	lastFrame time.Time
}

func (o *observer) OnSubStep(step solver.SubStep) {
	if time.Since(o.lastFrame) < time.Second/time.Duration(o.frameRate) {
		return
	}
	o.lastFrame = time.Now()
	o.send(subStepMsg(step))
}

func (o *observer) OnSample(sample int, t float64, field []float64) {
	o.send(sampleMsg{sample: sample, t: t, fraction: metrics.Fraction(field)})
}

// RunLive runs a solve while rendering its progress. run receives the
// observer to attach and a context that is cancelled when the user quits.
func RunLive(ctx context.Context, title string, times []float64, run func(ctx context.Context, obs solver.Observer) (*solver.Result, error)) (*solver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title, times, cancel))
	obs := &observer{send: p.Send, frameRate: 30}

	go func() {
		res, err := run(ctx, obs)
		p.Send(doneMsg{res: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(progressModel)
	return m.res, m.err
}

func progressBar(f float64, width int) string {
	filled := int(f * float64(width))
	return Cyan.Render(strings.Repeat("█", filled)) + Dimmer.Render(strings.Repeat("░", width-filled))
}

func push(data []float64, v float64) []float64 {
	if len(data) >= historyLen {
		data = append(data[:0], data[1:]...)
	}
	return append(data, v)
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	start := 0
	if len(data) > width {
		start = len(data) - width
	}
	var sb strings.Builder
	for _, v := range data[start:] {
		idx := int((v - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}
