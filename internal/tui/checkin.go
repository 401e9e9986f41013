// Package tui runs an interactive check-in in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/equilibrium/internal/checkin"
	"github.com/abhisek/equilibrium/internal/coach"
	"github.com/abhisek/equilibrium/internal/interview"
	"github.com/abhisek/equilibrium/internal/rubric"
)

// ErrAborted is returned by Run when the user quits before completing.
var ErrAborted = errors.New("check-in aborted")

// Stepper runs one check-in step. *checkin.Service implements it.
type Stepper interface {
	Step(ctx context.Context, in checkin.StepInput) (checkin.StepOutput, error)
}

// ExplainFunc explains a question. Optional.
type ExplainFunc func(ctx context.Context, question string, history []coach.ChatMessage) (string, error)

type phase int

const (
	phaseMood phase = iota
	phaseAsking
	phaseWaiting
	phaseExplaining
	phaseDone
	phaseFailed
)

type stepDoneMsg struct {
	out checkin.StepOutput
	err error
}

type explainDoneMsg struct {
	text string
	err  error
}

type tickMsg time.Time

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Options configure a check-in model.
type Options struct {
	SessionID string

	// MoodTag skips the mood prompt when set.
	MoodTag string
	// AskMood shows the optional mood prompt before the first question.
	AskMood bool

	Explain ExplainFunc
}

// Model is the Bubble Tea model of one check-in.
type Model struct {
	ctx     context.Context
	stepper Stepper
	opts    Options

	phase       phase
	mood        textinput.Model
	moodTag     string
	transcript  interview.Transcript
	question    string
	scale       Scale
	explanation string
	frame       int
	result      checkin.StepOutput
	err         error
	width       int
}

// New creates a check-in model.
func New(ctx context.Context, stepper Stepper, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "e.g. Stressed, Tired, Calm (optional)"
	ti.CharLimit = 40

	m := Model{
		ctx:     ctx,
		stepper: stepper,
		opts:    opts,
		mood:    ti,
		moodTag: strings.TrimSpace(opts.MoodTag),
		scale:   NewScale(),
		width:   60,
	}
	if opts.AskMood && m.moodTag == "" {
		m.phase = phaseMood
	} else {
		m.phase = phaseWaiting
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.phase == phaseMood {
		return m.mood.Focus()
	}
	return tea.Batch(m.stepCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) stepCmd() tea.Cmd {
	in := checkin.StepInput{
		SessionID:  m.opts.SessionID,
		Transcript: m.transcript,
		MoodTag:    m.moodTag,
	}
	return func() tea.Msg {
		out, err := m.stepper.Step(m.ctx, in)
		return stepDoneMsg{out: out, err: err}
	}
}

func (m Model) explainCmd() tea.Cmd {
	q := m.question
	return func() tea.Msg {
		text, err := m.opts.Explain(m.ctx, q, nil)
		return explainDoneMsg{text: text, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if m.phase == phaseWaiting || m.phase == phaseExplaining {
			m.frame++
			return m, tick()
		}
		return m, nil

	case stepDoneMsg:
		return m.handleStep(msg)

	case explainDoneMsg:
		if msg.err != nil {
			m.explanation = "Sorry, no explanation is available right now."
		} else {
			m.explanation = msg.text
		}
		m.phase = phaseAsking
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	if m.phase == phaseMood {
		var cmd tea.Cmd
		m.mood, cmd = m.mood.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleStep(msg stepDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		m.phase = phaseFailed
		return m, nil
	}
	m.err = nil
	if msg.out.Status == checkin.StatusCompleted {
		m.result = msg.out
		m.phase = phaseDone
		return m, nil
	}
	m.question = msg.out.Question
	m.scale = NewScale()
	m.explanation = ""
	m.phase = phaseAsking
	return m, nil
}

func (m Model) handleKey(k tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseMood:
		if k.String() == "enter" {
			m.moodTag = strings.TrimSpace(m.mood.Value())
			m.phase = phaseWaiting
			return m, tea.Batch(m.stepCmd(), tick())
		}
		var cmd tea.Cmd
		m.mood, cmd = m.mood.Update(k)
		return m, cmd

	case phaseAsking:
		switch k.String() {
		case "esc", "q":
			return m, tea.Quit
		case "?":
			if m.opts.Explain == nil {
				return m, nil
			}
			m.phase = phaseExplaining
			return m, tea.Batch(m.explainCmd(), tick())
		}
		m.scale = m.scale.Update(k)
		if m.scale.Submitted {
			m.transcript = m.transcript.Append(m.question, m.scale.Value())
			m.phase = phaseWaiting
			return m, tea.Batch(m.stepCmd(), tick())
		}
		return m, nil

	case phaseFailed:
		switch k.String() {
		case "r":
			m.phase = phaseWaiting
			return m, tea.Batch(m.stepCmd(), tick())
		case "esc", "q":
			return m, tea.Quit
		}

	case phaseDone:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m Model) render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Equilibrium check-in"))
	b.WriteString("\n\n")

	switch m.phase {
	case phaseMood:
		b.WriteString(questionStyle.Render("How would you describe your mood right now?"))
		b.WriteString("\n\n")
		b.WriteString(m.mood.View())
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter to continue, leave empty to skip"))

	case phaseWaiting, phaseExplaining:
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		label := "Thinking about your next question..."
		if m.phase == phaseExplaining {
			label = "Looking into that question..."
		}
		b.WriteString(fmt.Sprintf("%s %s", frame, label))

	case phaseAsking:
		n := len(m.transcript) + 1
		b.WriteString(progressBar(len(m.transcript), interview.MaxTurns, min(m.width-4, 40)))
		b.WriteString(hintStyle.Render(fmt.Sprintf("  question %d", n)))
		b.WriteString("\n\n")
		b.WriteString(questionStyle.Render(m.question))
		b.WriteString("\n\n")
		b.WriteString(m.scale.View())
		if m.explanation != "" {
			b.WriteString("\n")
			b.WriteString(cardStyle.Width(min(m.width-2, 72)).Render(m.explanation))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		hint := "↑↓ or 1-5 to choose, enter to answer, q to quit"
		if m.opts.Explain != nil {
			hint += ", ? to explain"
		}
		b.WriteString(hintStyle.Render(hint))

	case phaseDone:
		score := m.result.Score
		b.WriteString("Your burnout score: ")
		b.WriteString(bandColor(score).Render(fmt.Sprintf("%d/100 (%s)", score, rubric.BandOf(score))))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("log " + m.result.LogID))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("press any key to exit"))

	case phaseFailed:
		b.WriteString(errorStyle.Render(failureText(m.err)))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("r to retry, q to quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func failureText(err error) string {
	switch {
	case errors.Is(err, interview.ErrOracleUnavailable):
		return "The coach is not reachable right now."
	case errors.Is(err, interview.ErrOracleContractViolation):
		return "The coach gave an answer that could not be used."
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

// Result returns the committed step output once the check-in is done.
func (m Model) Result() (checkin.StepOutput, bool) {
	return m.result, m.phase == phaseDone
}

// Run runs a check-in on the terminal and returns the committed result.
func Run(ctx context.Context, stepper Stepper, opts Options) (checkin.StepOutput, error) {
	p := tea.NewProgram(New(ctx, stepper, opts), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return checkin.StepOutput{}, err
	}
	out, ok := final.(Model).Result()
	if !ok {
		return checkin.StepOutput{}, ErrAborted
	}
	return out, nil
}
