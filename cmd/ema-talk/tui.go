package main

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-talk/core"
	"github.com/koscakluka/ema-talk/core/events"
	"github.com/koscakluka/ema-talk/core/llms"
	"github.com/muesli/reflow/wordwrap"
)

type (
	sessionEventMsg struct{ event events.Event }
	errMsg          struct{ err error }
)

// eventRelay forwards session events to the running program.
//
// Send blocks until the program reads the message, so the model never calls
// the orchestrator from Update; every call runs in a command.
type eventRelay struct {
	mu      sync.Mutex
	program *tea.Program
}

func (r *eventRelay) attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

func (r *eventRelay) handle(event events.Event) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(sessionEventMsg{event: event})
	}
}

type keymap struct {
	Submit   key.Binding
	Resubmit key.Binding
	Stop     key.Binding
	TalkMode key.Binding
	Clear    key.Binding
	Record   key.Binding
	Quit     key.Binding
}

func defaultKeymap() keymap {
	return keymap{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Resubmit: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "resubmit")),
		Stop:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "stop talking")),
		TalkMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "chat/voice")),
		Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Record:   key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "record")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keymap) help() string {
	bindings := []key.Binding{k.Submit, k.Resubmit, k.Stop, k.TalkMode, k.Clear, k.Record, k.Quit}
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " • ")
}

var (
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87ceeb"))
	modelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b8bb26"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
	subtitleStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#d3869b"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7c6f64"))
	badgeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fabd2f"))
)

type model struct {
	ctx          context.Context
	orchestrator *orchestration.Orchestrator

	transcript viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	keys       keymap
	width      int

	status     orchestration.Status
	talkMode   orchestration.TalkMode
	subtitle   string
	interim    string
	recording  bool
	visualizer orchestration.VisualizerParams
	phase      float64
	err        error
}

func newModel(ctx context.Context, o *orchestration.Orchestrator) model {
	input := textinput.New()
	input.Focus()
	input.Prompt = "> "
	input.Placeholder = "Ask something"
	input.CharLimit = 4096

	transcript := viewport.New(0, 0)
	transcript.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	m := model{
		ctx:          ctx,
		orchestrator: o,
		transcript:   transcript,
		input:        input,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:         defaultKeymap(),
		status:       orchestration.StatusSilence,
		talkMode:     orchestration.TalkModeVoice,
		visualizer:   orchestration.PlaybackIdle.VisualizerParams(),
	}
	if o != nil {
		m.status = o.Status()
		m.talkMode = o.TalkMode()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		m.transcript.Width = msg.Width
		m.transcript.Height = max(msg.Height-5, 1)
		m.refreshTranscript()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.phase += m.visualizer.Speed
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionEventMsg:
		m.applyEvent(msg.event)
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		prompt := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if prompt == "" || m.orchestrator == nil {
			return m, nil
		}
		m.err = nil
		return m, m.run(func(o *orchestration.Orchestrator) error { return o.Submit(m.ctx, prompt) })

	case key.Matches(msg, m.keys.Resubmit):
		m.err = nil
		return m, m.run(func(o *orchestration.Orchestrator) error { return o.Resubmit(m.ctx) })

	case key.Matches(msg, m.keys.Stop):
		return m, m.run(func(o *orchestration.Orchestrator) error {
			o.StopTalking()
			return nil
		})

	case key.Matches(msg, m.keys.TalkMode):
		next := orchestration.TalkModeVoice
		if m.talkMode == orchestration.TalkModeVoice {
			next = orchestration.TalkModeChat
		}
		return m, m.run(func(o *orchestration.Orchestrator) error {
			o.SetTalkMode(next)
			return nil
		})

	case key.Matches(msg, m.keys.Clear):
		return m, m.run(func(o *orchestration.Orchestrator) error { return o.ClearMessages() })

	case key.Matches(msg, m.keys.Record):
		if m.recording {
			return m, m.run(func(o *orchestration.Orchestrator) error { return o.StopRecording(m.ctx) })
		}
		return m, m.run(func(o *orchestration.Orchestrator) error { return o.StartRecording(m.ctx) })
	}

	var inputCmd, transcriptCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.transcript, transcriptCmd = m.transcript.Update(msg)
	return m, tea.Batch(inputCmd, transcriptCmd)
}

// run calls the orchestrator off the update loop.
func (m model) run(call func(*orchestration.Orchestrator) error) tea.Cmd {
	if m.orchestrator == nil {
		return nil
	}
	o := m.orchestrator
	return func() tea.Msg {
		if err := call(o); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *model) applyEvent(event events.Event) {
	switch e := event.(type) {
	case events.StatusChanged:
		m.status = orchestration.Status(e.Status)
	case events.PlaybackStateChanged:
		m.visualizer = orchestration.VisualizerParams{Speed: e.Speed, Amplitude: e.Amplitude}
	case events.SubtitleChanged:
		m.subtitle = e.Subtitle
	case events.TalkModeChanged:
		m.talkMode = orchestration.TalkMode(e.Mode)
	case events.RecordingStarted:
		m.recording = true
		m.interim = ""
	case events.RecordingStopped:
		m.recording = false
		m.interim = ""
	case events.UserTranscriptInterimUpdated:
		m.interim = e.Transcript
	case events.AssistantSpeechFailed:
		m.err = e.Err
	case events.AssistantResponseUpdated, events.AssistantResponseFinal, events.MessagesChanged:
		m.refreshTranscript()
	}
}

func (m *model) refreshTranscript() {
	if m.orchestrator == nil || m.transcript.Width == 0 {
		return
	}
	m.transcript.SetContent(renderTranscript(m.orchestrator.Messages(), m.transcript.Width))
	m.transcript.GotoBottom()
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.transcript.View())
	b.WriteByte('\n')

	if m.talkMode == orchestration.TalkModeVoice && m.subtitle != "" {
		b.WriteString(subtitleStyle.Render(wordwrap.String(m.subtitle, max(m.width, 20))))
	}
	b.WriteByte('\n')

	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	} else {
		b.WriteString(dimStyle.Render(m.keys.help()))
	}
	return b.String()
}

func (m model) statusLine() string {
	parts := []string{badgeStyle.Render("[" + string(m.talkMode) + "]")}

	switch m.status {
	case orchestration.StatusThinking:
		parts = append(parts, m.spinner.View()+" thinking")
	case orchestration.StatusTalking:
		parts = append(parts, renderWave(m.visualizer, m.phase, 12)+" talking")
	default:
		parts = append(parts, renderWave(m.visualizer, m.phase, 12))
	}

	if m.recording {
		recording := errorStyle.Render("● rec")
		if m.interim != "" {
			recording += " " + dimStyle.Render(m.interim)
		}
		parts = append(parts, recording)
	}
	return strings.Join(parts, "  ")
}

// renderTranscript lays out messages for a viewport of the given width.
func renderTranscript(messages []llms.ChatMessage, width int) string {
	var b strings.Builder
	for i, message := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}

		switch {
		case message.Error:
			b.WriteString(errorStyle.Render("error"))
		case message.Role == llms.RoleUser:
			b.WriteString(userStyle.Render("you"))
		default:
			b.WriteString(modelStyle.Render("ema"))
		}
		b.WriteByte('\n')

		content := message.Content
		if content == "" && message.Role == llms.RoleModel {
			content = "…"
		}
		if message.Error {
			content = errorStyle.Render(content)
		}
		b.WriteString(wordwrap.String(content, max(width, 20)))
	}
	return b.String()
}

var waveLevels = []rune("▁▂▃▄▅▆▇█")

// renderWave draws the speaking visualizer. Amplitude 2 spans the full
// range; the idle amplitude stays on the lowest levels.
func renderWave(params orchestration.VisualizerParams, phase float64, bars int) string {
	scale := math.Min(params.Amplitude/2, 1)
	wave := make([]rune, bars)
	for i := range wave {
		level := (math.Sin(phase*2*math.Pi+float64(i)*0.6) + 1) / 2 * scale
		index := int(math.Round(level * float64(len(waveLevels)-1)))
		wave[i] = waveLevels[index]
	}
	return string(wave)
}
