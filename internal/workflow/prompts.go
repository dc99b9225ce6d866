package workflow

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
)

// promptInteractive dispatches to the widget matching in.Type and returns
// the value the user entered.
func promptInteractive(in Input, cwd string) (string, error) {
	switch in.Type {
	case InputConfirm:
		return promptConfirm(in)
	case InputSelect:
		opts, err := resolveOptions(in, cwd)
		if err != nil {
			return "", fmt.Errorf("input %q: resolve options: %w", in.Name, err)
		}
		return promptSelect(in, opts)
	case InputMultiSelect:
		opts, err := resolveOptions(in, cwd)
		if err != nil {
			return "", fmt.Errorf("input %q: resolve options: %w", in.Name, err)
		}
		return promptMultiSelect(in, opts)
	case InputPassword:
		return promptText(in, true)
	default:
		return promptText(in, false)
	}
}

// --- text / password ---

type textModel struct {
	input textinput.Model
	label string
	done  bool
}

func newTextModel(in Input, masked bool) textModel {
	ti := textinput.New()
	ti.Placeholder = in.Default
	ti.Focus()
	if masked {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	}
	return textModel{input: ti, label: in.Prompt}
}

func (m textModel) Init() tea.Cmd { return textinput.Blink }

func (m textModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m textModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", promptStyle.Render(m.label), m.input.View())
}

func promptText(in Input, masked bool) (string, error) {
	m := newTextModel(in, masked)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	tm := final.(textModel)
	value := tm.input.Value()
	if value == "" {
		value = in.Default
	}
	return convertValidated(in, value)
}

// --- confirm ---

type confirmModel struct {
	label   string
	choice  bool
	chosen  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "left", "right", "tab", "h", "l":
		m.choice = !m.choice
	case "y":
		m.choice, m.chosen = true, true
		return m, tea.Quit
	case "n":
		m.choice, m.chosen = false, true
		return m, tea.Quit
	case "enter":
		m.chosen = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	yes, no := "Yes", "No"
	if m.choice {
		yes = selectedStyle.Render("[Yes]")
		no = "No"
	} else {
		yes = "Yes"
		no = selectedStyle.Render("[No]")
	}
	return fmt.Sprintf("%s\n%s / %s\n", promptStyle.Render(m.label), yes, no)
}

func promptConfirm(in Input) (string, error) {
	initial := strings.EqualFold(in.Default, "true") || strings.EqualFold(in.Default, "yes")
	m := confirmModel{label: in.Prompt, choice: initial}
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	cm := final.(confirmModel)
	if cm.choice {
		return "true", nil
	}
	return "false", nil
}

// --- select ---

type optionItem string

func (o optionItem) FilterValue() string { return string(o) }
func (o optionItem) Title() string       { return string(o) }
func (o optionItem) Description() string { return "" }

type selectModel struct {
	list     list.Model
	label    string
	selected string
}

func newSelectModel(label string, options []string) selectModel {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = optionItem(o)
	}
	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 60, 16)
	l.Title = label
	l.SetShowHelp(false)
	return selectModel{list: l, label: label}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if item, ok := m.list.SelectedItem().(optionItem); ok {
				m.selected = string(item)
			}
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() string { return m.list.View() }

func promptSelect(in Input, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("input %q: no options available", in.Name)
	}
	m := newSelectModel(in.Prompt, options)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	sm := final.(selectModel)
	if sm.selected == "" {
		return "", fmt.Errorf("input %q: no option selected", in.Name)
	}
	return sm.selected, nil
}

// --- multi-select ---

type multiSelectModel struct {
	options []string
	checked map[int]bool
	cursor  int
	label   string
	done    bool
}

func newMultiSelectModel(label string, options []string) multiSelectModel {
	return multiSelectModel{options: options, checked: map[int]bool{}, label: label}
}

func (m multiSelectModel) Init() tea.Cmd { return nil }

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case " ":
		m.checked[m.cursor] = !m.checked[m.cursor]
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m multiSelectModel) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.label))
	b.WriteString("\n")
	for i, opt := range m.options {
		box := "[ ]"
		if m.checked[i] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, opt)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func promptMultiSelect(in Input, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("input %q: no options available", in.Name)
	}
	m := newMultiSelectModel(in.Prompt, options)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	mm := final.(multiSelectModel)
	var selected []string
	for i, opt := range mm.options {
		if mm.checked[i] {
			selected = append(selected, opt)
		}
	}
	return strings.Join(selected, ","), nil
}
