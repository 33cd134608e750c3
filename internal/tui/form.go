package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	pkgerrors "mikrodesk/pkg/errors"
)

// formAction tells the owner of an inputForm what a key press did.
type formAction int

const (
	formIdle formAction = iota
	formMoved
	formSubmitted
	formCancelled
)

type formField struct {
	key     string
	label   string
	input   textinput.Model
	choices []string // cycled with left/right instead of typed
}

// inputForm is a vertical list of labelled inputs. Validation is left to
// the owner, which feeds messages back through setErrors.
type inputForm struct {
	title  string
	fields []formField
	focus  int
	errs   map[string]string
}

func newField(key, label, value string) formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 128
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorFg)
	ti.SetValue(value)
	return formField{key: key, label: label, input: ti}
}

func secretField(key, label, value string) formField {
	f := newField(key, label, value)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(key, label, value string, choices []string) formField {
	f := newField(key, label, value)
	if len(choices) > 0 {
		f.choices = choices
		if value == "" {
			f.input.SetValue(choices[0])
		}
	}
	return f
}

func newInputForm(title string, fields ...formField) *inputForm {
	f := &inputForm{title: title, fields: fields, errs: map[string]string{}}
	f.setFocus(0)
	return f
}

func (f *inputForm) setFocus(i int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focus].input.Blur()
	f.focus = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *inputForm) focusedKey() string {
	if len(f.fields) == 0 {
		return ""
	}
	return f.fields[f.focus].key
}

func (f *inputForm) value(key string) string {
	for _, fld := range f.fields {
		if fld.key == key {
			return strings.TrimSpace(fld.input.Value())
		}
	}
	return ""
}

func (f *inputForm) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fld := range f.fields {
		out[fld.key] = strings.TrimSpace(fld.input.Value())
	}
	return out
}

func (f *inputForm) setErrors(errs map[string]string) {
	if errs == nil {
		errs = map[string]string{}
	}
	f.errs = errs
}

// setError shows err against its fields. It reports false when err carries
// no field information.
func (f *inputForm) setError(err error) bool {
	var verr *pkgerrors.ValidationError
	if errors.As(err, &verr) {
		f.setErrors(verr.Fields)
		return true
	}
	return false
}

// intValue parses a numeric field, recording a field error when it is not
// a whole number.
func (f *inputForm) intValue(key, label string, errs map[string]string) int {
	v := f.value(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		errs[key] = label + " must be a whole number"
	}
	return n
}

func (f *inputForm) cycleChoice(delta int) {
	fld := &f.fields[f.focus]
	if len(fld.choices) == 0 {
		return
	}
	cur := 0
	for i, c := range fld.choices {
		if c == fld.input.Value() {
			cur = i
			break
		}
	}
	next := (cur + delta + len(fld.choices)) % len(fld.choices)
	fld.input.SetValue(fld.choices[next])
}

// Update handles one key press. The returned key is the field that lost
// focus when the action is formMoved.
func (f *inputForm) Update(msg tea.KeyMsg) (formAction, string, tea.Cmd) {
	left := f.focusedKey()
	switch msg.String() {
	case "esc":
		return formCancelled, "", nil
	case "ctrl+s":
		return formSubmitted, "", nil
	case "enter":
		if f.focus == len(f.fields)-1 {
			return formSubmitted, "", nil
		}
		f.setFocus(f.focus + 1)
		return formMoved, left, nil
	case "down", "tab":
		f.setFocus(f.focus + 1)
		return formMoved, left, nil
	case "up", "shift+tab":
		f.setFocus(f.focus - 1)
		return formMoved, left, nil
	}

	if len(f.fields) == 0 {
		return formIdle, "", nil
	}
	if len(f.fields[f.focus].choices) > 0 {
		switch msg.String() {
		case "left":
			f.cycleChoice(-1)
		case "right", " ":
			f.cycleChoice(1)
		}
		return formIdle, "", nil
	}

	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return formIdle, "", cmd
}

func (f *inputForm) View(width int) string {
	lines := []string{cardTitleStyle.Render(f.title), ""}
	for i, fld := range f.fields {
		label := formLabelStyle.Render(fld.label)
		if i == f.focus {
			label = formFocusLabelStyle.Render("> " + fld.label)
		}
		value := fld.input.View()
		if len(fld.choices) > 0 {
			value = choiceStyle.Render("‹ " + fld.input.Value() + " ›")
		}
		lines = append(lines, label+value)
		if msg, ok := f.errs[fld.key]; ok && msg != "" {
			lines = append(lines, formErrorStyle.Render(msg))
		}
	}
	lines = append(lines, "", dimStyle.Render("↑/↓ move · ←/→ choose · enter next · ctrl+s save · esc cancel"))

	w := width - 4
	if w < 40 {
		w = 40
	}
	return cardStyle.Width(w).Render(strings.Join(lines, "\n"))
}

// searchBox is a one line filter input opened with "/".
type searchBox struct {
	input  textinput.Model
	active bool
}

func newSearchBox(placeholder string) searchBox {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = placeholder
	ti.CharLimit = 64
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorTeal)
	return searchBox{input: ti}
}

func (s *searchBox) open() tea.Cmd {
	s.active = true
	return s.input.Focus()
}

// Update edits the query. Enter keeps it, esc clears it; both close the box.
func (s *searchBox) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.active = false
		s.input.Blur()
		return nil
	case "esc":
		s.active = false
		s.input.Blur()
		s.input.SetValue("")
		return nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

func (s *searchBox) value() string {
	return strings.TrimSpace(s.input.Value())
}

func (s *searchBox) View() string {
	if !s.active && s.value() == "" {
		return dimStyle.Render("/ to search")
	}
	return s.input.View()
}
