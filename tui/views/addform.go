package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/netflo/internal/topology"
	"github.com/tonhe/netflo/tui/keys"
	"github.com/tonhe/netflo/tui/styles"
)

// FormAction describes what the app should do after a form update.
type FormAction int

const (
	// FormActionNone means keep editing.
	FormActionNone FormAction = iota
	// FormActionCancel means the user closed the form.
	FormActionCancel
	// FormActionSubmit means the form holds a device ready to add.
	FormActionSubmit
)

const (
	fieldName = iota
	fieldIP
	fieldType
	fieldCommunity
	formFields
)

// AddFormView collects the name, address, type and community of a new device.
type AddFormView struct {
	theme  styles.Theme
	sty    *styles.Styles
	width  int
	height int
	inputs [formFields]textinput.Model
	focus  int
	err    string
}

// NewAddFormView creates an empty form with the name field focused.
func NewAddFormView(theme styles.Theme) AddFormView {
	f := AddFormView{
		theme: theme,
		sty:   styles.NewStyles(theme),
	}

	placeholders := [formFields]string{
		fieldName:      "Core-Router-1",
		fieldIP:        "192.168.1.1",
		fieldType:      "router | switch | server",
		fieldCommunity: topology.DefaultCommunity,
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 64
		in.Width = 32
		f.inputs[i] = in
	}
	f.inputs[fieldType].SetValue(string(topology.TypeRouter))
	f.inputs[fieldCommunity].SetValue(topology.DefaultCommunity)
	f.inputs[fieldName].Focus()
	return f
}

// SetSize updates the available dimensions for the form.
func (f *AddFormView) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// SetError shows a message above the fields, e.g. a rejected submission.
func (f *AddFormView) SetError(msg string) {
	f.err = msg
}

// Device returns the form contents as a device request.
func (f AddFormView) Device() topology.NewDevice {
	return topology.NewDevice{
		Name:          strings.TrimSpace(f.inputs[fieldName].Value()),
		IP:            strings.TrimSpace(f.inputs[fieldIP].Value()),
		Type:          topology.DeviceType(strings.ToLower(strings.TrimSpace(f.inputs[fieldType].Value()))),
		SNMPCommunity: strings.TrimSpace(f.inputs[fieldCommunity].Value()),
	}
}

func (f *AddFormView) focusField(idx int) {
	if idx < 0 {
		idx = formFields - 1
	}
	if idx >= formFields {
		idx = 0
	}
	f.focus = idx
	for i := range f.inputs {
		if i == idx {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// Update handles key input. Enter on the last field validates the form and
// returns FormActionSubmit when the device is acceptable.
func (f AddFormView) Update(msg tea.Msg) (AddFormView, tea.Cmd, FormAction) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd, FormActionNone
	}

	switch {
	case key.Matches(keyMsg, keys.DefaultKeyMap.Escape):
		return f, nil, FormActionCancel
	case key.Matches(keyMsg, keys.DefaultKeyMap.Tab), keyMsg.Type == tea.KeyDown:
		f.focusField(f.focus + 1)
		return f, nil, FormActionNone
	case key.Matches(keyMsg, keys.DefaultKeyMap.BackTab), keyMsg.Type == tea.KeyUp:
		f.focusField(f.focus - 1)
		return f, nil, FormActionNone
	case key.Matches(keyMsg, keys.DefaultKeyMap.Enter):
		if f.focus < formFields-1 {
			f.focusField(f.focus + 1)
			return f, nil, FormActionNone
		}
		dev := f.Device()
		dev.Normalize()
		if err := dev.Validate(); err != nil {
			f.err = err.Error()
			return f, nil, FormActionNone
		}
		f.err = ""
		return f, nil, FormActionSubmit
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, FormActionNone
}

// View renders the form as a centered modal.
func (f AddFormView) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(f.theme.Base0D).
		Bold(true)
	activeLabelStyle := lipgloss.NewStyle().
		Foreground(f.theme.Base0D).
		Bold(true)

	var s strings.Builder
	s.WriteString(titleStyle.Render("Add Device") + "\n\n")

	if f.err != "" {
		errStyle := lipgloss.NewStyle().Foreground(f.theme.Base08)
		s.WriteString(errStyle.Render(f.err) + "\n\n")
	}

	labels := [formFields]string{"Name", "IP Address", "Type", "Community"}
	for i, label := range labels {
		indicator := "  "
		lbl := f.sty.FormLabel
		if i == f.focus {
			indicator = activeLabelStyle.Render("> ")
			lbl = activeLabelStyle
		}
		s.WriteString(fmt.Sprintf("%s%s%s\n", indicator, lbl.Render(padRight(label+":", 14)), f.inputs[i].View()))
	}

	helpStyle := lipgloss.NewStyle().Foreground(f.theme.Base04)
	keyStyle := lipgloss.NewStyle().Foreground(f.theme.Base0D).Bold(true)
	s.WriteString("\n" + helpStyle.Render(fmt.Sprintf(
		"%s/%s navigate  %s next / add  %s cancel",
		keyStyle.Render("[tab]"),
		keyStyle.Render("[shift+tab]"),
		keyStyle.Render("[enter]"),
		keyStyle.Render("[esc]"),
	)))

	modal := f.sty.ModalBorder.Render(s.String())
	return lipgloss.Place(f.width, f.height, lipgloss.Center, lipgloss.Center, modal)
}
