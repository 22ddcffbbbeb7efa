package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fleura/storefront/internal/session"
	"github.com/fleura/storefront/internal/shopify"
)

type formKind int

const (
	formLogin formKind = iota
	formRegister
	formRecover
	formAddress
)

var formTitles = map[formKind]string{
	formLogin:    "Sign in",
	formRegister: "Create account",
	formRecover:  "Reset password",
	formAddress:  "New address",
}

var formFields = map[formKind][]string{
	formLogin:    {"Email", "Password"},
	formRegister: {"First name", "Last name", "Email", "Password"},
	formRecover:  {"Email"},
	formAddress:  {"First name", "Last name", "Address", "City", "Zip", "Country"},
}

// form is a modal input form for account operations.
type form struct {
	kind       formKind
	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string
}

func newForm(kind formKind) *form {
	labels := formFields[kind]
	f := &form{kind: kind, inputs: make([]textinput.Model, len(labels))}
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = label
		in.CharLimit = 120
		in.Width = 32
		if label == "Password" {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[i] = in
	}
	f.inputs[0].Focus()
	return f
}

func (f *form) value(label string) string {
	for i, l := range formFields[f.kind] {
		if l == label {
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

func (f *form) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// accountMsg carries the result of a form submission.
type accountMsg struct {
	kind   formKind
	result session.Result
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f.submitting {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		f.setFocus(f.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.setFocus(f.focus - 1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if f.focus < len(f.inputs)-1 {
			f.setFocus(f.focus + 1)
			return m, nil
		}
		f.submitting = true
		f.err = ""
		return m, m.submitCmd(f)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m Model) submitCmd(f *form) tea.Cmd {
	ctx, s, kind := m.ctx, m.session, f.kind
	switch kind {
	case formLogin:
		email, password := f.value("Email"), f.value("Password")
		return func() tea.Msg {
			return accountMsg{kind: kind, result: s.Login(ctx, email, password)}
		}
	case formRegister:
		input := shopify.CustomerCreateInput{
			FirstName: f.value("First name"),
			LastName:  f.value("Last name"),
			Email:     f.value("Email"),
			Password:  f.value("Password"),
		}
		return func() tea.Msg {
			return accountMsg{kind: kind, result: s.Register(ctx, input)}
		}
	case formRecover:
		email := f.value("Email")
		return func() tea.Msg {
			return accountMsg{kind: kind, result: s.RecoverPassword(ctx, email)}
		}
	case formAddress:
		input := shopify.AddressInput{
			FirstName: f.value("First name"),
			LastName:  f.value("Last name"),
			Address1:  f.value("Address"),
			City:      f.value("City"),
			Zip:       f.value("Zip"),
			Country:   f.value("Country"),
		}
		return func() tea.Msg {
			return accountMsg{kind: kind, result: s.AddAddress(ctx, input)}
		}
	}
	return nil
}

func (m *Model) handleAccountResult(msg accountMsg) {
	if !msg.result.Success {
		if m.form != nil && m.form.kind == msg.kind {
			m.form.submitting = false
			m.form.err = userErrorText(msg.result.Errors)
		}
		return
	}
	if m.form != nil && m.form.kind == msg.kind {
		m.form = nil
	}
	switch msg.kind {
	case formLogin:
		m.flash = "Signed in"
	case formRegister:
		m.flash = "Account created"
	case formRecover:
		m.flash = "Check your inbox for a reset link"
	case formAddress:
		m.flash = "Address saved"
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		s.Logout(ctx)
		return flashMsg("Signed out")
	}
}

func (m Model) renderForm() string {
	styles := m.theme.Styles()
	f := m.form

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(formTitles[f.kind]))
	b.WriteString("\n\n")
	for i, label := range formFields[f.kind] {
		b.WriteString(styles.MutedText.Render(label))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if f.submitting {
		b.WriteString(styles.WarningText.Render("Working..."))
	} else {
		b.WriteString(styles.FaintText.Render("enter submit · tab next · esc cancel"))
	}
	return m.overlay(styles.Modal.Width(44).Render(b.String()))
}

func (m Model) renderAccountBody() string {
	styles := m.theme.Styles()
	s := m.sess
	var b strings.Builder

	if s.Error != "" {
		b.WriteString(styles.DangerText.Render(s.Error))
		b.WriteString("\n\n")
	}
	switch {
	case s.Initializing:
		b.WriteString(styles.MutedText.Render("Restoring your session..."))
		return b.String()
	case !s.Authenticated:
		b.WriteString(styles.Text.Render("You are browsing as a guest."))
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render("l sign in · g create account · p reset password"))
		return b.String()
	}

	if c := s.Customer; c != nil {
		name := strings.TrimSpace(c.FirstName + " " + c.LastName)
		if name == "" {
			name = c.DisplayName
		}
		b.WriteString(styles.AccentText.Bold(true).Render(name))
		b.WriteString("  ")
		b.WriteString(styles.MutedText.Render(c.Email))
		b.WriteString("\n")
	}
	if s.Loading {
		b.WriteString(styles.WarningText.Render("Loading..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render("Orders"))
	b.WriteString("\n")
	if len(s.Orders) == 0 {
		b.WriteString(styles.FaintText.Render("  No orders yet"))
		b.WriteString("\n")
	}
	for _, o := range s.Orders {
		total := ""
		if o.CurrentTotalPrice != nil {
			total = o.CurrentTotalPrice.String()
		}
		date := ""
		if t := o.ProcessedTime(); !t.IsZero() {
			date = t.Format("2006-01-02")
		}
		b.WriteString(fmt.Sprintf("  %-8s %-10s %-12s %s\n", o.Name, date, total, strings.ToLower(o.FulfillmentStatus)))
		for _, li := range o.LineItems {
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("      %d × %s", li.Quantity, li.Title)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render("Addresses"))
	b.WriteString("\n")
	if len(s.Addresses) == 0 {
		b.WriteString(styles.FaintText.Render("  No saved addresses"))
		b.WriteString("\n")
	}
	for _, a := range s.Addresses {
		marker := "  "
		if s.DefaultAddress != nil && s.DefaultAddress.ID == a.ID {
			marker = styles.SuccessText.Render("★ ")
		}
		b.WriteString(marker)
		b.WriteString(strings.Join(a.Lines(), ", "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("n new address · o sign out"))
	return b.String()
}

// overlay centers content over the full window.
func (m Model) overlay(content string) string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
