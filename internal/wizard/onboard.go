// Package wizard is the interactive terminal flow for onboarding a tenant
// database: connection form, probe, then full catalog build.
package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/catalogd/catalogd/internal/config"
)

// Onboarder runs the connection probe and catalog build. Satisfied by
// engine.Engine.
type Onboarder interface {
	TestConnection(ctx context.Context, tc *config.TenantConfig) error
	Onboard(ctx context.Context, tenant string, tc *config.TenantConfig) error
}

// OnboardResult is returned when the wizard completes.
type OnboardResult struct {
	Tenant string
	Config *config.TenantConfig
}

// field indexes
const (
	fieldTenant = iota
	fieldHost
	fieldPort
	fieldSchema
	fieldUsername
	fieldPassword
	fieldCount
)

var dbTypes = []string{"mysql", "postgresql", "oracle"}

var defaultPorts = map[string]int{
	"mysql":      3306,
	"postgresql": 5432,
	"oracle":     1521,
}

// OnboardModel is the bubbletea model for the onboarding form.
type OnboardModel struct {
	onboarder    Onboarder
	inputs       []textinput.Model
	focused      int
	dbTypeChoice int
	err          error
	working      bool
	spinner      spinner.Model
	result       *OnboardResult
	done         bool
	statusMsg    string
	width        int
}

type onboardDoneMsg struct {
	tenant string
	cfg    *config.TenantConfig
	err    error
}

func NewOnboardModel(onboarder Onboarder) OnboardModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldTenant] = textinput.New()
	inputs[fieldTenant].Placeholder = "acme"
	inputs[fieldTenant].CharLimit = 64
	inputs[fieldTenant].Focus()

	inputs[fieldHost] = textinput.New()
	inputs[fieldHost].Placeholder = "localhost"
	inputs[fieldHost].CharLimit = 256

	inputs[fieldPort] = textinput.New()
	inputs[fieldPort].Placeholder = "3306"
	inputs[fieldPort].CharLimit = 5

	inputs[fieldSchema] = textinput.New()
	inputs[fieldSchema].Placeholder = "shop"
	inputs[fieldSchema].CharLimit = 128

	inputs[fieldUsername] = textinput.New()
	inputs[fieldUsername].Placeholder = "catalog_ro"
	inputs[fieldUsername].CharLimit = 128

	inputs[fieldPassword] = textinput.New()
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '*'
	inputs[fieldPassword].CharLimit = 256

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return OnboardModel{
		onboarder: onboarder,
		inputs:    inputs,
		focused:   fieldTenant,
		spinner:   s,
		width:     80,
	}
}

func (m OnboardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m OnboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.working {
			return m, nil // ignore input while onboarding
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit

		case "tab", "down":
			m.focused = (m.focused + 1) % fieldCount
			return m, m.updateFocus()

		case "shift+tab", "up":
			m.focused--
			if m.focused < 0 {
				m.focused = fieldCount - 1
			}
			return m, m.updateFocus()

		case "ctrl+t":
			m.dbTypeChoice = (m.dbTypeChoice + 1) % len(dbTypes)
			return m, nil

		case "enter":
			if m.focused == fieldPassword {
				return m, m.startOnboard()
			}
			m.focused = (m.focused + 1) % fieldCount
			return m, m.updateFocus()
		}

	case onboardDoneMsg:
		m.working = false
		if msg.err != nil {
			m.err = msg.err
			m.statusMsg = fmt.Sprintf("Onboarding failed: %v", msg.err)
			return m, nil
		}
		m.result = &OnboardResult{Tenant: msg.tenant, Config: msg.cfg}
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.working {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.working {
		var cmd tea.Cmd
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m OnboardModel) View() string {
	var b strings.Builder

	title := titleStyle.Render("Onboard a tenant database")
	b.WriteString(title + "\n\n")

	var types []string
	for i, t := range dbTypes {
		marker := "○"
		if i == m.dbTypeChoice {
			marker = "●"
		}
		types = append(types, marker+" "+t)
	}
	b.WriteString(fmt.Sprintf("  Database type: %s  (ctrl+t to toggle)\n\n", strings.Join(types, "  ")))

	labels := []string{"Tenant", "Host", "Port", "Schema", "Username", "Password"}
	for i := range m.inputs {
		label := fmt.Sprintf("  %-10s ", labels[i])
		cursor := "  "
		if i == m.focused {
			cursor = highlightStyle.Render("> ")
		}
		b.WriteString(cursor + dimStyle.Render(label) + m.inputs[i].View() + "\n")
	}

	b.WriteString("\n")

	if m.working {
		b.WriteString(fmt.Sprintf("  %s Connecting and building catalog...\n", m.spinner.View()))
	} else if m.err != nil {
		b.WriteString(errStyle.Render("  "+m.statusMsg) + "\n")
		b.WriteString(dimStyle.Render("  Fix the issue and press Enter to retry\n"))
	} else {
		b.WriteString(dimStyle.Render("  Press Enter on Password to onboard • tab/shift-tab to navigate • esc to cancel\n"))
	}

	return b.String()
}

// Result returns the onboarding result, or nil if not completed.
func (m OnboardModel) Result() *OnboardResult {
	return m.result
}

// Done returns true if the model has finished (success or cancelled).
func (m OnboardModel) Done() bool {
	return m.done
}

// Cancelled returns true if the user cancelled.
func (m OnboardModel) Cancelled() bool {
	return m.done && m.result == nil
}

func (m *OnboardModel) updateFocus() tea.Cmd {
	cmds := make([]tea.Cmd, fieldCount)
	for i := range m.inputs {
		if i == m.focused {
			cmds[i] = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *OnboardModel) startOnboard() tea.Cmd {
	m.working = true
	m.err = nil
	m.statusMsg = ""

	tenant := m.inputs[fieldTenant].Value()
	cfg := m.buildConfig()

	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			if tenant == "" {
				return onboardDoneMsg{err: fmt.Errorf("tenant name is required")}
			}
			if err := m.onboarder.TestConnection(ctx, cfg); err != nil {
				return onboardDoneMsg{err: err}
			}
			if err := m.onboarder.Onboard(ctx, tenant, cfg); err != nil {
				return onboardDoneMsg{err: err}
			}
			return onboardDoneMsg{tenant: tenant, cfg: cfg}
		},
	)
}

func (m *OnboardModel) buildConfig() *config.TenantConfig {
	dbType := dbTypes[m.dbTypeChoice]

	host := m.inputs[fieldHost].Value()
	if host == "" {
		host = "localhost"
	}

	port := defaultPorts[dbType]
	if portStr := m.inputs[fieldPort].Value(); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	return &config.TenantConfig{
		Type:     dbType,
		Host:     host,
		Port:     port,
		Schema:   m.inputs[fieldSchema].Value(),
		Username: m.inputs[fieldUsername].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}
}

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
