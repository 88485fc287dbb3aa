package wizard

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/catalogd/catalogd/internal/config"
)

type mockOnboarder struct {
	testErr    error
	onboardErr error
	onboarded  []string
}

func (m *mockOnboarder) TestConnection(_ context.Context, _ *config.TenantConfig) error {
	return m.testErr
}

func (m *mockOnboarder) Onboard(_ context.Context, tenant string, _ *config.TenantConfig) error {
	if m.onboardErr != nil {
		return m.onboardErr
	}
	m.onboarded = append(m.onboarded, tenant)
	return nil
}

func TestNewOnboardModel(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})
	if m.focused != fieldTenant {
		t.Errorf("expected focus on tenant field, got %d", m.focused)
	}
	if m.done {
		t.Error("should not be done initially")
	}
	if m.working {
		t.Error("should not be working initially")
	}
}

func TestFieldNavigation(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})

	result, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = result.(OnboardModel)
	if m.focused != fieldHost {
		t.Errorf("after tab: expected focused=%d, got %d", fieldHost, m.focused)
	}

	result, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = result.(OnboardModel)
	if m.focused != fieldTenant {
		t.Errorf("after shift-tab: expected focused=%d, got %d", fieldTenant, m.focused)
	}

	// Shift-tab wraps backwards
	result, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m = result.(OnboardModel)
	if m.focused != fieldPassword {
		t.Errorf("expected wrap to password field, got %d", m.focused)
	}
}

func TestTypeToggleCycles(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})

	for i, want := range []string{"postgresql", "oracle", "mysql"} {
		result, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
		m = result.(OnboardModel)
		if got := dbTypes[m.dbTypeChoice]; got != want {
			t.Errorf("toggle %d: type = %q, want %q", i+1, got, want)
		}
	}
}

func TestCancel(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})
	result, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	rm := result.(OnboardModel)
	if !rm.Done() {
		t.Error("should be done after cancel")
	}
	if !rm.Cancelled() {
		t.Error("should be cancelled")
	}
	if rm.Result() != nil {
		t.Error("result should be nil after cancel")
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})

	cfg := m.buildConfig()
	if cfg.Type != "mysql" || cfg.Host != "localhost" || cfg.Port != 3306 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	m.dbTypeChoice = 2 // oracle
	cfg = m.buildConfig()
	if cfg.Port != 1521 {
		t.Errorf("oracle default port = %d, want 1521", cfg.Port)
	}

	m.inputs[fieldPort].SetValue("2484")
	cfg = m.buildConfig()
	if cfg.Port != 2484 {
		t.Errorf("explicit port = %d, want 2484", cfg.Port)
	}
}

func TestOnboardDoneSuccess(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})

	cfg := &config.TenantConfig{Type: "mysql", Host: "db", Schema: "shop"}
	result, _ := m.Update(onboardDoneMsg{tenant: "acme", cfg: cfg})
	rm := result.(OnboardModel)

	if !rm.Done() {
		t.Error("should be done on success")
	}
	if rm.Result() == nil || rm.Result().Tenant != "acme" {
		t.Errorf("unexpected result: %+v", rm.Result())
	}
}

func TestOnboardDoneFailureAllowsRetry(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})

	result, _ := m.Update(onboardDoneMsg{err: fmt.Errorf("connection refused")})
	rm := result.(OnboardModel)

	if rm.Done() {
		t.Error("failure should keep the form open")
	}
	if rm.err == nil {
		t.Error("error should be recorded")
	}
	v := rm.View()
	if !strings.Contains(v, "Onboarding failed") {
		t.Error("view should show the failure")
	}
	if !strings.Contains(v, "retry") {
		t.Error("view should invite a retry")
	}
}

func TestViewRenders(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})
	m.width = 80
	v := m.View()
	if !strings.Contains(v, "Onboard a tenant database") {
		t.Error("view should contain title")
	}
	for _, label := range []string{"Tenant", "Host", "Port", "Schema", "Username", "Password"} {
		if !strings.Contains(v, label) {
			t.Errorf("view should contain %s label", label)
		}
	}
}

func TestViewShowsSpinner(t *testing.T) {
	m := NewOnboardModel(&mockOnboarder{})
	m.working = true
	v := m.View()
	if !strings.Contains(v, "building catalog") {
		t.Error("view should show progress status")
	}
}
