package notification

import (
	"context"
	"strings"
	"testing"

	identitytransport "autohaul_crm_backend/internal/identity/transport"
	"autohaul_crm_backend/internal/pipeline/domain"
	"autohaul_crm_backend/platform/events"
	"autohaul_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeAgents struct {
	agent *identitytransport.AgentResponse
}

func (f *fakeAgents) GetAgent(_ context.Context, id, tenantID uuid.UUID) (*identitytransport.AgentResponse, error) {
	return f.agent, nil
}

type recordingSender struct {
	to      string
	subject string
	body    string
	calls   int
}

func (r *recordingSender) Send(_ context.Context, toEmail, subject, body string) error {
	r.to = toEmail
	r.subject = subject
	r.body = body
	r.calls++
	return nil
}

func newTestModule(sender Sender, agents AgentReader) *Module {
	return &Module{
		sender: sender,
		agents: agents,
		log:    logger.New("development"),
	}
}

func TestHandleConversionSendsToAssignedAgent(t *testing.T) {
	agentID := uuid.New()
	tenantID := uuid.New()
	sender := &recordingSender{}
	m := newTestModule(sender, &fakeAgents{agent: &identitytransport.AgentResponse{
		ID:    agentID,
		Name:  "Morgan Reyes",
		Email: "morgan@example.com",
	}})

	event := domain.ConversionEvent{
		BaseEvent:       events.NewBaseEvent(),
		Name:            domain.EventLeadConvertedToQuote,
		TenantID:        tenantID,
		LeadID:          uuid.New(),
		EntityID:        uuid.New(),
		PublicID:        "2025060042",
		AssignedAgentID: &agentID,
	}

	if err := m.handleConversion(context.Background(), event); err != nil {
		t.Fatalf("handleConversion: %v", err)
	}
	if sender.to != "morgan@example.com" {
		t.Fatalf("sent to %s", sender.to)
	}
	if !strings.Contains(sender.subject, "2025060042") {
		t.Fatalf("subject missing public id: %s", sender.subject)
	}
	if !strings.Contains(sender.body, "Morgan Reyes") {
		t.Fatalf("body missing agent name: %s", sender.body)
	}
}

func TestHandleConversionSkipsUnassignedLead(t *testing.T) {
	sender := &recordingSender{}
	m := newTestModule(sender, &fakeAgents{})

	event := domain.ConversionEvent{
		BaseEvent: events.NewBaseEvent(),
		Name:      domain.EventQuoteConvertedToOrder,
		TenantID:  uuid.New(),
		LeadID:    uuid.New(),
		EntityID:  uuid.New(),
		PublicID:  "2025060043",
	}

	if err := m.handleConversion(context.Background(), event); err != nil {
		t.Fatalf("handleConversion: %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no send, got %d", sender.calls)
	}
}

func TestNewModuleSubscribesToConversionEvents(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("development"))
	agentID := uuid.New()
	m := NewModule(bus, &fakeAgents{agent: &identitytransport.AgentResponse{
		ID:    agentID,
		Name:  "Avery Kim",
		Email: "avery@example.com",
	}}, disabledSMTP{}, logger.New("development"))

	sender := &recordingSender{}
	m.sender = sender

	event := domain.ConversionEvent{
		BaseEvent:       events.NewBaseEvent(),
		Name:            domain.EventOrderConvertedToDispatch,
		TenantID:        uuid.New(),
		LeadID:          uuid.New(),
		EntityID:        uuid.New(),
		PublicID:        "2025060044",
		AssignedAgentID: &agentID,
	}

	if err := bus.PublishSync(context.Background(), event); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls)
	}
}

type disabledSMTP struct{}

func (disabledSMTP) GetSMTPHost() string         { return "" }
func (disabledSMTP) GetSMTPPort() int            { return 587 }
func (disabledSMTP) GetSMTPUsername() string     { return "" }
func (disabledSMTP) GetSMTPPassword() string     { return "" }
func (disabledSMTP) GetEmailFromName() string    { return "" }
func (disabledSMTP) GetEmailFromAddress() string { return "" }
func (disabledSMTP) IsEmailEnabled() bool        { return false }
