// Package notification sends agent-facing emails in response to domain
// events. It subscribes to the bus so the conversion engine never needs to
// know about email providers.
package notification

import (
	"context"
	"fmt"

	identitytransport "autohaul_crm_backend/internal/identity/transport"
	"autohaul_crm_backend/internal/pipeline/domain"
	"autohaul_crm_backend/platform/config"
	"autohaul_crm_backend/platform/events"
	"autohaul_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// AgentReader resolves the assigned agent for a conversion event.
type AgentReader interface {
	GetAgent(ctx context.Context, id, tenantID uuid.UUID) (*identitytransport.AgentResponse, error)
}

var conversionSubjects = map[string]string{
	domain.EventLeadConvertedToQuote:     "Quote created for shipment %s",
	domain.EventQuoteConvertedToOrder:    "Order created for shipment %s",
	domain.EventOrderConvertedToDispatch: "Dispatch created for shipment %s",
}

// Module wires conversion events to the email sender.
type Module struct {
	sender Sender
	agents AgentReader
	log    *logger.Logger
}

// NewModule creates the notification module and subscribes it to the
// conversion events. When SMTP is not configured the module logs instead of
// sending.
func NewModule(bus events.Bus, agents AgentReader, cfg config.SMTPConfig, log *logger.Logger) *Module {
	var sender Sender
	if cfg.IsEmailEnabled() {
		sender = NewSMTPSender(cfg)
	} else {
		log.Info("smtp not configured, conversion notifications will be logged only")
		sender = NewLogSender(log)
	}

	m := &Module{
		sender: sender,
		agents: agents,
		log:    log,
	}

	handler := events.HandlerFunc(m.handleConversion)
	bus.Subscribe(domain.EventLeadConvertedToQuote, handler)
	bus.Subscribe(domain.EventQuoteConvertedToOrder, handler)
	bus.Subscribe(domain.EventOrderConvertedToDispatch, handler)

	return m
}

func (m *Module) handleConversion(ctx context.Context, event events.Event) error {
	conv, ok := event.(domain.ConversionEvent)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.EventName())
	}

	if conv.AssignedAgentID == nil {
		m.log.Info("conversion has no assigned agent, skipping notification",
			"event", conv.Name, "publicId", conv.PublicID)
		return nil
	}

	agent, err := m.agents.GetAgent(ctx, *conv.AssignedAgentID, conv.TenantID)
	if err != nil {
		return fmt.Errorf("failed to resolve assigned agent: %w", err)
	}

	subjectFmt, ok := conversionSubjects[conv.Name]
	if !ok {
		return fmt.Errorf("no subject for event %s", conv.Name)
	}

	subject := fmt.Sprintf(subjectFmt, conv.PublicID)
	body := fmt.Sprintf(
		"Hi %s,\n\nShipment %s moved forward in the pipeline (%s).\n\nEntity id: %s\n",
		agent.Name, conv.PublicID, conv.Name, conv.EntityID,
	)

	if err := m.sender.Send(ctx, agent.Email, subject, body); err != nil {
		return fmt.Errorf("failed to send conversion notification: %w", err)
	}

	m.log.Info("conversion notification sent",
		"event", conv.Name,
		"publicId", conv.PublicID,
		"agent", agent.Email,
	)
	return nil
}
