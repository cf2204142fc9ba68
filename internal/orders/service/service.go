package service

import (
	"context"
	"time"

	"autohaul_crm_backend/internal/orders/repository"
	"autohaul_crm_backend/internal/orders/transport"
	"autohaul_crm_backend/internal/workflow"
	"autohaul_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

// Service provides business logic for orders.
type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a new orders service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GetByID retrieves a single order.
func (s *Service) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return NewResponse(order), nil
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, params repository.ListParams) (*transport.ListOrdersResponse, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.OrderResponse, len(result.Items))
	for i := range result.Items {
		items[i] = *NewResponse(&result.Items[i])
	}
	return &transport.ListOrdersResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update applies a partial update to the order's contract details.
func (s *Service) Update(ctx context.Context, id, tenantID uuid.UUID, req transport.UpdateOrderRequest) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if req.ContractType != nil {
		order.ContractType = *req.ContractType
	}
	return s.save(ctx, order)
}

// MarkContractSent records the contract going out. Idempotent: re-marking a
// sent contract only refreshes the timestamp when one is supplied.
func (s *Service) MarkContractSent(ctx context.Context, id, tenantID uuid.UUID, req transport.MarkContractSentRequest) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	sentAt := s.now()
	if req.SentAt != nil {
		sentAt = *req.SentAt
	}
	order.ContractSent = true
	order.ContractSentAt = &sentAt
	return s.save(ctx, order)
}

// SignContract records the customer's signature and moves the order to
// signed. The workflow table rejects signing a cancelled or in-progress
// order.
func (s *Service) SignContract(ctx context.Context, id, tenantID uuid.UUID, req transport.SignContractRequest) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if order.State != workflow.OrderStateSigned {
		if err := workflow.Transition(workflow.EntityOrder, order.State, workflow.OrderStateSigned); err != nil {
			return nil, err
		}
		order.State = workflow.OrderStateSigned
	}

	signedAt := s.now()
	if req.SignedAt != nil {
		signedAt = *req.SignedAt
	}
	order.ContractSigned = true
	order.ContractSignedAt = &signedAt
	order.SignaturePayload = &req.SignaturePayload
	return s.save(ctx, order)
}

// AddChangeOrder appends an amendment and moves the order to
// change_requested when it is not already there.
func (s *Service) AddChangeOrder(ctx context.Context, id, tenantID uuid.UUID, req transport.AddChangeOrderRequest) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if order.State != workflow.OrderStateChangeRequested {
		if err := workflow.Transition(workflow.EntityOrder, order.State, workflow.OrderStateChangeRequested); err != nil {
			return nil, err
		}
		order.State = workflow.OrderStateChangeRequested
	}

	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}
	order.ChangeOrders = append(order.ChangeOrders, repository.ChangeOrder{
		Description: req.Description,
		Date:        date,
	})
	return s.save(ctx, order)
}

// UpdateState moves the order through its workflow. Moving to signed
// requires a recorded signature; SignContract is the usual path there.
func (s *Service) UpdateState(ctx context.Context, id, tenantID uuid.UUID, target string) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if target == workflow.OrderStateSigned && !order.ContractSigned {
		return nil, apperr.Validation("order has no recorded signature")
	}
	if err := workflow.Transition(workflow.EntityOrder, order.State, target); err != nil {
		return nil, err
	}

	order.State = target
	return s.save(ctx, order)
}

func (s *Service) save(ctx context.Context, order *repository.Order) (*transport.OrderResponse, error) {
	order.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}
	return NewResponse(order), nil
}

// NewResponse builds the API representation of an order. Exported for the
// pipeline service.
func NewResponse(o *repository.Order) *transport.OrderResponse {
	changeOrders := make([]transport.ChangeOrder, len(o.ChangeOrders))
	for i, co := range o.ChangeOrders {
		changeOrders[i] = transport.ChangeOrder{Description: co.Description, Date: co.Date}
	}
	return &transport.OrderResponse{
		ID:               o.ID,
		TenantID:         o.TenantID,
		QuoteID:          o.QuoteID,
		LeadID:           o.LeadID,
		PublicID:         o.PublicID,
		ContractType:     o.ContractType,
		ContractSent:     o.ContractSent,
		ContractSentAt:   o.ContractSentAt,
		ContractSigned:   o.ContractSigned,
		ContractSignedAt: o.ContractSignedAt,
		SignaturePayload: o.SignaturePayload,
		ChangeOrders:     changeOrders,
		State:            o.State,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
