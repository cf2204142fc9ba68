package service

import (
	"context"
	"time"

	"autohaul_crm_backend/internal/dispatches/repository"
	"autohaul_crm_backend/internal/dispatches/transport"
	"autohaul_crm_backend/internal/finance"
	"autohaul_crm_backend/internal/workflow"

	"github.com/google/uuid"
)

// Service provides business logic for dispatches.
type Service struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a new dispatches service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// GetByID retrieves a single dispatch.
func (s *Service) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*transport.DispatchResponse, error) {
	dispatch, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return NewResponse(dispatch), nil
}

// List returns a page of dispatches.
func (s *Service) List(ctx context.Context, params repository.ListParams) (*transport.ListDispatchesResponse, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]transport.DispatchResponse, len(result.Items))
	for i := range result.Items {
		items[i] = *NewResponse(&result.Items[i])
	}
	return &transport.ListDispatchesResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update applies a partial update: carrier/driver assignment, schedule,
// renegotiated fees (total recomputed), and notes.
func (s *Service) Update(ctx context.Context, id, tenantID uuid.UUID, req transport.UpdateDispatchRequest) (*transport.DispatchResponse, error) {
	dispatch, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if req.CarrierName != nil {
		dispatch.CarrierName = *req.CarrierName
	}
	if req.CarrierPhone != nil {
		dispatch.CarrierPhone = *req.CarrierPhone
	}
	if req.CarrierEmail != nil {
		dispatch.CarrierEmail = *req.CarrierEmail
	}
	if req.DriverName != nil {
		dispatch.DriverName = *req.DriverName
	}
	if req.DriverPhone != nil {
		dispatch.DriverPhone = *req.DriverPhone
	}
	if req.VehicleDescription != nil {
		dispatch.VehicleDescription = *req.VehicleDescription
	}
	if req.ScheduledPickupAt != nil {
		dispatch.ScheduledPickupAt = req.ScheduledPickupAt
	}
	if req.ActualPickupAt != nil {
		dispatch.ActualPickupAt = req.ActualPickupAt
	}
	if req.ScheduledDeliveryAt != nil {
		dispatch.ScheduledDeliveryAt = req.ScheduledDeliveryAt
	}
	if req.ActualDeliveryAt != nil {
		dispatch.ActualDeliveryAt = req.ActualDeliveryAt
	}
	if req.CarrierFee != nil {
		dispatch.CarrierFee = *req.CarrierFee
	}
	if req.BrokerFee != nil {
		dispatch.BrokerFee = *req.BrokerFee
	}
	if req.Notes != nil {
		dispatch.Notes = req.Notes
	}

	total, err := finance.TotalTariff(dispatch.CarrierFee, dispatch.BrokerFee)
	if err != nil {
		return nil, err
	}
	dispatch.TotalTariff = total
	return s.save(ctx, dispatch)
}

// UpdateState moves the dispatch through its workflow. Delivery stamps the
// actual delivery time when the carrier has not reported one.
func (s *Service) UpdateState(ctx context.Context, id, tenantID uuid.UUID, target string) (*transport.DispatchResponse, error) {
	dispatch, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if err := workflow.Transition(workflow.EntityDispatch, dispatch.State, target); err != nil {
		return nil, err
	}

	dispatch.State = target
	if target == workflow.DispatchStateDelivered && dispatch.ActualDeliveryAt == nil {
		deliveredAt := s.now()
		dispatch.ActualDeliveryAt = &deliveredAt
	}
	return s.save(ctx, dispatch)
}

func (s *Service) save(ctx context.Context, dispatch *repository.Dispatch) (*transport.DispatchResponse, error) {
	dispatch.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, dispatch); err != nil {
		return nil, err
	}
	return NewResponse(dispatch), nil
}

// NewResponse builds the API representation of a dispatch. Exported for the
// pipeline service.
func NewResponse(d *repository.Dispatch) *transport.DispatchResponse {
	return &transport.DispatchResponse{
		ID:                  d.ID,
		TenantID:            d.TenantID,
		OrderID:             d.OrderID,
		LeadID:              d.LeadID,
		PublicID:            d.PublicID,
		CarrierName:         d.CarrierName,
		CarrierPhone:        d.CarrierPhone,
		CarrierEmail:        d.CarrierEmail,
		DriverName:          d.DriverName,
		DriverPhone:         d.DriverPhone,
		VehicleDescription:  d.VehicleDescription,
		ScheduledPickupAt:   d.ScheduledPickupAt,
		ActualPickupAt:      d.ActualPickupAt,
		ScheduledDeliveryAt: d.ScheduledDeliveryAt,
		ActualDeliveryAt:    d.ActualDeliveryAt,
		CarrierFee:          d.CarrierFee,
		BrokerFee:           d.BrokerFee,
		TotalTariff:         d.TotalTariff,
		State:               d.State,
		Notes:               d.Notes,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}
