package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autohaul_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Dispatch is the database model for an active shipment derived from a signed
// order. The public identifier is copied verbatim from the lead. Fees start
// as copies of the quote's and may be renegotiated with the carrier.
type Dispatch struct {
	ID                  uuid.UUID  `db:"id"`
	TenantID            uuid.UUID  `db:"tenant_id"`
	OrderID             uuid.UUID  `db:"order_id"`
	LeadID              uuid.UUID  `db:"lead_id"`
	PublicID            string     `db:"public_id"`
	CarrierName         string     `db:"carrier_name"`
	CarrierPhone        string     `db:"carrier_phone"`
	CarrierEmail        string     `db:"carrier_email"`
	DriverName          string     `db:"driver_name"`
	DriverPhone         string     `db:"driver_phone"`
	VehicleDescription  string     `db:"vehicle_description"`
	ScheduledPickupAt   *time.Time `db:"scheduled_pickup_at"`
	ActualPickupAt      *time.Time `db:"actual_pickup_at"`
	ScheduledDeliveryAt *time.Time `db:"scheduled_delivery_at"`
	ActualDeliveryAt    *time.Time `db:"actual_delivery_at"`
	CarrierFee          string     `db:"carrier_fee"`
	BrokerFee           string     `db:"broker_fee"`
	TotalTariff         string     `db:"total_tariff"`
	State               string     `db:"state"`
	Notes               *string    `db:"notes"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// ListParams contains parameters for listing dispatches.
type ListParams struct {
	TenantID uuid.UUID
	State    *string
	Page     int
	PageSize int
}

// ListResult contains the paginated result of listing dispatches.
type ListResult struct {
	Items      []Dispatch
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const dispatchNotFoundMsg = "dispatch not found"

const dispatchColumns = `id, tenant_id, order_id, lead_id, public_id,
	carrier_name, carrier_phone, carrier_email, driver_name, driver_phone,
	vehicle_description, scheduled_pickup_at, actual_pickup_at,
	scheduled_delivery_at, actual_delivery_at,
	carrier_fee::text, broker_fee::text, total_tariff::text,
	state, notes, created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for dispatches.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new dispatches repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScanDispatch reads one dispatch row. Exported for the pipeline repository,
// which selects dispatches inside its conversion transactions.
func ScanDispatch(row pgx.Row) (*Dispatch, error) {
	var d Dispatch
	err := row.Scan(
		&d.ID, &d.TenantID, &d.OrderID, &d.LeadID, &d.PublicID,
		&d.CarrierName, &d.CarrierPhone, &d.CarrierEmail, &d.DriverName, &d.DriverPhone,
		&d.VehicleDescription, &d.ScheduledPickupAt, &d.ActualPickupAt,
		&d.ScheduledDeliveryAt, &d.ActualDeliveryAt,
		&d.CarrierFee, &d.BrokerFee, &d.TotalTariff,
		&d.State, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(dispatchNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan dispatch: %w", err)
	}
	return &d, nil
}

// DispatchColumns exposes the select list for the pipeline repository.
func DispatchColumns() string { return dispatchColumns }

// GetByID retrieves a dispatch by its ID scoped to tenant.
func (r *Repository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE id = $1 AND tenant_id = $2`
	return ScanDispatch(r.pool.QueryRow(ctx, query, id, tenantID))
}

// FindByOrderID returns the order's dispatch, or (nil, nil) when none exists.
// At most one can exist per order (unique constraint).
func (r *Repository) FindByOrderID(ctx context.Context, orderID, tenantID uuid.UUID) (*Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE order_id = $1 AND tenant_id = $2`
	dispatch, err := ScanDispatch(r.pool.QueryRow(ctx, query, orderID, tenantID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dispatch, nil
}

// Update persists all mutable dispatch fields.
func (r *Repository) Update(ctx context.Context, dispatch *Dispatch) error {
	query := `
		UPDATE dispatches SET
			carrier_name = $3, carrier_phone = $4, carrier_email = $5,
			driver_name = $6, driver_phone = $7, vehicle_description = $8,
			scheduled_pickup_at = $9, actual_pickup_at = $10,
			scheduled_delivery_at = $11, actual_delivery_at = $12,
			carrier_fee = $13, broker_fee = $14, total_tariff = $15,
			state = $16, notes = $17, updated_at = $18
		WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query,
		dispatch.ID, dispatch.TenantID,
		dispatch.CarrierName, dispatch.CarrierPhone, dispatch.CarrierEmail,
		dispatch.DriverName, dispatch.DriverPhone, dispatch.VehicleDescription,
		dispatch.ScheduledPickupAt, dispatch.ActualPickupAt,
		dispatch.ScheduledDeliveryAt, dispatch.ActualDeliveryAt,
		dispatch.CarrierFee, dispatch.BrokerFee, dispatch.TotalTariff,
		dispatch.State, dispatch.Notes, dispatch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update dispatch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(dispatchNotFoundMsg)
	}
	return nil
}

// List returns a page of dispatches filtered by state.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 200 {
		params.PageSize = 25
	}

	where := `WHERE tenant_id = $1`
	args := []any{params.TenantID}
	if params.State != nil {
		args = append(args, *params.State)
		where += fmt.Sprintf(" AND state = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dispatches `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count dispatches: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM dispatches %s ORDER BY public_id DESC LIMIT $%d OFFSET $%d`,
		dispatchColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	items := make([]Dispatch, 0, params.PageSize)
	for rows.Next() {
		dispatch, err := ScanDispatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *dispatch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatches: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}
