package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autohaul_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// ChangeOrder is one contract amendment, stored in a JSONB list in the order
// it was recorded.
type ChangeOrder struct {
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Order is the database model for a contract derived from an accepted quote.
// The public identifier is copied verbatim from the lead.
type Order struct {
	ID               uuid.UUID     `db:"id"`
	TenantID         uuid.UUID     `db:"tenant_id"`
	QuoteID          uuid.UUID     `db:"quote_id"`
	LeadID           uuid.UUID     `db:"lead_id"`
	PublicID         string        `db:"public_id"`
	ContractType     string        `db:"contract_type"`
	ContractSent     bool          `db:"contract_sent"`
	ContractSentAt   *time.Time    `db:"contract_sent_at"`
	ContractSigned   bool          `db:"contract_signed"`
	ContractSignedAt *time.Time    `db:"contract_signed_at"`
	SignaturePayload *string       `db:"signature_payload"`
	ChangeOrders     []ChangeOrder `db:"change_orders"`
	State            string        `db:"state"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

// ListParams contains parameters for listing orders.
type ListParams struct {
	TenantID uuid.UUID
	State    *string
	Page     int
	PageSize int
}

// ListResult contains the paginated result of listing orders.
type ListResult struct {
	Items      []Order
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const orderNotFoundMsg = "order not found"

const orderColumns = `id, tenant_id, quote_id, lead_id, public_id,
	contract_type, contract_sent, contract_sent_at, contract_signed,
	contract_signed_at, signature_payload, change_orders, state,
	created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScanOrder reads one order row. Exported for the pipeline repository, which
// selects orders inside its conversion transactions.
func ScanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var changeOrders []byte
	err := row.Scan(
		&o.ID, &o.TenantID, &o.QuoteID, &o.LeadID, &o.PublicID,
		&o.ContractType, &o.ContractSent, &o.ContractSentAt, &o.ContractSigned,
		&o.ContractSignedAt, &o.SignaturePayload, &changeOrders, &o.State,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(orderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if len(changeOrders) > 0 {
		if err := json.Unmarshal(changeOrders, &o.ChangeOrders); err != nil {
			return nil, fmt.Errorf("failed to decode change orders: %w", err)
		}
	}
	return &o, nil
}

// MarshalChangeOrders encodes the change-order list for a JSONB column.
func MarshalChangeOrders(changeOrders []ChangeOrder) ([]byte, error) {
	if changeOrders == nil {
		changeOrders = []ChangeOrder{}
	}
	data, err := json.Marshal(changeOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change orders: %w", err)
	}
	return data, nil
}

// OrderColumns exposes the select list for the pipeline repository.
func OrderColumns() string { return orderColumns }

// GetByID retrieves an order by its ID scoped to tenant.
func (r *Repository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND tenant_id = $2`
	return ScanOrder(r.pool.QueryRow(ctx, query, id, tenantID))
}

// FindByQuoteID returns the quote's order, or (nil, nil) when none exists.
// At most one can exist per quote (unique constraint).
func (r *Repository) FindByQuoteID(ctx context.Context, quoteID, tenantID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE quote_id = $1 AND tenant_id = $2`
	order, err := ScanOrder(r.pool.QueryRow(ctx, query, quoteID, tenantID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// Update persists all mutable order fields.
func (r *Repository) Update(ctx context.Context, order *Order) error {
	changeOrders, err := MarshalChangeOrders(order.ChangeOrders)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders SET
			contract_type = $3, contract_sent = $4, contract_sent_at = $5,
			contract_signed = $6, contract_signed_at = $7, signature_payload = $8,
			change_orders = $9, state = $10, updated_at = $11
		WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query,
		order.ID, order.TenantID,
		order.ContractType, order.ContractSent, order.ContractSentAt,
		order.ContractSigned, order.ContractSignedAt, order.SignaturePayload,
		changeOrders, order.State, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMsg)
	}
	return nil
}

// List returns a page of orders filtered by state.
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY public_id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	items := make([]Order, 0, params.PageSize)
	for rows.Next() {
		order, err := ScanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
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
