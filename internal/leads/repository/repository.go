package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autohaul_crm_backend/internal/finance"
	"autohaul_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Lead is the database model for a shipping opportunity.
type Lead struct {
	ID              uuid.UUID  `db:"id"`
	TenantID        uuid.UUID  `db:"tenant_id"`
	AssignedAgentID *uuid.UUID `db:"assigned_agent_id"`
	PublicID        string     `db:"public_id"`
	ContactName     string     `db:"contact_name"`
	ContactEmail    string     `db:"contact_email"`
	ContactPhone    string     `db:"contact_phone"`
	VehicleMake     string     `db:"vehicle_make"`
	VehicleModel    string     `db:"vehicle_model"`
	VehicleYear     int        `db:"vehicle_year"`
	Origin          string     `db:"origin"`
	Destination     string     `db:"destination"`
	OriginZip       *string    `db:"origin_zip"`
	DestinationZip  *string    `db:"destination_zip"`
	PickupDate      *time.Time `db:"pickup_date"`
	DeliveryDate    *time.Time `db:"delivery_date"`
	CarrierFee      string     `db:"carrier_fee"`
	BrokerFee       string     `db:"broker_fee"`
	TotalTariff     string     `db:"total_tariff"`
	State           string     `db:"state"`
	Priority        string     `db:"priority"`
	Notes           *string    `db:"notes"`
	Source          string     `db:"source"`
	ExternalID      *string    `db:"external_id"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// ListParams contains parameters for listing leads.
type ListParams struct {
	TenantID        uuid.UUID
	AssignedAgentID *uuid.UUID
	State           *string
	Page            int
	PageSize        int
}

// ListResult contains the paginated result of listing leads.
type ListResult struct {
	Items      []Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ErrPublicIDTaken signals that an insert lost the public identifier race to
// a concurrent lead creation in the same tenant and period. The caller is
// expected to re-read the period maximum and retry.
var ErrPublicIDTaken = errors.New("public identifier already taken")

const leadNotFoundMsg = "lead not found"

const leadColumns = `id, tenant_id, assigned_agent_id, public_id,
	contact_name, contact_email, contact_phone,
	vehicle_make, vehicle_model, vehicle_year,
	origin, destination, origin_zip, destination_zip,
	pickup_date, delivery_date,
	carrier_fee::text, broker_fee::text, total_tariff::text,
	state, priority, notes, source, external_id, created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScanLead reads one lead row. Exported for the pipeline repository, which
// selects leads inside its conversion transactions.
func ScanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.TenantID, &l.AssignedAgentID, &l.PublicID,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone,
		&l.VehicleMake, &l.VehicleModel, &l.VehicleYear,
		&l.Origin, &l.Destination, &l.OriginZip, &l.DestinationZip,
		&l.PickupDate, &l.DeliveryDate,
		&l.CarrierFee, &l.BrokerFee, &l.TotalTariff,
		&l.State, &l.Priority, &l.Notes, &l.Source, &l.ExternalID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(leadNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}
	return &l, nil
}

// LeadColumns exposes the select list for the pipeline repository.
func LeadColumns() string { return leadColumns }

// Insert persists a new lead. A unique violation on the public identifier is
// reported as ErrPublicIDTaken so the allocator can retry.
func (r *Repository) Insert(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (
			id, tenant_id, assigned_agent_id, public_id,
			contact_name, contact_email, contact_phone,
			vehicle_make, vehicle_model, vehicle_year,
			origin, destination, origin_zip, destination_zip,
			pickup_date, delivery_date,
			carrier_fee, broker_fee, total_tariff,
			state, priority, notes, source, external_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`

	_, err := r.pool.Exec(ctx, query,
		lead.ID, lead.TenantID, lead.AssignedAgentID, lead.PublicID,
		lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		lead.VehicleMake, lead.VehicleModel, lead.VehicleYear,
		lead.Origin, lead.Destination, lead.OriginZip, lead.DestinationZip,
		lead.PickupDate, lead.DeliveryDate,
		lead.CarrierFee, lead.BrokerFee, lead.TotalTariff,
		lead.State, lead.Priority, lead.Notes, lead.Source, lead.ExternalID,
		lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "leads_tenant_public_id_key" {
				return ErrPublicIDTaken
			}
			return apperr.Wrap(apperr.KindConflict, "duplicate lead", err)
		}
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by its ID scoped to tenant.
func (r *Repository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1 AND tenant_id = $2`
	return ScanLead(r.pool.QueryRow(ctx, query, id, tenantID))
}

// FindByExternalID looks up an ingested lead by its upstream identifier.
// Returns (nil, nil) when no such lead exists.
func (r *Repository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 AND external_id = $2`
	lead, err := ScanLead(r.pool.QueryRow(ctx, query, tenantID, externalID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return lead, nil
}

// MaxPublicID returns the lexicographically greatest public identifier with
// the given period prefix for the tenant, or "" when none exists.
func (r *Repository) MaxPublicID(ctx context.Context, tenantID uuid.UUID, prefix string) (string, error) {
	var max *string
	query := `
		SELECT MAX(public_id) FROM leads
		WHERE tenant_id = $1 AND public_id LIKE $2 || '%'`

	if err := r.pool.QueryRow(ctx, query, tenantID, prefix).Scan(&max); err != nil {
		return "", fmt.Errorf("failed to read max public identifier: %w", err)
	}
	if max == nil {
		return "", nil
	}
	return *max, nil
}

// Update persists all mutable lead fields.
func (r *Repository) Update(ctx context.Context, lead *Lead) error {
	query := `
		UPDATE leads SET
			assigned_agent_id = $3, contact_name = $4, contact_email = $5, contact_phone = $6,
			vehicle_make = $7, vehicle_model = $8, vehicle_year = $9,
			origin = $10, destination = $11, origin_zip = $12, destination_zip = $13,
			pickup_date = $14, delivery_date = $15,
			carrier_fee = $16, broker_fee = $17, total_tariff = $18,
			state = $19, priority = $20, notes = $21, updated_at = $22
		WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query,
		lead.ID, lead.TenantID,
		lead.AssignedAgentID, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		lead.VehicleMake, lead.VehicleModel, lead.VehicleYear,
		lead.Origin, lead.Destination, lead.OriginZip, lead.DestinationZip,
		lead.PickupDate, lead.DeliveryDate,
		lead.CarrierFee, lead.BrokerFee, lead.TotalTariff,
		lead.State, lead.Priority, lead.Notes, lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

// Delete removes a lead. Derived quotes/orders/dispatches cascade at the
// database level.
func (r *Repository) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

// List returns a page of leads filtered by agent and state.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 200 {
		params.PageSize = 25
	}

	where := `WHERE tenant_id = $1`
	args := []any{params.TenantID}
	if params.AssignedAgentID != nil {
		args = append(args, *params.AssignedAgentID)
		where += fmt.Sprintf(" AND assigned_agent_id = $%d", len(args))
	}
	if params.State != nil {
		args = append(args, *params.State)
		where += fmt.Sprintf(" AND state = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY public_id DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0, params.PageSize)
	for rows.Next() {
		lead, err := ScanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
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

// ListStats loads the minimal per-lead data the financial rollup needs.
func (r *Repository) ListStats(ctx context.Context, tenantID uuid.UUID) ([]finance.LeadStat, error) {
	query := `SELECT assigned_agent_id, state, broker_fee::text FROM leads WHERE tenant_id = $1`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead stats: %w", err)
	}
	defer rows.Close()

	var stats []finance.LeadStat
	for rows.Next() {
		var s finance.LeadStat
		if err := rows.Scan(&s.AssignedAgentID, &s.State, &s.BrokerFee); err != nil {
			return nil, fmt.Errorf("failed to scan lead stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lead stats: %w", err)
	}
	return stats, nil
}
