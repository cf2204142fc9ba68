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

// Contact is one pickup/drop-off contact, stored in a JSONB list.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Quote is the database model for a priced proposal derived from a lead.
// The public identifier is copied verbatim from the lead.
type Quote struct {
	ID                  uuid.UUID  `db:"id"`
	TenantID            uuid.UUID  `db:"tenant_id"`
	LeadID              uuid.UUID  `db:"lead_id"`
	PublicID            string     `db:"public_id"`
	CarrierFee          string     `db:"carrier_fee"`
	BrokerFee           string     `db:"broker_fee"`
	TotalTariff         string     `db:"total_tariff"`
	PickupAddress       string     `db:"pickup_address"`
	PickupZip           string     `db:"pickup_zip"`
	PickupContacts      []Contact  `db:"pickup_contacts"`
	PickupContactName   string     `db:"pickup_contact_name"`
	PickupContactPhone  string     `db:"pickup_contact_phone"`
	DropoffAddress      string     `db:"dropoff_address"`
	DropoffZip          string     `db:"dropoff_zip"`
	DropoffContacts     []Contact  `db:"dropoff_contacts"`
	DropoffContactName  string     `db:"dropoff_contact_name"`
	DropoffContactPhone string     `db:"dropoff_contact_phone"`
	SpecialTerms        *string    `db:"special_terms"`
	StandardTerms       *string    `db:"standard_terms"`
	State               string     `db:"state"`
	ValidUntil          *time.Time `db:"valid_until"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// ListParams contains parameters for listing quotes.
type ListParams struct {
	TenantID uuid.UUID
	LeadID   *uuid.UUID
	State    *string
	Page     int
	PageSize int
}

// ListResult contains the paginated result of listing quotes.
type ListResult struct {
	Items      []Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

const quoteNotFoundMsg = "quote not found"

const quoteColumns = `id, tenant_id, lead_id, public_id,
	carrier_fee::text, broker_fee::text, total_tariff::text,
	pickup_address, pickup_zip, pickup_contacts, pickup_contact_name, pickup_contact_phone,
	dropoff_address, dropoff_zip, dropoff_contacts, dropoff_contact_name, dropoff_contact_phone,
	special_terms, standard_terms, state, valid_until, created_at, updated_at`

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for quotes.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ScanQuote reads one quote row. Exported for the pipeline repository, which
// selects quotes inside its conversion transactions.
func ScanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var pickupContacts, dropoffContacts []byte
	err := row.Scan(
		&q.ID, &q.TenantID, &q.LeadID, &q.PublicID,
		&q.CarrierFee, &q.BrokerFee, &q.TotalTariff,
		&q.PickupAddress, &q.PickupZip, &pickupContacts, &q.PickupContactName, &q.PickupContactPhone,
		&q.DropoffAddress, &q.DropoffZip, &dropoffContacts, &q.DropoffContactName, &q.DropoffContactPhone,
		&q.SpecialTerms, &q.StandardTerms, &q.State, &q.ValidUntil, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan quote: %w", err)
	}
	if err := unmarshalContacts(pickupContacts, &q.PickupContacts); err != nil {
		return nil, err
	}
	if err := unmarshalContacts(dropoffContacts, &q.DropoffContacts); err != nil {
		return nil, err
	}
	return &q, nil
}

func unmarshalContacts(raw []byte, dst *[]Contact) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode contacts: %w", err)
	}
	return nil
}

// MarshalContacts encodes a contact list for a JSONB column.
func MarshalContacts(contacts []Contact) ([]byte, error) {
	if contacts == nil {
		contacts = []Contact{}
	}
	data, err := json.Marshal(contacts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contacts: %w", err)
	}
	return data, nil
}

// QuoteColumns exposes the select list for the pipeline repository.
func QuoteColumns() string { return quoteColumns }

// GetByID retrieves a quote by its ID scoped to tenant.
func (r *Repository) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1 AND tenant_id = $2`
	return ScanQuote(r.pool.QueryRow(ctx, query, id, tenantID))
}

// FindActiveByLeadID returns the lead's non-cancelled quote, or (nil, nil)
// when none exists. At most one can exist per lead (partial unique index).
func (r *Repository) FindActiveByLeadID(ctx context.Context, leadID, tenantID uuid.UUID) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes
		WHERE lead_id = $1 AND tenant_id = $2 AND state <> 'cancelled'`
	quote, err := ScanQuote(r.pool.QueryRow(ctx, query, leadID, tenantID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return quote, nil
}

// Update persists all mutable quote fields.
func (r *Repository) Update(ctx context.Context, quote *Quote) error {
	pickupContacts, err := MarshalContacts(quote.PickupContacts)
	if err != nil {
		return err
	}
	dropoffContacts, err := MarshalContacts(quote.DropoffContacts)
	if err != nil {
		return err
	}

	query := `
		UPDATE quotes SET
			carrier_fee = $3, broker_fee = $4, total_tariff = $5,
			pickup_address = $6, pickup_zip = $7, pickup_contacts = $8,
			pickup_contact_name = $9, pickup_contact_phone = $10,
			dropoff_address = $11, dropoff_zip = $12, dropoff_contacts = $13,
			dropoff_contact_name = $14, dropoff_contact_phone = $15,
			special_terms = $16, standard_terms = $17, state = $18,
			valid_until = $19, updated_at = $20
		WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query,
		quote.ID, quote.TenantID,
		quote.CarrierFee, quote.BrokerFee, quote.TotalTariff,
		quote.PickupAddress, quote.PickupZip, pickupContacts,
		quote.PickupContactName, quote.PickupContactPhone,
		quote.DropoffAddress, quote.DropoffZip, dropoffContacts,
		quote.DropoffContactName, quote.DropoffContactPhone,
		quote.SpecialTerms, quote.StandardTerms, quote.State,
		quote.ValidUntil, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

// List returns a page of quotes filtered by lead and state.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 200 {
		params.PageSize = 25
	}

	where := `WHERE tenant_id = $1`
	args := []any{params.TenantID}
	if params.LeadID != nil {
		args = append(args, *params.LeadID)
		where += fmt.Sprintf(" AND lead_id = $%d", len(args))
	}
	if params.State != nil {
		args = append(args, *params.State)
		where += fmt.Sprintf(" AND state = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY public_id DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	items := make([]Quote, 0, params.PageSize)
	for rows.Next() {
		quote, err := ScanQuote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
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
