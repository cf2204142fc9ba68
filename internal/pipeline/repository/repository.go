package repository

import (
	"context"
	"errors"
	"fmt"

	dispatchrepo "autohaul_crm_backend/internal/dispatches/repository"
	leadrepo "autohaul_crm_backend/internal/leads/repository"
	orderrepo "autohaul_crm_backend/internal/orders/repository"
	quoterepo "autohaul_crm_backend/internal/quotes/repository"
	"autohaul_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Duplicate-conversion sentinels. The unique constraints on quotes.lead_id
// (partial, non-cancelled), orders.quote_id and dispatches.order_id are the
// authoritative duplicate guards; these surface when two conversions race
// past the idempotent read. The service resolves them by returning the row
// that won.
var (
	ErrDuplicateQuote    = errors.New("lead already has an active quote")
	ErrDuplicateOrder    = errors.New("quote already has an order")
	ErrDuplicateDispatch = errors.New("order already has a dispatch")
)

// Repository performs the conversion writes. Each conversion runs in a
// single transaction: derived-row insert, parent updates and the lead state
// transition commit or roll back together.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new pipeline repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// GetLead loads a lead scoped to tenant.
func (r *Repository) GetLead(ctx context.Context, leadID, tenantID uuid.UUID) (*leadrepo.Lead, error) {
	query := `SELECT ` + leadrepo.LeadColumns() + ` FROM leads WHERE id = $1 AND tenant_id = $2`
	return leadrepo.ScanLead(r.pool.QueryRow(ctx, query, leadID, tenantID))
}

// GetQuote loads a quote scoped to tenant.
func (r *Repository) GetQuote(ctx context.Context, quoteID, tenantID uuid.UUID) (*quoterepo.Quote, error) {
	query := `SELECT ` + quoterepo.QuoteColumns() + ` FROM quotes WHERE id = $1 AND tenant_id = $2`
	return quoterepo.ScanQuote(r.pool.QueryRow(ctx, query, quoteID, tenantID))
}

// GetOrder loads an order scoped to tenant.
func (r *Repository) GetOrder(ctx context.Context, orderID, tenantID uuid.UUID) (*orderrepo.Order, error) {
	query := `SELECT ` + orderrepo.OrderColumns() + ` FROM orders WHERE id = $1 AND tenant_id = $2`
	return orderrepo.ScanOrder(r.pool.QueryRow(ctx, query, orderID, tenantID))
}

// FindActiveQuoteByLeadID returns the lead's non-cancelled quote, or
// (nil, nil) when none exists.
func (r *Repository) FindActiveQuoteByLeadID(ctx context.Context, leadID, tenantID uuid.UUID) (*quoterepo.Quote, error) {
	query := `SELECT ` + quoterepo.QuoteColumns() + ` FROM quotes
		WHERE lead_id = $1 AND tenant_id = $2 AND state <> 'cancelled'`
	quote, err := quoterepo.ScanQuote(r.pool.QueryRow(ctx, query, leadID, tenantID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return quote, nil
}

// FindOrderByQuoteID returns the quote's order, or (nil, nil) when none exists.
func (r *Repository) FindOrderByQuoteID(ctx context.Context, quoteID, tenantID uuid.UUID) (*orderrepo.Order, error) {
	query := `SELECT ` + orderrepo.OrderColumns() + ` FROM orders WHERE quote_id = $1 AND tenant_id = $2`
	order, err := orderrepo.ScanOrder(r.pool.QueryRow(ctx, query, quoteID, tenantID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// FindDispatchByOrderID returns the order's dispatch, or (nil, nil) when none
// exists.
func (r *Repository) FindDispatchByOrderID(ctx context.Context, orderID, tenantID uuid.UUID) (*dispatchrepo.Dispatch, error) {
	query := `SELECT ` + dispatchrepo.DispatchColumns() + ` FROM dispatches WHERE order_id = $1 AND tenant_id = $2`
	dispatch, err := dispatchrepo.ScanDispatch(r.pool.QueryRow(ctx, query, orderID, tenantID))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dispatch, nil
}

// ── Conversion writes ─────────────────────────────────────────────────────────

// CreateQuote inserts the quote and moves the lead to the given state in one
// transaction.
func (r *Repository) CreateQuote(ctx context.Context, quote *quoterepo.Quote, leadState string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertQuote(ctx, tx, quote); err != nil {
			return err
		}
		return updateLeadState(ctx, tx, quote.LeadID, quote.TenantID, leadState)
	})
	return translateDuplicate(err)
}

// CreateOrder inserts the order, persists the quote (accepted, with any
// written-back overrides) and moves the lead, all in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *orderrepo.Order, quote *quoterepo.Quote, leadState string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := updateQuote(ctx, tx, quote); err != nil {
			return err
		}
		return updateLeadState(ctx, tx, order.LeadID, order.TenantID, leadState)
	})
	return translateDuplicate(err)
}

// CreateDispatch inserts the dispatch and moves the order and lead to the
// given states in one transaction.
func (r *Repository) CreateDispatch(ctx context.Context, dispatch *dispatchrepo.Dispatch, orderState, leadState string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertDispatch(ctx, tx, dispatch); err != nil {
			return err
		}
		query := `UPDATE orders SET state = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2`
		if _, err := tx.Exec(ctx, query, dispatch.OrderID, dispatch.TenantID, orderState, dispatch.UpdatedAt); err != nil {
			return fmt.Errorf("failed to update order state: %w", err)
		}
		return updateLeadState(ctx, tx, dispatch.LeadID, dispatch.TenantID, leadState)
	})
	return translateDuplicate(err)
}

// MarkQuoteAccepted re-marks an already-converted quote accepted, keeping its
// state consistent with the existing order.
func (r *Repository) MarkQuoteAccepted(ctx context.Context, quote *quoterepo.Quote) error {
	query := `UPDATE quotes SET state = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2`
	if _, err := r.pool.Exec(ctx, query, quote.ID, quote.TenantID, quote.State, quote.UpdatedAt); err != nil {
		return fmt.Errorf("failed to mark quote accepted: %w", err)
	}
	return nil
}

// ── Transaction helpers ───────────────────────────────────────────────────────

func insertQuote(ctx context.Context, tx pgx.Tx, quote *quoterepo.Quote) error {
	pickupContacts, err := quoterepo.MarshalContacts(quote.PickupContacts)
	if err != nil {
		return err
	}
	dropoffContacts, err := quoterepo.MarshalContacts(quote.DropoffContacts)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO quotes (
			id, tenant_id, lead_id, public_id,
			carrier_fee, broker_fee, total_tariff,
			pickup_address, pickup_zip, pickup_contacts, pickup_contact_name, pickup_contact_phone,
			dropoff_address, dropoff_zip, dropoff_contacts, dropoff_contact_name, dropoff_contact_phone,
			special_terms, standard_terms, state, valid_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err = tx.Exec(ctx, query,
		quote.ID, quote.TenantID, quote.LeadID, quote.PublicID,
		quote.CarrierFee, quote.BrokerFee, quote.TotalTariff,
		quote.PickupAddress, quote.PickupZip, pickupContacts,
		quote.PickupContactName, quote.PickupContactPhone,
		quote.DropoffAddress, quote.DropoffZip, dropoffContacts,
		quote.DropoffContactName, quote.DropoffContactPhone,
		quote.SpecialTerms, quote.StandardTerms, quote.State,
		quote.ValidUntil, quote.CreatedAt, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, order *orderrepo.Order) error {
	changeOrders, err := orderrepo.MarshalChangeOrders(order.ChangeOrders)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (
			id, tenant_id, quote_id, lead_id, public_id,
			contract_type, contract_sent, contract_sent_at, contract_signed,
			contract_signed_at, signature_payload, change_orders, state,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, query,
		order.ID, order.TenantID, order.QuoteID, order.LeadID, order.PublicID,
		order.ContractType, order.ContractSent, order.ContractSentAt, order.ContractSigned,
		order.ContractSignedAt, order.SignaturePayload, changeOrders, order.State,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func insertDispatch(ctx context.Context, tx pgx.Tx, dispatch *dispatchrepo.Dispatch) error {
	query := `
		INSERT INTO dispatches (
			id, tenant_id, order_id, lead_id, public_id,
			carrier_name, carrier_phone, carrier_email, driver_name, driver_phone,
			vehicle_description, scheduled_pickup_at, actual_pickup_at,
			scheduled_delivery_at, actual_delivery_at,
			carrier_fee, broker_fee, total_tariff, state, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := tx.Exec(ctx, query,
		dispatch.ID, dispatch.TenantID, dispatch.OrderID, dispatch.LeadID, dispatch.PublicID,
		dispatch.CarrierName, dispatch.CarrierPhone, dispatch.CarrierEmail,
		dispatch.DriverName, dispatch.DriverPhone,
		dispatch.VehicleDescription, dispatch.ScheduledPickupAt, dispatch.ActualPickupAt,
		dispatch.ScheduledDeliveryAt, dispatch.ActualDeliveryAt,
		dispatch.CarrierFee, dispatch.BrokerFee, dispatch.TotalTariff,
		dispatch.State, dispatch.Notes, dispatch.CreatedAt, dispatch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dispatch: %w", err)
	}
	return nil
}

func updateQuote(ctx context.Context, tx pgx.Tx, quote *quoterepo.Quote) error {
	pickupContacts, err := quoterepo.MarshalContacts(quote.PickupContacts)
	if err != nil {
		return err
	}
	dropoffContacts, err := quoterepo.MarshalContacts(quote.DropoffContacts)
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
			state = $16, updated_at = $17
		WHERE id = $1 AND tenant_id = $2`

	_, err = tx.Exec(ctx, query,
		quote.ID, quote.TenantID,
		quote.CarrierFee, quote.BrokerFee, quote.TotalTariff,
		quote.PickupAddress, quote.PickupZip, pickupContacts,
		quote.PickupContactName, quote.PickupContactPhone,
		quote.DropoffAddress, quote.DropoffZip, dropoffContacts,
		quote.DropoffContactName, quote.DropoffContactPhone,
		quote.State, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	return nil
}

func updateLeadState(ctx context.Context, tx pgx.Tx, leadID, tenantID uuid.UUID, state string) error {
	query := `UPDATE leads SET state = $3, updated_at = now() WHERE id = $1 AND tenant_id = $2`
	result, err := tx.Exec(ctx, query, leadID, tenantID, state)
	if err != nil {
		return fmt.Errorf("failed to update lead state: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("lead not found")
	}
	return nil
}

func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case "quotes_lead_id_active_key":
		return ErrDuplicateQuote
	case "orders_quote_id_key":
		return ErrDuplicateOrder
	case "dispatches_order_id_key":
		return ErrDuplicateDispatch
	}
	return err
}
