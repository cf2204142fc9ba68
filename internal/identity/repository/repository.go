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

// Tenant is a customer brokerage. Deleting a tenant cascades to its leads,
// quotes, orders and dispatches at the database level.
type Tenant struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	ContactEmail string    `db:"contact_email"`
	ContactPhone string    `db:"contact_phone"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Agent is a user working leads under a tenant.
type Agent struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	tenantNotFoundMsg = "tenant not found"
	agentNotFoundMsg  = "agent not found"
)

// ── Repository ────────────────────────────────────────────────────────────────

// Repository provides database operations for tenants and agents.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new identity repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTenant retrieves a tenant by ID.
func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `SELECT id, name, contact_email, contact_phone, created_at, updated_at
		FROM tenants WHERE id = $1`

	var t Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.ContactEmail, &t.ContactPhone, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(tenantNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return &t, nil
}

// UpdateTenant persists the tenant's profile fields.
func (r *Repository) UpdateTenant(ctx context.Context, tenant *Tenant) error {
	query := `UPDATE tenants SET name = $2, contact_email = $3, contact_phone = $4, updated_at = $5
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		tenant.ID, tenant.Name, tenant.ContactEmail, tenant.ContactPhone, tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(tenantNotFoundMsg)
	}
	return nil
}

// DeleteTenant removes a tenant. All of its leads, quotes, orders and
// dispatches cascade.
func (r *Repository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(tenantNotFoundMsg)
	}
	return nil
}

// InsertAgent persists a new agent.
func (r *Repository) InsertAgent(ctx context.Context, agent *Agent) error {
	query := `
		INSERT INTO agents (id, tenant_id, name, email, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		agent.ID, agent.TenantID, agent.Name, agent.Email, agent.Phone, agent.Role,
		agent.CreatedAt, agent.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("agent email already in use")
		}
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID scoped to tenant.
func (r *Repository) GetAgent(ctx context.Context, id, tenantID uuid.UUID) (*Agent, error) {
	query := `SELECT id, tenant_id, name, email, phone, role, created_at, updated_at
		FROM agents WHERE id = $1 AND tenant_id = $2`

	var a Agent
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&a.ID, &a.TenantID, &a.Name, &a.Email, &a.Phone, &a.Role, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(agentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}
	return &a, nil
}

// UpdateAgent persists the agent's mutable fields.
func (r *Repository) UpdateAgent(ctx context.Context, agent *Agent) error {
	query := `UPDATE agents SET name = $3, email = $4, phone = $5, role = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2`

	result, err := r.pool.Exec(ctx, query,
		agent.ID, agent.TenantID, agent.Name, agent.Email, agent.Phone, agent.Role, agent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMsg)
	}
	return nil
}

// DeleteAgent removes an agent. Leads assigned to the agent keep a null
// assignee (FK ON DELETE SET NULL).
func (r *Repository) DeleteAgent(ctx context.Context, id, tenantID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM agents WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMsg)
	}
	return nil
}

// ListAgents returns all agents of a tenant ordered by name.
func (r *Repository) ListAgents(ctx context.Context, tenantID uuid.UUID) ([]Agent, error) {
	query := `SELECT id, tenant_id, name, email, phone, role, created_at, updated_at
		FROM agents WHERE tenant_id = $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.Email, &a.Phone, &a.Role,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agents: %w", err)
	}
	return agents, nil
}

// AgentRefs loads the minimal agent identity the financial rollup needs.
func (r *Repository) AgentRefs(ctx context.Context, tenantID uuid.UUID) ([]finance.AgentRef, error) {
	query := `SELECT id, name FROM agents WHERE tenant_id = $1`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent refs: %w", err)
	}
	defer rows.Close()

	var refs []finance.AgentRef
	for rows.Next() {
		var ref finance.AgentRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("failed to scan agent ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate agent refs: %w", err)
	}
	return refs, nil
}
