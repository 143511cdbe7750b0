package customer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"printshop-commerce/internal/db"
	"printshop-commerce/internal/domain"
)

type postgresRepo struct {
	conn   db.DBTX
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{conn: conn, logger: logger}
}

const customerColumns = `id::text, email, password_hash, first_name, last_name, role, created_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	role := c.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	const q = `
INSERT INTO customers (email, password_hash, first_name, last_name, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + customerColumns
	return r.scanCustomer(r.conn.QueryRow(ctx, q, strings.ToLower(c.Email), c.PasswordHash, c.FirstName, c.LastName, role))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanCustomer(r.conn.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id::text = $1 LIMIT 1`
	return r.scanCustomer(r.conn.QueryRow(ctx, q, id))
}

func (r *postgresRepo) scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.FirstName, &c.LastName, &c.Role, &c.CreatedAt); err != nil {
		err = db.Translate(err)
		r.logger.Debug("customer repo: scan", zap.Error(err))
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) CreateGuest(ctx context.Context, g domain.Guest) (*domain.Guest, error) {
	const q = `
INSERT INTO guest_customers (name, email, phone)
VALUES ($1, $2, $3)
RETURNING id::text, name, email, phone, created_at
`
	var out domain.Guest
	if err := r.conn.QueryRow(ctx, q, g.Name, strings.ToLower(g.Email), g.Phone).Scan(&out.ID, &out.Name, &out.Email, &out.Phone, &out.CreatedAt); err != nil {
		r.logger.Error("customer repo: create guest", zap.Error(err))
		return nil, db.Translate(err)
	}
	return &out, nil
}

func (r *postgresRepo) GetGuest(ctx context.Context, id string) (*domain.Guest, error) {
	const q = `SELECT id::text, name, email, phone, created_at FROM guest_customers WHERE id::text = $1`
	var g domain.Guest
	if err := r.conn.QueryRow(ctx, q, id).Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.CreatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &g, nil
}
