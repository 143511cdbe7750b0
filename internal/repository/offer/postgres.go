package offer

import (
	"context"

	"go.uber.org/zap"

	"printshop-commerce/internal/db"
	"printshop-commerce/internal/domain"
)

type postgresRepo struct {
	conn   db.DBTX
	logger *zap.Logger
}

func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{conn: conn, logger: logger}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Offer, error) {
	const q = `
SELECT o.id::text, o.code, o.type, o.value, o.min_purchase, o.status, o.starts_at, o.ends_at,
       o.per_customer_limit, o.created_at,
       COALESCE(ARRAY(SELECT op.product_id::text FROM offer_products op WHERE op.offer_id = o.id ORDER BY op.product_id), '{}')
FROM offers o
WHERE o.code = $1
`
	var o domain.Offer
	var typ, status string
	err := r.conn.QueryRow(ctx, q, domain.NormalizeOfferCode(code)).Scan(
		&o.ID, &o.Code, &typ, &o.Value, &o.MinPurchase, &status, &o.StartsAt, &o.EndsAt,
		&o.PerCustomerLimit, &o.CreatedAt, &o.ProductIDs,
	)
	if err != nil {
		return nil, db.Translate(err)
	}
	o.Type = domain.OfferType(typ)
	o.Status = domain.OfferStatus(status)
	return &o, nil
}

func (r *postgresRepo) LockUsage(ctx context.Context, offerID, identity string) (*domain.OfferUsage, error) {
	const insert = `
INSERT INTO offer_usages (offer_id, identity, times_used)
VALUES ($1::uuid, $2, 0)
ON CONFLICT DO NOTHING
`
	if _, err := r.conn.Exec(ctx, insert, offerID, identity); err != nil {
		return nil, db.Translate(err)
	}
	const q = `
SELECT offer_id::text, identity, times_used, updated_at
FROM offer_usages
WHERE offer_id = $1::uuid AND identity = $2
FOR UPDATE
`
	var u domain.OfferUsage
	if err := r.conn.QueryRow(ctx, q, offerID, identity).Scan(&u.OfferID, &u.Identity, &u.TimesUsed, &u.UpdatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &u, nil
}

func (r *postgresRepo) IncrementUsage(ctx context.Context, offerID, identity string) (*domain.OfferUsage, error) {
	const q = `
INSERT INTO offer_usages (offer_id, identity, times_used)
VALUES ($1::uuid, $2, 1)
ON CONFLICT (offer_id, identity) DO UPDATE
SET times_used = offer_usages.times_used + 1, updated_at = now()
RETURNING offer_id::text, identity, times_used, updated_at
`
	var u domain.OfferUsage
	if err := r.conn.QueryRow(ctx, q, offerID, identity).Scan(&u.OfferID, &u.Identity, &u.TimesUsed, &u.UpdatedAt); err != nil {
		r.logger.Error("offer repo: increment usage", zap.String("offer_id", offerID), zap.Error(err))
		return nil, db.Translate(err)
	}
	return &u, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, o domain.Offer) (*domain.Offer, error) {
	const q = `
INSERT INTO offers (code, type, value, min_purchase, status, starts_at, ends_at, per_customer_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (code) DO UPDATE SET
    type = EXCLUDED.type,
    value = EXCLUDED.value,
    min_purchase = EXCLUDED.min_purchase,
    status = EXCLUDED.status,
    starts_at = EXCLUDED.starts_at,
    ends_at = EXCLUDED.ends_at,
    per_customer_limit = EXCLUDED.per_customer_limit
RETURNING id::text
`
	status := o.Status
	if status == "" {
		status = domain.OfferActive
	}
	code := domain.NormalizeOfferCode(o.Code)
	var id string
	if err := r.conn.QueryRow(ctx, q, code, string(o.Type), o.Value, o.MinPurchase, string(status),
		o.StartsAt, o.EndsAt, o.PerCustomerLimit).Scan(&id); err != nil {
		return nil, db.Translate(err)
	}
	if _, err := r.conn.Exec(ctx, `DELETE FROM offer_products WHERE offer_id = $1::uuid`, id); err != nil {
		return nil, db.Translate(err)
	}
	for _, productID := range o.ProductIDs {
		if _, err := r.conn.Exec(ctx, `INSERT INTO offer_products (offer_id, product_id) VALUES ($1::uuid, $2::uuid)`, id, productID); err != nil {
			return nil, db.Translate(err)
		}
	}
	return r.GetByCode(ctx, code)
}
