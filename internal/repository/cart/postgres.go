package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printshop-commerce/internal/db"
	"printshop-commerce/internal/domain"
)

type postgresRepo struct {
	conn   db.DBTX
	logger *zap.Logger
}

// NewPostgres returns a Repository. conn should be a transaction so row locks are held
// across load and save.
func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{conn: conn, logger: logger}
}

const cartColumns = `id::text, user_id::text, session_token, currency, status, shipping_address, billing_address, created_at, updated_at`

func (r *postgresRepo) GetOpen(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	if owner.IsZero() {
		return nil, domain.ErrNotFound
	}
	var q string
	var arg string
	if userID, ok := owner.UserID(); ok {
		q = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1::uuid AND status = 'open' FOR UPDATE`
		arg = userID
	} else {
		token, _ := owner.SessionToken()
		q = `SELECT ` + cartColumns + ` FROM carts WHERE session_token = $1 AND status = 'open' FOR UPDATE`
		arg = token
	}
	return r.fetchCart(ctx, q, arg)
}

func (r *postgresRepo) GetOrCreateOpen(ctx context.Context, owner domain.CartOwner, currency string) (*domain.Cart, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("%w: cart owner required", domain.ErrConflict)
	}
	userID, sessionToken := ownerColumns(owner)
	const insert = `
INSERT INTO carts (id, user_id, session_token, currency, status)
VALUES ($1, $2::uuid, $3, $4, 'open')
ON CONFLICT DO NOTHING
`
	tag, err := r.conn.Exec(ctx, insert, uuid.NewString(), userID, sessionToken, currency)
	if err != nil {
		r.logger.Error("cart repo: create", zap.Stringer("owner", owner), zap.Error(err))
		return nil, db.Translate(err)
	}
	if tag.RowsAffected() == 1 {
		r.logger.Debug("cart repo: created open cart", zap.Stringer("owner", owner))
	}
	return r.GetOpen(ctx, owner)
}

func (r *postgresRepo) LineCartID(ctx context.Context, lineID string) (string, error) {
	var cartID string
	if err := r.conn.QueryRow(ctx, `SELECT cart_id::text FROM cart_lines WHERE id::text = $1`, lineID).Scan(&cartID); err != nil {
		return "", db.Translate(err)
	}
	return cartID, nil
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	userID, sessionToken := ownerColumns(cart.Owner)
	shipping, err := db.JSONB(cart.ShippingAddress)
	if err != nil {
		return err
	}
	billing, err := db.JSONB(cart.BillingAddress)
	if err != nil {
		return err
	}
	totals := cart.Totals()

	const updateCart = `
UPDATE carts
SET user_id = $2::uuid,
    session_token = $3,
    currency = $4,
    status = $5,
    shipping_address = $6,
    billing_address = $7,
    subtotal = $8,
    discount_total = $9,
    shipping_total = $10,
    tax_total = $11,
    grand_total = $12,
    updated_at = now()
WHERE id = $1::uuid
`
	tag, err := r.conn.Exec(ctx, updateCart, cart.ID, userID, sessionToken, cart.Currency, string(cart.Status),
		shipping, billing, totals.Subtotal, totals.Discount, totals.Shipping, totals.Tax, totals.GrandTotal)
	if err != nil {
		r.logger.Error("cart repo: save cart", zap.String("cart_id", cart.ID), zap.Error(err))
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	lineIDs := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lineIDs = append(lineIDs, l.ID)
	}
	if _, err := r.conn.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1::uuid AND NOT (id::text = ANY($2))`, cart.ID, lineIDs); err != nil {
		return db.Translate(err)
	}

	adjIDs := make([]string, 0, len(cart.Adjustments))
	for _, a := range cart.Adjustments {
		adjIDs = append(adjIDs, a.ID)
	}
	if _, err := r.conn.Exec(ctx, `DELETE FROM cart_adjustments WHERE cart_id = $1::uuid AND NOT (id::text = ANY($2))`, cart.ID, adjIDs); err != nil {
		return db.Translate(err)
	}

	for i := range cart.Lines {
		if err := r.upsertLine(ctx, cart.ID, &cart.Lines[i]); err != nil {
			return err
		}
	}
	for i := range cart.Adjustments {
		if err := r.upsertAdjustment(ctx, cart.ID, &cart.Adjustments[i]); err != nil {
			return err
		}
	}
	r.logger.Debug("cart repo: saved",
		zap.String("cart_id", cart.ID),
		zap.Int("lines", len(cart.Lines)),
		zap.Int("adjustments", len(cart.Adjustments)),
	)
	return nil
}

func (r *postgresRepo) upsertLine(ctx context.Context, cartID string, l *domain.CartLine) error {
	options, err := db.JSONB(l.Options)
	if err != nil {
		return domain.NewValidationError("options", err.Error())
	}
	rollPricing, err := db.JSONB(l.Roll)
	if err != nil {
		return err
	}
	var unit *string
	if l.SizeUnit != nil {
		u := string(*l.SizeUnit)
		unit = &u
	}
	const q = `
INSERT INTO cart_lines (
    id, cart_id, product_id, variant_id, subvariant_id, variant_sku, design_ref, roll_id,
    width, height, size_unit, options, quantity, unit_price, line_total, price_override,
    roll_pricing, fingerprint
) VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $8::uuid, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (id) DO UPDATE SET
    cart_id = EXCLUDED.cart_id,
    quantity = EXCLUDED.quantity,
    unit_price = EXCLUDED.unit_price,
    line_total = EXCLUDED.line_total,
    price_override = EXCLUDED.price_override,
    roll_pricing = EXCLUDED.roll_pricing,
    updated_at = now()
RETURNING created_at, updated_at
`
	err = r.conn.QueryRow(ctx, q,
		l.ID, cartID, l.ProductID, l.VariantID, l.SubvariantID, l.VariantSKU, l.DesignRef, l.RollID,
		l.Width, l.Height, unit, options, l.Quantity, l.UnitPrice, l.LineTotal, l.PriceOverride,
		rollPricing, l.Fingerprint,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		r.logger.Error("cart repo: upsert line", zap.String("line_id", l.ID), zap.Error(err))
		return db.Translate(err)
	}
	l.CartID = cartID
	return nil
}

func (r *postgresRepo) upsertAdjustment(ctx context.Context, cartID string, a *domain.Adjustment) error {
	metadata, err := db.JSONB(a.Metadata)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO cart_adjustments (id, cart_id, kind, amount, code, metadata)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    cart_id = EXCLUDED.cart_id,
    amount = EXCLUDED.amount,
    metadata = EXCLUDED.metadata
RETURNING created_at
`
	if err := r.conn.QueryRow(ctx, q, a.ID, cartID, string(a.Kind), a.Amount, a.Code, metadata).Scan(&a.CreatedAt); err != nil {
		r.logger.Error("cart repo: upsert adjustment", zap.String("adjustment_id", a.ID), zap.Error(err))
		return db.Translate(err)
	}
	a.CartID = cartID
	return nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, q string, args ...any) (*domain.Cart, error) {
	var cart domain.Cart
	var userID, sessionToken *string
	var status string
	var shipping, billing []byte
	err := r.conn.QueryRow(ctx, q, args...).Scan(
		&cart.ID,
		&userID,
		&sessionToken,
		&cart.Currency,
		&status,
		&shipping,
		&billing,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		return nil, db.Translate(err)
	}
	cart.Status = domain.CartStatus(status)
	switch {
	case userID != nil:
		cart.Owner = domain.UserOwner(*userID)
	case sessionToken != nil:
		cart.Owner = domain.AnonymousOwner(*sessionToken)
	default:
		return nil, fmt.Errorf("%w: cart %s has no owner", domain.ErrIntegrity, cart.ID)
	}
	if len(shipping) > 0 {
		cart.ShippingAddress = &domain.Address{}
		if err := db.DecodeJSONB(shipping, cart.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if len(billing) > 0 {
		cart.BillingAddress = &domain.Address{}
		if err := db.DecodeJSONB(billing, cart.BillingAddress); err != nil {
			return nil, err
		}
	}

	if cart.Lines, err = r.fetchLines(ctx, cart.ID); err != nil {
		return nil, err
	}
	if cart.Adjustments, err = r.fetchAdjustments(ctx, cart.ID); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) fetchLines(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	const q = `
SELECT id::text, cart_id::text, product_id::text, variant_id, subvariant_id, variant_sku, design_ref,
       roll_id::text, width, height, size_unit, options, quantity, unit_price, line_total,
       price_override, roll_pricing, fingerprint, created_at, updated_at
FROM cart_lines
WHERE cart_id = $1::uuid
ORDER BY created_at, id
`
	rows, err := r.conn.Query(ctx, q, cartID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		var unit *string
		var options, rollPricing []byte
		if err := rows.Scan(
			&l.ID, &l.CartID, &l.ProductID, &l.VariantID, &l.SubvariantID, &l.VariantSKU, &l.DesignRef,
			&l.RollID, &l.Width, &l.Height, &unit, &options, &l.Quantity, &l.UnitPrice, &l.LineTotal,
			&l.PriceOverride, &rollPricing, &l.Fingerprint, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if unit != nil {
			u := domain.SizeUnit(*unit)
			l.SizeUnit = &u
		}
		if err := db.DecodeJSONB(options, &l.Options); err != nil {
			return nil, err
		}
		if len(rollPricing) > 0 {
			l.Roll = &domain.RollBreakdown{}
			if err := db.DecodeJSONB(rollPricing, l.Roll); err != nil {
				return nil, err
			}
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate(err)
	}
	return lines, nil
}

func (r *postgresRepo) fetchAdjustments(ctx context.Context, cartID string) ([]domain.Adjustment, error) {
	const q = `
SELECT id::text, cart_id::text, kind, amount, code, metadata, created_at
FROM cart_adjustments
WHERE cart_id = $1::uuid
ORDER BY created_at, id
`
	rows, err := r.conn.Query(ctx, q, cartID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var out []domain.Adjustment
	for rows.Next() {
		var a domain.Adjustment
		var kind string
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.CartID, &kind, &a.Amount, &a.Code, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.AdjustmentKind(kind)
		if err := db.DecodeJSONB(metadata, &a.Metadata); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate(err)
	}
	return out, nil
}

func ownerColumns(owner domain.CartOwner) (userID, sessionToken *string) {
	if id, ok := owner.UserID(); ok {
		return &id, nil
	}
	if token, ok := owner.SessionToken(); ok {
		return nil, &token
	}
	return nil, nil
}
