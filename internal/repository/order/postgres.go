package order

import (
	"context"
	"fmt"
	"time"

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

func (r *postgresRepo) NextSequence(ctx context.Context, prefix string, day time.Time, start int, lockTimeout time.Duration) (int, error) {
	if lockTimeout > 0 {
		ms := fmt.Sprintf("%dms", lockTimeout.Milliseconds())
		if _, err := r.conn.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, ms); err != nil {
			return 0, db.Translate(err)
		}
	}
	const q = `
INSERT INTO document_sequences (prefix, day, last_value)
VALUES ($1, $2::date, $3)
ON CONFLICT (prefix, day) DO UPDATE
SET last_value = document_sequences.last_value + 1
RETURNING last_value
`
	var seq int
	if err := r.conn.QueryRow(ctx, q, prefix, day.Format("2006-01-02"), start).Scan(&seq); err != nil {
		r.logger.Warn("order repo: allocate sequence", zap.String("prefix", prefix), zap.Error(err))
		return 0, db.Translate(err)
	}
	return seq, nil
}

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	userID, guestID := o.Customer.Columns()
	taxLines, err := db.JSONB(o.Totals.Taxes)
	if err != nil {
		return err
	}
	shipping, err := db.JSONB(o.ShippingAddress)
	if err != nil {
		return err
	}
	billing, err := db.JSONB(o.BillingAddress)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO orders (
    id, kind, document_number, user_id, guest_id, source_cart_id, status, currency,
    subtotal, discount_total, shipping_total, tax_total, grand_total, tax_lines,
    shipping_address, billing_address, notes, created_by
) VALUES ($1::uuid, $2, $3, $4::uuid, $5::uuid, $6::uuid, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18::uuid)
RETURNING created_at, updated_at
`
	t := o.Totals
	err = r.conn.QueryRow(ctx, q,
		o.ID, string(o.Kind), o.DocumentNumber, userID, guestID, o.SourceCartID, string(o.Status), o.Currency,
		t.Subtotal, t.Discount, t.Shipping, t.Tax, t.GrandTotal, taxLines,
		shipping, billing, o.Notes, o.CreatedBy,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		r.logger.Error("order repo: create", zap.String("document_number", o.DocumentNumber), zap.Error(err))
		return db.Translate(err)
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		l.OrderID = o.ID
		if err := r.insertLine(ctx, l); err != nil {
			return err
		}
	}
	for i := range o.Adjustments {
		a := &o.Adjustments[i]
		a.OrderID = o.ID
		metadata, err := db.JSONB(a.Metadata)
		if err != nil {
			return err
		}
		if _, err := r.conn.Exec(ctx, `
INSERT INTO order_adjustments (id, order_id, kind, amount, code, metadata)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
`, a.ID, o.ID, string(a.Kind), a.Amount, a.Code, metadata); err != nil {
			return db.Translate(err)
		}
	}
	return nil
}

func (r *postgresRepo) insertLine(ctx context.Context, l *domain.OrderLine) error {
	options, err := db.JSONB(l.Options)
	if err != nil {
		return err
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
INSERT INTO order_lines (
    id, order_id, position, product_id, product_name, sku, variant_id, subvariant_id, variant_sku,
    design_ref, roll_id, width, height, size_unit, options, quantity, unit_price, line_total,
    price_override, roll_pricing
) VALUES ($1::uuid, $2::uuid, $3, $4::uuid, $5, $6, $7, $8, $9, $10, $11::uuid, $12, $13, $14, $15, $16, $17, $18, $19, $20)
`
	_, err = r.conn.Exec(ctx, q,
		l.ID, l.OrderID, l.Position, l.ProductID, l.ProductName, l.SKU, l.VariantID, l.SubvariantID, l.VariantSKU,
		l.DesignRef, l.RollID, l.Width, l.Height, unit, options, l.Quantity, l.UnitPrice, l.LineTotal,
		l.PriceOverride, rollPricing,
	)
	return db.Translate(err)
}

const orderColumns = `
id::text, kind, document_number, user_id::text, guest_id::text, source_cart_id::text, status, currency,
subtotal, discount_total, shipping_total, tax_total, grand_total, tax_lines,
shipping_address, billing_address, notes, created_by::text, created_at, updated_at`

func (r *postgresRepo) scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	var kind, status string
	var userID, guestID *string
	var taxLines, shipping, billing []byte
	err := row.Scan(
		&o.ID, &kind, &o.DocumentNumber, &userID, &guestID, &o.SourceCartID, &status, &o.Currency,
		&o.Totals.Subtotal, &o.Totals.Discount, &o.Totals.Shipping, &o.Totals.Tax, &o.Totals.GrandTotal, &taxLines,
		&shipping, &billing, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, db.Translate(err)
	}
	o.Kind = domain.DocumentKind(kind)
	o.Status = domain.DocumentStatus(status)
	if o.Customer, err = domain.CustomerRefFromColumns(userID, guestID); err != nil {
		return nil, err
	}
	if err := db.DecodeJSONB(taxLines, &o.Totals.Taxes); err != nil {
		return nil, err
	}
	if len(shipping) > 0 {
		o.ShippingAddress = &domain.Address{}
		if err := db.DecodeJSONB(shipping, o.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if len(billing) > 0 {
		o.BillingAddress = &domain.Address{}
		if err := db.DecodeJSONB(billing, o.BillingAddress); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.scanOrder(r.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1 FOR UPDATE`, id))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.scanOrder(r.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1`, id))
	if err != nil {
		return nil, err
	}
	if o.Lines, err = r.fetchLines(ctx, o.ID); err != nil {
		return nil, err
	}
	if o.Adjustments, err = r.fetchAdjustments(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) fetchLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	const q = `
SELECT id::text, order_id::text, position, product_id::text, product_name, sku, variant_id, subvariant_id,
       variant_sku, design_ref, roll_id::text, width, height, size_unit, options, quantity, unit_price,
       line_total, price_override, roll_pricing
FROM order_lines
WHERE order_id = $1::uuid
ORDER BY position
`
	rows, err := r.conn.Query(ctx, q, orderID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		var unit *string
		var options, rollPricing []byte
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.Position, &l.ProductID, &l.ProductName, &l.SKU, &l.VariantID, &l.SubvariantID,
			&l.VariantSKU, &l.DesignRef, &l.RollID, &l.Width, &l.Height, &unit, &options, &l.Quantity, &l.UnitPrice,
			&l.LineTotal, &l.PriceOverride, &rollPricing,
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
	return lines, db.Translate(rows.Err())
}

func (r *postgresRepo) fetchAdjustments(ctx context.Context, orderID string) ([]domain.OrderAdjustment, error) {
	rows, err := r.conn.Query(ctx, `
SELECT id::text, order_id::text, kind, amount, code, metadata
FROM order_adjustments
WHERE order_id = $1::uuid
ORDER BY kind DESC, code
`, orderID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var out []domain.OrderAdjustment
	for rows.Next() {
		var a domain.OrderAdjustment
		var kind string
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.OrderID, &kind, &a.Amount, &a.Code, &metadata); err != nil {
			return nil, err
		}
		a.Kind = domain.AdjustmentKind(kind)
		if err := db.DecodeJSONB(metadata, &a.Metadata); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, db.Translate(rows.Err())
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	tag, err := r.conn.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id::text = $1`, id, string(status))
	if err != nil {
		return db.Translate(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AddEvent(ctx context.Context, ev domain.OrderEvent) error {
	const q = `
INSERT INTO order_events (id, order_id, actor, from_status, to_status, reason, created_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)
`
	_, err := r.conn.Exec(ctx, q, ev.ID, ev.OrderID, ev.Actor, string(ev.FromStatus), string(ev.ToStatus), ev.Reason, ev.CreatedAt)
	return db.Translate(err)
}

func (r *postgresRepo) ListEvents(ctx context.Context, orderID string) ([]domain.OrderEvent, error) {
	rows, err := r.conn.Query(ctx, `
SELECT id::text, order_id::text, actor, from_status, to_status, reason, created_at
FROM order_events
WHERE order_id::text = $1
ORDER BY created_at, id
`, orderID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var out []domain.OrderEvent
	for rows.Next() {
		var ev domain.OrderEvent
		var from, to string
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.Actor, &from, &to, &ev.Reason, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.FromStatus = domain.DocumentStatus(from)
		ev.ToStatus = domain.DocumentStatus(to)
		out = append(out, ev)
	}
	return out, db.Translate(rows.Err())
}
