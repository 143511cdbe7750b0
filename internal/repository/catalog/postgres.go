package catalog

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

// NewPostgres returns a Repository over a pool or an open transaction.
func NewPostgres(conn db.DBTX, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{conn: conn, logger: logger}
}

const productColumns = `
p.id::text, p.sku, p.name, p.pricing_method, p.price, p.price_per_sqft, p.unit_of_measure, p.active,
COALESCE(ARRAY(SELECT pr.roll_id::text FROM product_rolls pr WHERE pr.product_id = p.id ORDER BY pr.roll_id), '{}'),
p.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var p domain.Product
	var method string
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &method, &p.Price, &p.PricePerSqFt, &p.UnitOfMeasure, &p.Active, &p.RollIDs, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.PricingMethod = domain.PricingMethod(method)
	return &p, nil
}

func (r *postgresRepo) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE ($1 = FALSE OR p.active) ORDER BY p.name, p.id`
	rows, err := r.conn.Query(ctx, q, activeOnly)
	if err != nil {
		r.logger.Error("catalog repo: list products", zap.Error(err))
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Translate(err)
	}
	r.logger.Debug("catalog repo: list products", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products p WHERE p.id::text = $1`
	p, err := scanProduct(r.conn.QueryRow(ctx, q, id))
	if err != nil {
		return nil, db.Translate(err)
	}
	return p, nil
}

func (r *postgresRepo) GetRoll(ctx context.Context, id string) (*domain.Roll, error) {
	const q = `
SELECT id::text, name, width_in, offcut_price, created_at
FROM rolls
WHERE id::text = $1
`
	var roll domain.Roll
	if err := r.conn.QueryRow(ctx, q, id).Scan(&roll.ID, &roll.Name, &roll.WidthIn, &roll.OffcutPrice, &roll.CreatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &roll, nil
}

func (r *postgresRepo) ListRollsForProduct(ctx context.Context, productID string) ([]domain.Roll, error) {
	const q = `
SELECT r.id::text, r.name, r.width_in, r.offcut_price, r.created_at
FROM rolls r
JOIN product_rolls pr ON pr.roll_id = r.id
WHERE pr.product_id::text = $1
ORDER BY r.width_in, r.name
`
	rows, err := r.conn.Query(ctx, q, productID)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var result []domain.Roll
	for rows.Next() {
		var roll domain.Roll
		if err := rows.Scan(&roll.ID, &roll.Name, &roll.WidthIn, &roll.OffcutPrice, &roll.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, roll)
	}
	return result, db.Translate(rows.Err())
}

func (r *postgresRepo) ActiveTaxRates(ctx context.Context) ([]domain.TaxRate, error) {
	const q = `SELECT id::text, name, rate, active FROM tax_rates WHERE active ORDER BY name`
	rows, err := r.conn.Query(ctx, q)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var result []domain.TaxRate
	for rows.Next() {
		var t domain.TaxRate
		if err := rows.Scan(&t.ID, &t.Name, &t.Rate, &t.Active); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, db.Translate(rows.Err())
}

func (r *postgresRepo) GetShippingMethod(ctx context.Context, code string) (*domain.ShippingMethod, error) {
	const q = `SELECT code, name, amount, active FROM shipping_methods WHERE code = $1`
	var m domain.ShippingMethod
	if err := r.conn.QueryRow(ctx, q, code).Scan(&m.Code, &m.Name, &m.Amount, &m.Active); err != nil {
		return nil, db.Translate(err)
	}
	return &m, nil
}

func (r *postgresRepo) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	const q = `SELECT code, name, amount, active FROM shipping_methods WHERE active ORDER BY amount, code`
	rows, err := r.conn.Query(ctx, q)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var result []domain.ShippingMethod
	for rows.Next() {
		var m domain.ShippingMethod
		if err := rows.Scan(&m.Code, &m.Name, &m.Amount, &m.Active); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, db.Translate(rows.Err())
}

func (r *postgresRepo) UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (sku, name, pricing_method, price, price_per_sqft, unit_of_measure, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    pricing_method = EXCLUDED.pricing_method,
    price = EXCLUDED.price,
    price_per_sqft = EXCLUDED.price_per_sqft,
    unit_of_measure = EXCLUDED.unit_of_measure,
    active = EXCLUDED.active
RETURNING id::text
`
	method := p.PricingMethod
	if method == "" {
		method = domain.PricingStandard
	}
	var id string
	if err := r.conn.QueryRow(ctx, q, p.SKU, p.Name, string(method), p.Price, p.PricePerSqFt, p.UnitOfMeasure, p.Active).Scan(&id); err != nil {
		r.logger.Error("catalog repo: upsert product", zap.String("sku", p.SKU), zap.Error(err))
		return nil, db.Translate(err)
	}
	return r.GetProduct(ctx, id)
}

func (r *postgresRepo) UpsertRoll(ctx context.Context, roll domain.Roll) (*domain.Roll, error) {
	const q = `
INSERT INTO rolls (name, width_in, offcut_price)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET
    width_in = EXCLUDED.width_in,
    offcut_price = EXCLUDED.offcut_price
RETURNING id::text, name, width_in, offcut_price, created_at
`
	var out domain.Roll
	if err := r.conn.QueryRow(ctx, q, roll.Name, roll.WidthIn, roll.OffcutPrice).Scan(&out.ID, &out.Name, &out.WidthIn, &out.OffcutPrice, &out.CreatedAt); err != nil {
		return nil, db.Translate(err)
	}
	return &out, nil
}

func (r *postgresRepo) AssignRoll(ctx context.Context, productID, rollID string) error {
	const q = `
INSERT INTO product_rolls (product_id, roll_id)
VALUES ($1::uuid, $2::uuid)
ON CONFLICT DO NOTHING
`
	_, err := r.conn.Exec(ctx, q, productID, rollID)
	return db.Translate(err)
}

func (r *postgresRepo) UpsertTaxRate(ctx context.Context, rate domain.TaxRate) error {
	const q = `
INSERT INTO tax_rates (name, rate, active)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET rate = EXCLUDED.rate, active = EXCLUDED.active
`
	_, err := r.conn.Exec(ctx, q, rate.Name, rate.Rate, rate.Active)
	return db.Translate(err)
}

func (r *postgresRepo) UpsertShippingMethod(ctx context.Context, m domain.ShippingMethod) error {
	const q = `
INSERT INTO shipping_methods (code, name, amount, active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, amount = EXCLUDED.amount, active = EXCLUDED.active
`
	_, err := r.conn.Exec(ctx, q, m.Code, m.Name, m.Amount, m.Active)
	return db.Translate(err)
}
