package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

// CatalogWriter is the slice of the catalog repository the importer needs.
type CatalogWriter interface {
	UpsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpsertRoll(ctx context.Context, r domain.Roll) (*domain.Roll, error)
	AssignRoll(ctx context.Context, productID, rollID string) error
}

// Summary counts what a run wrote.
type Summary struct {
	Products    int
	Rolls       int
	Assignments int
}

// CSVImporter reads a catalog export. Each row has a kind column: "roll" rows carry
// name, width_in and offcut_price; "product" rows carry sku, name, pricing_method,
// price, price_per_sqft, unit, active and a semicolon separated list of roll names.
// Rolls are written first so products can reference rolls defined anywhere in the file.
type CSVImporter struct {
	reader *csv.Reader
}

func NewCSVImporter(r io.Reader) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr}
}

type productRow struct {
	line    int
	product domain.Product
	rolls   []string
}

// Run parses the whole file before writing anything, so a malformed row aborts the
// import without partial writes reaching w.
func (i *CSVImporter) Run(ctx context.Context, w CatalogWriter) (Summary, error) {
	var sum Summary
	headers, err := i.reader.Read()
	if err != nil {
		return sum, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["kind"]; !ok {
		return sum, errors.New("missing kind column")
	}

	var (
		rolls    []domain.Roll
		products []productRow
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return sum, fmt.Errorf("read row %d: %w", line, err)
		}
		switch kind := strings.ToLower(pick(record, index, "kind")); kind {
		case "":
			continue
		case "roll":
			roll, err := parseRoll(record, index)
			if err != nil {
				return sum, fmt.Errorf("row %d: %w", line, err)
			}
			rolls = append(rolls, roll)
		case "product":
			row, err := parseProduct(record, index)
			if err != nil {
				return sum, fmt.Errorf("row %d: %w", line, err)
			}
			row.line = line
			products = append(products, row)
		default:
			return sum, fmt.Errorf("row %d: unknown kind %q", line, kind)
		}
	}

	rollIDs := make(map[string]string, len(rolls))
	for _, r := range rolls {
		saved, err := w.UpsertRoll(ctx, r)
		if err != nil {
			return sum, fmt.Errorf("upsert roll %q: %w", r.Name, err)
		}
		rollIDs[saved.Name] = saved.ID
		sum.Rolls++
	}
	for _, row := range products {
		saved, err := w.UpsertProduct(ctx, row.product)
		if err != nil {
			return sum, fmt.Errorf("upsert product %q: %w", row.product.SKU, err)
		}
		sum.Products++
		for _, name := range row.rolls {
			id, ok := rollIDs[name]
			if !ok {
				return sum, fmt.Errorf("row %d: product %q references unknown roll %q", row.line, row.product.SKU, name)
			}
			if err := w.AssignRoll(ctx, saved.ID, id); err != nil {
				return sum, fmt.Errorf("assign roll %q to %q: %w", name, row.product.SKU, err)
			}
			sum.Assignments++
		}
	}
	return sum, nil
}

func parseRoll(record []string, index map[string]int) (domain.Roll, error) {
	name := pick(record, index, "name")
	if name == "" {
		return domain.Roll{}, errors.New("roll without name")
	}
	width, err := decimalField(record, index, "width_in")
	if err != nil {
		return domain.Roll{}, err
	}
	if !width.IsPositive() {
		return domain.Roll{}, fmt.Errorf("roll %q: width_in must be positive", name)
	}
	offcut, err := decimalField(record, index, "offcut_price")
	if err != nil {
		return domain.Roll{}, err
	}
	return domain.Roll{Name: name, WidthIn: width, OffcutPrice: offcut}, nil
}

func parseProduct(record []string, index map[string]int) (productRow, error) {
	p := domain.Product{
		SKU:           pick(record, index, "sku"),
		Name:          pick(record, index, "name"),
		PricingMethod: domain.PricingMethod(strings.ToLower(pick(record, index, "pricing_method"))),
		UnitOfMeasure: pick(record, index, "unit"),
		Active:        true,
	}
	if p.SKU == "" || p.Name == "" {
		return productRow{}, errors.New("product needs sku and name")
	}
	if p.PricingMethod == "" {
		p.PricingMethod = domain.PricingStandard
	}
	if !p.PricingMethod.Valid() {
		return productRow{}, fmt.Errorf("product %q: unknown pricing_method %q", p.SKU, p.PricingMethod)
	}
	var err error
	if p.Price, err = decimalField(record, index, "price"); err != nil {
		return productRow{}, err
	}
	if p.PricePerSqFt, err = decimalField(record, index, "price_per_sqft"); err != nil {
		return productRow{}, err
	}
	if p.PricingMethod == domain.PricingRoll && !p.PricePerSqFt.IsPositive() {
		return productRow{}, fmt.Errorf("product %q: roll pricing needs price_per_sqft", p.SKU)
	}
	if v := pick(record, index, "active"); v != "" {
		if p.Active, err = strconv.ParseBool(v); err != nil {
			return productRow{}, fmt.Errorf("product %q: active: %w", p.SKU, err)
		}
	}
	row := productRow{product: p}
	for _, name := range strings.Split(pick(record, index, "rolls"), ";") {
		if name = strings.TrimSpace(name); name != "" {
			row.rolls = append(row.rolls, name)
		}
	}
	return row, nil
}

func decimalField(record []string, index map[string]int, key string) (decimal.Decimal, error) {
	v := pick(record, index, key)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
