// Package pricing holds the pure pricing rules: line identity, roll geometry, standard
// prices and offer discounts. Nothing here touches storage.
package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"printshop-commerce/internal/domain"
)

// Fingerprint derives the identity key for a line configuration. Two configurations
// share a key only when every attribute matches, with absent values distinct from any
// populated value. Option maps are encoded with sorted keys so submission order does
// not matter; an empty map counts as absent.
func Fingerprint(id domain.LineIdentity) (string, error) {
	var b strings.Builder
	writeField(&b, "product", &id.ProductID)
	writeField(&b, "design", id.DesignRef)
	var unit *string
	if id.SizeUnit != nil {
		u := string(*id.SizeUnit)
		unit = &u
	}
	writeField(&b, "unit", unit)
	writeField(&b, "width", decimalString(id.Width))
	writeField(&b, "height", decimalString(id.Height))
	writeField(&b, "variant", id.VariantID)
	writeField(&b, "subvariant", id.SubvariantID)
	writeField(&b, "sku", id.VariantSKU)
	writeField(&b, "roll", id.RollID)

	options, err := canonicalOptions(id.Options)
	if err != nil {
		return "", err
	}
	writeField(&b, "options", options)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

// SameConfiguration reports whether two identities fingerprint equal.
func SameConfiguration(a, b domain.LineIdentity) (bool, error) {
	fa, err := Fingerprint(a)
	if err != nil {
		return false, err
	}
	fb, err := Fingerprint(b)
	if err != nil {
		return false, err
	}
	return fa == fb, nil
}

// writeField emits name, a presence tag and a length-prefixed value so that no
// combination of values can collide with another.
func writeField(b *strings.Builder, name string, v *string) {
	b.WriteString(name)
	if v == nil {
		b.WriteString("\x00;")
		return
	}
	b.WriteString("\x01")
	b.WriteString(strconv.Itoa(len(*v)))
	b.WriteString(":")
	b.WriteString(*v)
	b.WriteString(";")
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// canonicalOptions relies on encoding/json sorting map keys at every nesting level.
func canonicalOptions(options map[string]any) (*string, error) {
	if len(options) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, domain.NewValidationError("options", fmt.Sprintf("malformed options: %v", err))
	}
	s := string(raw)
	return &s, nil
}
