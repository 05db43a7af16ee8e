package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ProductRecord is one normalized entry of the live catalog feed.
type ProductRecord struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Stock         int              `json:"stock"`
	Category      string           `json:"category"`
	Description   string           `json:"description,omitempty"`
	Image         string           `json:"image,omitempty"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
}

// InStock reports whether the product can currently be added to a cart.
func (p ProductRecord) InStock() bool {
	return p.Stock > 0
}

type productFields struct {
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Stock         int              `json:"stock"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Image         string           `json:"image"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
}

// NormalizeSnapshot converts the feed's keyed mapping of product id to JSON
// fields into an ordered product list. Feed order is the id order of the
// keyed mapping; records with negative price or stock are rejected.
func NormalizeSnapshot(raw map[string]string) ([]ProductRecord, error) {
	if len(raw) == 0 {
		return []ProductRecord{}, nil
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	products := make([]ProductRecord, 0, len(ids))
	for _, id := range ids {
		record, err := decodeProduct(id, raw[id])
		if err != nil {
			return nil, err
		}
		products = append(products, record)
	}
	return products, nil
}

func decodeProduct(id, payload string) (ProductRecord, error) {
	var fields productFields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return ProductRecord{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	if fields.Price.IsNegative() {
		return ProductRecord{}, fmt.Errorf("product %s has negative price", id)
	}
	if fields.Stock < 0 {
		return ProductRecord{}, fmt.Errorf("product %s has negative stock", id)
	}
	return ProductRecord{
		ID:            id,
		Name:          fields.Name,
		Price:         fields.Price,
		Stock:         fields.Stock,
		Category:      fields.Category,
		Description:   fields.Description,
		Image:         fields.Image,
		OriginalPrice: fields.OriginalPrice,
	}, nil
}
