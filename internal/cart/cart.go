package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/amnamine/AccessoiresHF/internal/catalog"
)

// SessionKey is the well-known session key the cart blob is stored under.
// The blob shape {productId: {quantity, price-as-string}} is a stable
// contract for any component reading session state directly.
const SessionKey = "cart"

type StoredLine struct {
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Contents maps product id to its stored line.
type Contents map[string]StoredLine

func decodeContents(blob []byte) (Contents, error) {
	if len(blob) == 0 {
		return Contents{}, nil
	}
	var c Contents
	if err := json.Unmarshal(blob, &c); err != nil {
		return nil, fmt.Errorf("decode cart blob: %w", err)
	}
	if c == nil {
		c = Contents{}
	}
	return c, nil
}

func encodeContents(c Contents) ([]byte, error) {
	blob, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart blob: %w", err)
	}
	return blob, nil
}

// Line is one entry of a materialized cart: the live product, the
// stock-clamped quantity, and the price snapshotted when the line was added.
type Line struct {
	Product   catalog.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
