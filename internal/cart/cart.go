package cart

import "github.com/shopspring/decimal"

// Item is the artwork snapshot a line keeps. Prices travel as strings from
// the backend and stay strings until aggregation.
type Item struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ArtistName string `json:"artist_name"`
	Price      string `json:"price"`
	Currency   string `json:"currency"`
	ImageURL   string `json:"primary_image,omitempty"`
}

// Line is one distinct artwork in the cart with its requested quantity.
// At most one line exists per artwork id.
type Line struct {
	Item
	Quantity int `json:"quantity"`
}

// Subtotal is price times quantity. A missing or unparsable price counts
// as zero rather than poisoning the cart total.
func (l Line) Subtotal() decimal.Decimal {
	price, err := decimal.NewFromString(l.Price)
	if err != nil {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
