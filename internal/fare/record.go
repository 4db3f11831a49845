package fare

// Record is the normalized shape produced for every provider.
// Amounts are integers in the provider's smallest currency unit.
type Record struct {
	Provider   Provider `json:"provider"`
	ServiceKey string   `json:"service_key"`
	// Category is set only when the provider groups services under named
	// categories and the category carries a title.
	Category *string `json:"category"`
	Price    *int64  `json:"price"`
	// ReferencePrice is the undiscounted fare when the provider reports one.
	ReferencePrice *int64 `json:"reference_price,omitempty"`
	IsDiscounted   bool   `json:"is_discounted"`
	DiscountText   string `json:"discount_text"`
}

// HasPrice reports whether the record carries an amount.
func (r Record) HasPrice() bool { return r.Price != nil }

// PriceValue returns the amount, or 0 when it is unset.
func (r Record) PriceValue() int64 {
	if r.Price == nil {
		return 0
	}
	return *r.Price
}

// CategoryLabel returns the category title, or "" when there is none.
func (r Record) CategoryLabel() string {
	if r.Category == nil {
		return ""
	}
	return *r.Category
}
