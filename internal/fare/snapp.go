package fare

type snappDocument struct {
	Data struct {
		Prices []snappPrice `json:"prices"`
	} `json:"data"`
}

type snappPrice struct {
	Type         label  `json:"type"`
	Final        amount `json:"final"`
	RawFare      amount `json:"raw_fare"`
	IsDiscounted bool   `json:"is_discounted_price"`
	Texts        struct {
		DiscountedPrice string `json:"discounted_price"`
	} `json:"texts"`
}

// extractSnapp emits one record per data.prices[] entry in input order.
// Entries without a final amount are kept with Price unset.
func extractSnapp(raw []byte) ([]Record, error) {
	var doc snappDocument
	if err := decode(Snapp, raw, &doc); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(doc.Data.Prices))
	for _, p := range doc.Data.Prices {
		out = append(out, Record{
			Provider:       Snapp,
			ServiceKey:     string(p.Type),
			Price:          copyInt(p.Final.v),
			ReferencePrice: copyInt(p.RawFare.v),
			IsDiscounted:   p.IsDiscounted,
			DiscountText:   p.Texts.DiscountedPrice,
		})
	}
	return out, nil
}
