package fare

// TapsiTiers is the number of fare tiers Tapsi quotes per ride. The same
// tiers repeat across the suggested, direct and economic categories.
const TapsiTiers = 3

type tapsiDocument struct {
	Data struct {
		Categories []tapsiCategory `json:"categories"`
	} `json:"data"`
}

type tapsiCategory struct {
	Key   string      `json:"key"`
	Title text        `json:"title"`
	Items []tapsiItem `json:"items"`
}

type tapsiItem struct {
	Service struct {
		Key    label        `json:"key"`
		Prices []tapsiPrice `json:"prices"`
	} `json:"service"`
}

type tapsiPrice struct {
	Type           string `json:"type"`
	PassengerShare amount `json:"passengerShare"`
}

// extractTapsi flattens data.categories[].items[].service.prices[] into one
// candidate per priced entry and keeps the last TapsiTiers distinct fares.
// Entries without a usable passengerShare are dropped.
func extractTapsi(raw []byte) ([]Record, error) {
	var doc tapsiDocument
	if err := decode(Tapsi, raw, &doc); err != nil {
		return nil, err
	}

	var candidates []Record
	for _, category := range doc.Data.Categories {
		for _, item := range category.Items {
			for _, price := range item.Service.Prices {
				if price.PassengerShare.v == nil {
					continue
				}
				candidates = append(candidates, Record{
					Provider:   Tapsi,
					ServiceKey: string(item.Service.Key),
					Category:   copyString(category.Title.v),
					Price:      copyInt(price.PassengerShare.v),
				})
			}
		}
	}
	return lastUnique(candidates, TapsiTiers), nil
}

// lastUnique collapses records that share a price. The last record seen wins
// but takes the position where its price first appeared. Only the final n
// survivors are returned.
func lastUnique(records []Record, n int) []Record {
	slot := make(map[int64]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		key := r.PriceValue()
		if i, ok := slot[key]; ok {
			out[i] = r
			continue
		}
		slot[key] = len(out)
		out = append(out, r)
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
