package fare_test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"rideprice/internal/fare"
)

// entry is one priced service in a generated Tapsi document.
type entry struct {
	category string
	service  string
	price    any
}

// tapsiDocument builds a Tapsi preview document. Consecutive entries sharing a
// category are grouped under the same category object.
func tapsiDocument(t *testing.T, entries ...entry) []byte {
	t.Helper()
	categories := []map[string]any{}
	for _, e := range entries {
		if n := len(categories); n == 0 || categories[n-1]["title"] != e.category {
			categories = append(categories, map[string]any{"title": e.category, "items": []any{}})
		}
		c := categories[len(categories)-1]
		c["items"] = append(c["items"].([]any), map[string]any{
			"service": map[string]any{
				"key":    e.service,
				"prices": []any{map[string]any{"type": "CERTAIN", "passengerShare": e.price}},
			},
		})
	}
	b, err := json.Marshal(map[string]any{"result": "OK", "data": map[string]any{"categories": categories}})
	require.NoError(t, err)
	return b
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func prices(records []fare.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.PriceValue())
	}
	return out
}

func TestNormalize_TapsiSample(t *testing.T) {
	t.Parallel()

	// Act: normalize the captured preview response.
	records, err := fare.Normalize(fare.Tapsi, readFixture(t, "tapsi_preview.json"))
	require.NoError(t, err)

	// Assert: one record per distinct fare, ordered by first appearance,
	// labelled with the category of the last appearance.
	require.Equal(t, []int64{65000, 60000, 85000}, prices(records))

	require.Equal(t, "STANDARD", records[0].ServiceKey)
	require.Equal(t, "دربستی", records[0].CategoryLabel())
	require.Equal(t, "WAIT_AND_SAVE", records[1].ServiceKey)
	require.Equal(t, "اقتصادی", records[1].CategoryLabel())
	require.Equal(t, "PLUS", records[2].ServiceKey)
	require.Equal(t, "دربستی", records[2].CategoryLabel())

	for _, r := range records {
		require.Equal(t, fare.Tapsi, r.Provider)
		require.False(t, r.IsDiscounted)
		require.Empty(t, r.DiscountText)
		require.Nil(t, r.ReferencePrice)
	}
}

func TestNormalize_TapsiLastOccurrenceWins(t *testing.T) {
	t.Parallel()

	doc := tapsiDocument(t,
		entry{"c1", "s1", 65000},
		entry{"c2", "s2", 60000},
		entry{"c3", "s3", 85000},
		entry{"c4", "s4", 65000},
		entry{"c5", "s5", 85000},
		entry{"c6", "s6", 60000},
	)

	records, err := fare.Normalize(fare.Tapsi, doc)
	require.NoError(t, err)

	require.Equal(t, []int64{65000, 60000, 85000}, prices(records))
	require.Equal(t, []string{"c4", "c6", "c5"}, []string{
		records[0].CategoryLabel(), records[1].CategoryLabel(), records[2].CategoryLabel(),
	})
	require.Equal(t, []string{"s4", "s6", "s5"}, []string{
		records[0].ServiceKey, records[1].ServiceKey, records[2].ServiceKey,
	})
}

func TestNormalize_TapsiKeepsTrailingThree(t *testing.T) {
	t.Parallel()

	// Assert: with more distinct fares than tiers only the final three
	// insertion slots survive.
	doc := tapsiDocument(t,
		entry{"a", "s", 10},
		entry{"a", "s", 20},
		entry{"a", "s", 30},
		entry{"a", "s", 40},
		entry{"a", "s", 50},
	)
	records, err := fare.Normalize(fare.Tapsi, doc)
	require.NoError(t, err)
	require.Equal(t, []int64{30, 40, 50}, prices(records))

	// Assert: an overwritten fare keeps its first slot, so it can still be
	// truncated away.
	doc = tapsiDocument(t,
		entry{"a", "s", 10},
		entry{"a", "s", 20},
		entry{"a", "s", 30},
		entry{"a", "s", 40},
		entry{"b", "s", 10},
	)
	records, err = fare.Normalize(fare.Tapsi, doc)
	require.NoError(t, err)
	require.Equal(t, []int64{20, 30, 40}, prices(records))
}

func TestNormalize_TapsiFewerTiers(t *testing.T) {
	t.Parallel()

	doc := tapsiDocument(t,
		entry{"a", "STANDARD", 65000},
		entry{"b", "PLUS", 85000},
		entry{"c", "STANDARD", 65000},
	)

	// Assert: the default normalizer returns what exists without padding.
	records, err := fare.Normalize(fare.Tapsi, doc)
	require.NoError(t, err)
	require.Equal(t, []int64{65000, 85000}, prices(records))

	// Assert: a strict normalizer refuses the document.
	strict := fare.NewNormalizer(fare.WithStrictTiers())
	records, err = strict.Normalize(fare.Tapsi, doc)
	require.Nil(t, records)

	var insufficient *fare.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, fare.Tapsi, insufficient.Provider)
	require.Equal(t, fare.TapsiTiers, insufficient.Want)
	require.Equal(t, 2, insufficient.Got)
}

func TestNormalize_StrictAcceptsFullTiers(t *testing.T) {
	t.Parallel()

	strict := fare.NewNormalizer(fare.WithStrictTiers())
	records, err := strict.Normalize(fare.Tapsi, readFixture(t, "tapsi_preview.json"))
	require.NoError(t, err)
	require.Len(t, records, fare.TapsiTiers)

	// Assert: strictness only concerns Tapsi tiers.
	records, err = strict.Normalize(fare.Snapp, []byte(`{"data":{"prices":[]}}`))
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestNormalize_TapsiUnusablePrices(t *testing.T) {
	t.Parallel()

	doc := tapsiDocument(t,
		entry{"a", "NULL", nil},
		entry{"a", "TEXT", "abc"},
		entry{"a", "NEGATIVE", -5},
		entry{"a", "FRACTION", 12.5},
		entry{"a", "OBJECT", map[string]any{"amount": 1}},
		entry{"a", "QUOTED", "70000"},
		entry{"a", "EXPONENT", 6.5e4},
	)

	records, err := fare.Normalize(fare.Tapsi, doc)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "QUOTED", records[0].ServiceKey)
	require.Equal(t, int64(70000), *records[0].Price)
	require.Equal(t, "EXPONENT", records[1].ServiceKey)
	require.Equal(t, int64(65000), *records[1].Price)
}

func TestNormalize_TapsiMissingFields(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"data":{"categories":[
		{"items":[{"service":{"key":"STANDARD","prices":[{"passengerShare":65000}]}}]},
		{"title":"دربستی","items":[{"service":{"prices":[{"passengerShare":70000}]}}]},
		{"title":"x","items":[{"service":{"key":"PLUS"}}]},
		{"title":"y","items":[{}]},
		{"title":7,"items":[{"service":{"key":"BIKE","prices":[{"passengerShare":30000}]}}]}
	]}}`)

	records, err := fare.Normalize(fare.Tapsi, doc)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Assert: an absent title leaves the category unset.
	require.Nil(t, records[0].Category)
	require.Equal(t, "STANDARD", records[0].ServiceKey)

	// Assert: an absent service key is an empty key, not a dropped record.
	require.Equal(t, "", records[1].ServiceKey)
	require.Equal(t, "دربستی", records[1].CategoryLabel())

	// Assert: a wrong-typed title is treated as absent.
	require.Nil(t, records[2].Category)
	require.Equal(t, "BIKE", records[2].ServiceKey)
}

func TestNormalize_TapsiWrongTypedTitle(t *testing.T) {
	t.Parallel()

	for _, title := range []string{`7`, `true`, `{"fa":"x"}`, `["x"]`, `null`} {
		doc := []byte(`{"data":{"categories":[{"title":` + title +
			`,"items":[{"service":{"key":"BIKE","prices":[{"passengerShare":30000}]}}]}]}}`)

		records, err := fare.Normalize(fare.Tapsi, doc)
		require.NoError(t, err, title)
		require.Len(t, records, 1, title)
		require.Nil(t, records[0].Category, title)
		require.Equal(t, int64(30000), records[0].PriceValue(), title)
	}
}

func TestNormalize_SnappSample(t *testing.T) {
	t.Parallel()

	records, err := fare.Normalize(fare.Snapp, readFixture(t, "snapp_newprice.json"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, fare.Snapp, first.Provider)
	require.Equal(t, "1", first.ServiceKey)
	require.Nil(t, first.Category)
	require.Equal(t, int64(840000), *first.Price)
	require.Nil(t, first.ReferencePrice)
	require.False(t, first.IsDiscounted)
	// The discount text is carried verbatim even when the fare is not discounted.
	require.Equal(t, "تخفیف برای شما!", first.DiscountText)

	second := records[1]
	require.Equal(t, "2", second.ServiceKey)
	require.Equal(t, int64(1000000), *second.Price)
	require.Equal(t, int64(1110000), *second.ReferencePrice)
	require.True(t, second.IsDiscounted)
	require.Equal(t, "۱۰٪ تخفیف", second.DiscountText)
}

func TestNormalize_SnappPassThrough(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"data":{"prices":[
		{"type":"1","final":500000,"is_discounted_price":false},
		{"type":"1","final":500000,"is_discounted_price":false},
		{"type":7,"is_discounted_price":true,"texts":{"discounted_price":"off"}},
		{"type":"5","final":null,"texts":null}
	]}}`)

	records, err := fare.Normalize(fare.Snapp, doc)
	require.NoError(t, err)

	// Assert: every entry is emitted, duplicates included.
	require.Len(t, records, 4)
	require.Equal(t, records[0], records[1])

	// Assert: a missing final leaves the price unset.
	require.Equal(t, "7", records[2].ServiceKey)
	require.Nil(t, records[2].Price)
	require.True(t, records[2].IsDiscounted)
	require.Equal(t, "off", records[2].DiscountText)

	require.Equal(t, "5", records[3].ServiceKey)
	require.Nil(t, records[3].Price)
	require.Equal(t, "", records[3].DiscountText)
}

func TestNormalize_EmptyAndMissingPaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		provider fare.Provider
		doc      string
	}{
		{"tapsi empty categories", fare.Tapsi, `{"data":{"categories":[]}}`},
		{"tapsi empty items", fare.Tapsi, `{"data":{"categories":[{"title":"a","items":[]}]}}`},
		{"tapsi no data", fare.Tapsi, `{"result":"OK"}`},
		{"tapsi array root", fare.Tapsi, `[]`},
		{"tapsi wrong data type", fare.Tapsi, `{"data":"nope"}`},
		{"snapp empty prices", fare.Snapp, `{"data":{"prices":[]}}`},
		{"snapp null prices", fare.Snapp, `{"data":{"prices":null}}`},
		{"snapp no data", fare.Snapp, `{}`},
		{"snapp scalar root", fare.Snapp, `42`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			records, err := fare.Normalize(tc.provider, []byte(tc.doc))
			require.NoError(t, err)
			require.NotNil(t, records)
			require.Empty(t, records)
		})
	}
}

func TestNormalize_MalformedDocument(t *testing.T) {
	t.Parallel()

	for _, p := range fare.Providers() {
		for _, doc := range []string{"", "not json", `{"data":`, `{"data":{"prices":[}}`} {
			records, err := fare.Normalize(p, []byte(doc))
			require.Nil(t, records)

			var parseErr *fare.DocumentParseError
			require.ErrorAsf(t, err, &parseErr, "provider=%s doc=%q", p, doc)
			require.Equal(t, p, parseErr.Provider)
			require.NotNil(t, parseErr.Unwrap())
		}
	}
}

func TestNormalize_UnsupportedProvider(t *testing.T) {
	t.Parallel()

	// Assert: the provider is rejected before the (invalid) document is read.
	records, err := fare.Normalize(fare.Provider("uber"), []byte("not json"))
	require.Nil(t, records)

	var unsupported *fare.UnsupportedProviderError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, "uber", unsupported.Provider)
	require.Contains(t, err.Error(), `"uber"`)
}

func TestNormalize_Deterministic(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		provider fare.Provider
		fixture  string
	}{
		{fare.Tapsi, "tapsi_preview.json"},
		{fare.Snapp, "snapp_newprice.json"},
	} {
		doc := readFixture(t, tc.fixture)
		first, err := fare.Normalize(tc.provider, doc)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := fare.Normalize(tc.provider, doc)
			require.NoError(t, err)
			require.Equal(t, first, again)
		}
	}
}

func TestRecord_JSONShape(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(fare.Record{Provider: fare.Snapp, ServiceKey: "1"})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"provider": "snapp",
		"service_key": "1",
		"category": null,
		"price": null,
		"is_discounted": false,
		"discount_text": ""
	}`, string(b))
}
