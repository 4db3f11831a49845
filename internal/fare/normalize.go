package fare

// Normalizer dispatches a provider document to its extraction strategy.
// The zero value is ready to use and never fails on too few Tapsi tiers.
type Normalizer struct {
	strictTiers bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStrictTiers makes Tapsi documents with fewer than TapsiTiers distinct
// fares fail with InsufficientDataError instead of returning what exists.
func WithStrictTiers() Option {
	return func(n *Normalizer) { n.strictTiers = true }
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) Normalizer {
	var n Normalizer
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Normalize extracts the records of a raw provider document.
// The provider is checked before the document is parsed.
func (n Normalizer) Normalize(p Provider, raw []byte) ([]Record, error) {
	switch p {
	case Tapsi:
		records, err := extractTapsi(raw)
		if err != nil {
			return nil, err
		}
		if n.strictTiers && len(records) < TapsiTiers {
			return nil, &InsufficientDataError{Provider: p, Want: TapsiTiers, Got: len(records)}
		}
		return records, nil
	case Snapp:
		return extractSnapp(raw)
	default:
		return nil, &UnsupportedProviderError{Provider: string(p)}
	}
}

// Normalize runs the zero-value Normalizer.
func Normalize(p Provider, raw []byte) ([]Record, error) {
	return Normalizer{}.Normalize(p, raw)
}
