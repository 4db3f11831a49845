// Package fare turns raw ride-hailing price documents into normalized price records.
//
// Every provider has its own response shape. Normalize dispatches on the
// provider tag to the matching extraction strategy and always returns records
// in a deterministic order for a given document.
package fare

import "strings"

// Provider identifies an upstream ride-pricing API.
type Provider string

const (
	// Tapsi nests services under named categories and repeats the same fares
	// across categories.
	Tapsi Provider = "tapsi"
	// Snapp returns a flat list of prices, one per service type.
	Snapp Provider = "snapp"
)

// Providers lists every provider with a registered strategy.
func Providers() []Provider { return []Provider{Tapsi, Snapp} }

func (p Provider) String() string { return string(p) }

// Supported reports whether p has a registered strategy.
func (p Provider) Supported() bool {
	switch p {
	case Tapsi, Snapp:
		return true
	}
	return false
}

// ParseProvider maps user input to a Provider. Matching ignores case and
// surrounding spaces.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Supported() {
		return "", &UnsupportedProviderError{Provider: s}
	}
	return p, nil
}

// ParseProviders parses a comma-separated provider list, dropping empty and
// repeated entries.
func ParseProviders(csv string) ([]Provider, error) {
	parts := strings.Split(csv, ",")
	out := make([]Provider, 0, len(parts))
	seen := make(map[Provider]struct{}, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParseProvider(part)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
