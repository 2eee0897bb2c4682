package countrydb

import (
	"strings"

	"github.com/pkg/errors"
)

// bindings maps a human country identifier to its database target.
// Loaded once, read-only at request time.
var bindings = map[string]string{
	"Thailand":    "AS-DTGTHA",
	"Vietnam":     "AS-DTGVNM",
	"Malaysia":    "AS-DTGMYS",
	"Singapore":   "AS-DTGSGP",
	"Indonesia":   "AS-DTGIDN",
	"Philippines": "AS-DTGPHL",
	"Taiwan":      "AS-DTGTWN",
	"Hong Kong":   "AS-DTGHKG",
}

var ErrUnknownCountry = errors.New("unknown country")

// ResolveTarget looks up the database name for a country identifier.
// Identifiers arriving from URLs may use '-' or '_' instead of spaces.
func ResolveTarget(countryID string) (string, error) {
	id := strings.TrimSpace(countryID)
	if db, ok := bindings[id]; ok {
		return db, nil
	}

	normalized := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	normalized = strings.TrimSpace(normalized)
	if db, ok := bindings[normalized]; ok {
		return db, nil
	}

	return "", errors.Wrap(ErrUnknownCountry, countryID)
}

// Countries lists the known country identifiers.
func Countries() []string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	return names
}
