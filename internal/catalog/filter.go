package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the products whose name contains term, ignoring case.
// Only the name is matched. An empty term yields products unchanged; otherwise
// the result keeps the input order and products itself is never modified.
func Filter(products []Product, term string) []Product {
	if term == "" {
		return products
	}
	fold := cases.Fold()
	needle := fold.String(term)

	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(fold.String(p.Name), needle) {
			matched = append(matched, p)
		}
	}
	return matched
}
