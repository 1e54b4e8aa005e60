package catalog

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// encodeProducts serializes the whole collection as a JSON array of records.
func encodeProducts(products []Product) (string, error) {
	if products == nil {
		products = []Product{}
	}
	blob, err := json.MarshalToString(products)
	if err != nil {
		return "", fmt.Errorf("failed to encode products: %w", err)
	}
	return blob, nil
}

// decodeProducts parses a persisted collection. A blob holding JSON null decodes to an empty collection.
// Any record that is incomplete or repeats an id makes the whole blob invalid.
func decodeProducts(blob string) ([]Product, error) {
	var products []Product
	if err := json.UnmarshalFromString(blob, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if !p.complete() {
			return nil, fmt.Errorf("product record %d is incomplete", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("product record %d repeats id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}
