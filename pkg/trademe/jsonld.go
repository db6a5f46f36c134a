package trademe

import (
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Declared types that mark a JSON-LD node as the listing itself rather
// than breadcrumbs, org info or other page furniture.
var listingLikeTypes = map[string]bool{
	"Product":    true,
	"Residence":  true,
	"RentAction": true,
	"Place":      true,
}

// parseJSONLD tries the page's structured-data script tag. Any parse
// or shape problem is a soft miss returning nil.
func parseJSONLD(doc *goquery.Document) *fields {
	raw := doc.Find(`script[type="application/ld+json"]`).First().Text()
	if raw == "" {
		return nil
	}

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}

	// JSON-LD can be a single object or a list of them.
	obj, ok := data.(map[string]any)
	if !ok {
		list, ok := data.([]any)
		if !ok {
			return nil
		}
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := m["@type"].(string); listingLikeTypes[t] {
				obj = m
				break
			}
		}
		if obj == nil {
			return nil
		}
	}

	f := &fields{
		title:       stringValue(obj["name"]),
		description: stringValue(obj["description"]),
	}

	switch addr := obj["address"].(type) {
	case map[string]any:
		f.address = stringValue(addr["streetAddress"])
	case string:
		f.address = addr
	}

	if offers, ok := obj["offers"].(map[string]any); ok {
		f.price = stringValue(offers["price"])
	}

	return f
}

// stringValue renders a JSON scalar as a display string. Numbers come
// back from encoding/json as float64, so prices like 650 must not
// print as 650.000000.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return ""
	}
}
