package trademe

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// parseNextData tries the Next.js application-state blob. The props
// tree varies between page versions, so a small set of conventional
// paths is walked and each field accepts a couple of key aliases.
// Parse or shape failure is a soft miss returning nil.
func parseNextData(doc *goquery.Document) *fields {
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil
	}

	var blob map[string]any
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil
	}

	props, _ := blob["props"].(map[string]any)
	pageProps, _ := props["pageProps"].(map[string]any)
	if pageProps == nil {
		return nil
	}

	// An empty listing object counts as absent so the other paths still
	// get a chance.
	listing, _ := pageProps["listing"].(map[string]any)
	if len(listing) == 0 {
		listing, _ = pageProps["data"].(map[string]any)
	}
	if len(listing) == 0 {
		listing = pageProps
	}
	if len(listing) == 0 {
		return nil
	}

	return &fields{
		title:       firstString(listing, "title", "name"),
		description: firstString(listing, "description", "body"),
		address:     firstString(listing, "address", "location"),
		price:       firstString(listing, "price", "priceDisplay"),
	}
}

// firstString returns the first non-empty value among the given keys.
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringValue(m[key]); s != "" {
			return s
		}
	}
	return ""
}
