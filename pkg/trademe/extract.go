// Package trademe extracts a normalized listing record from a rendered
// TradeMe rental listing page. Field extraction is tiered, most
// structured source first: JSON-LD structured data, then the Next.js
// __NEXT_DATA__ blob, then DOM heuristics. A tier that yields nothing
// is a soft miss, never an error; the DOM tier also backfills whatever
// fields a higher tier left empty.
package trademe

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/propertypartner/social-pipeline/models"
)

var listingIDPattern = regexp.MustCompile(`/listing/(\d+)`)

// MissingListingIDError is the only hard failure in extraction: the
// page URL carried no numeric listing segment.
type MissingListingIDError struct {
	URL string
}

func (e *MissingListingIDError) Error() string {
	return fmt.Sprintf("no listing ID found in URL: %s", e.URL)
}

// fields is the partial record shape each tier produces. Empty strings
// mean the tier had nothing for that field.
type fields struct {
	title       string
	description string
	address     string
	price       string
	attributes  map[string]string
}

// ValidateListingURL checks that a URL looks like a TradeMe listing
// page before any rendering or extraction work is spent on it.
func ValidateListingURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("URL must be http or https: %s", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	if host != "trademe.co.nz" && !strings.HasSuffix(host, ".trademe.co.nz") {
		return "", fmt.Errorf("URL must be a trademe.co.nz listing: %s", rawURL)
	}
	return rawURL, nil
}

// ListingIDFromURL pulls the numeric listing ID out of a TradeMe URL
// path.
func ListingIDFromURL(pageURL string) (string, error) {
	m := listingIDPattern.FindStringSubmatch(pageURL)
	if m == nil {
		return "", &MissingListingIDError{URL: pageURL}
	}
	return m[1], nil
}

// Extract parses rendered listing markup into a ListingRecord. The
// markup is treated as an opaque string; navigation and rendering
// happen upstream.
func Extract(pageURL, renderedHTML string) (*models.ListingRecord, error) {
	listingID, err := ListingIDFromURL(pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing markup: %w", err)
	}

	f := parseJSONLD(doc)
	if f == nil {
		f = parseNextData(doc)
	}

	if f == nil {
		f = parseDOM(doc, pageURL)
	} else {
		dom := parseDOM(doc, pageURL)
		if f.title == "" {
			f.title = dom.title
		}
		if f.description == "" {
			f.description = dom.description
		}
		if f.address == "" {
			f.address = dom.address
		}
		if f.price == "" {
			f.price = dom.price
		}
		if f.attributes == nil {
			f.attributes = dom.attributes
		}
	}

	return &models.ListingRecord{
		URL:         pageURL,
		ListingID:   listingID,
		Title:       f.title,
		Price:       f.price,
		Address:     f.address,
		Description: f.description,
		Images:      photoURLs(doc),
		Attributes:  f.attributes,
	}, nil
}
