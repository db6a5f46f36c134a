package trademe

import (
	"errors"
	"testing"
)

const listingURL = "https://www.trademe.co.nz/a/property/residential/rent/auckland/listing/4567890123"

func TestListingIDFromURL(t *testing.T) {
	id, err := ListingIDFromURL(listingURL)
	if err != nil {
		t.Fatalf("ListingIDFromURL() failed: %v", err)
	}
	if id != "4567890123" {
		t.Errorf("id = %q, want %q", id, "4567890123")
	}
}

func TestExtractMissingListingID(t *testing.T) {
	_, err := Extract("https://www.trademe.co.nz/a/property/residential/rent", "<html></html>")
	if err == nil {
		t.Fatal("expected error for URL without listing id")
	}
	var idErr *MissingListingIDError
	if !errors.As(err, &idErr) {
		t.Fatalf("error type = %T, want *MissingListingIDError", err)
	}
}

func TestValidateListingURL(t *testing.T) {
	cases := []struct {
		url    string
		wantOK bool
	}{
		{"https://www.trademe.co.nz/a/property/listing/123", true},
		{"  https://trademe.co.nz/listing/123  ", true},
		{"http://www.trademe.co.nz/listing/123", true},
		{"https://example.com/listing/123", false},
		{"ftp://www.trademe.co.nz/listing/123", false},
		{"https://eviltrademe.co.nz/listing/123", false},
	}
	for _, tc := range cases {
		_, err := ValidateListingURL(tc.url)
		if (err == nil) != tc.wantOK {
			t.Errorf("ValidateListingURL(%q) error = %v, want ok=%v", tc.url, err, tc.wantOK)
		}
	}
}

func TestExtractJSONLDWithDOMBackfill(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "Product", "name": "Sunny 2-bed flat, Ponsonby, Auckland",
		 "offers": {"price": "$650 per week"},
		 "address": {"streetAddress": "12 College Hill"}}
		</script>
		</head><body>
		<h1>Should not be used for the title</h1>
		<div class="listing-description">Freshly renovated with harbour views.</div>
		<p>2 bedrooms and 1 bathroom</p>
		</body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	if listing.Title != "Sunny 2-bed flat, Ponsonby, Auckland" {
		t.Errorf("title = %q, want JSON-LD name", listing.Title)
	}
	if listing.Price != "$650 per week" {
		t.Errorf("price = %q, want JSON-LD offer price", listing.Price)
	}
	if listing.Address != "12 College Hill" {
		t.Errorf("address = %q, want JSON-LD street address", listing.Address)
	}
	// Description was absent from JSON-LD, so the DOM fills the gap.
	if listing.Description != "Freshly renovated with harbour views." {
		t.Errorf("description = %q, want DOM description", listing.Description)
	}
	if listing.Attributes["bedrooms"] != "2" || listing.Attributes["bathrooms"] != "1" {
		t.Errorf("attributes = %v, want bedrooms=2 bathrooms=1", listing.Attributes)
	}
}

func TestExtractJSONLDList(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		[{"@type": "BreadcrumbList", "name": "crumbs"},
		 {"@type": "Residence", "name": "The right one", "description": "Described."}]
		</script>
		</head><body></body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if listing.Title != "The right one" {
		t.Errorf("title = %q, want the listing-like list element's name", listing.Title)
	}
}

func TestExtractNextDataTier(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">not json at all</script>
		<script id="__NEXT_DATA__" type="application/json">
		{"props": {"pageProps": {"listing":
			{"name": "Next-data title", "body": "Next-data body",
			 "location": "3 Queen St", "priceDisplay": "$480 per week"}}}}
		</script>
		</head><body></body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if listing.Title != "Next-data title" {
		t.Errorf("title = %q, want the name alias from __NEXT_DATA__", listing.Title)
	}
	if listing.Description != "Next-data body" {
		t.Errorf("description = %q, want the body alias", listing.Description)
	}
	if listing.Address != "3 Queen St" {
		t.Errorf("address = %q, want the location alias", listing.Address)
	}
	if listing.Price != "$480 per week" {
		t.Errorf("price = %q, want the priceDisplay alias", listing.Price)
	}
}

func TestExtractNextDataEmptyListingFallsThrough(t *testing.T) {
	html := `<html><head>
		<script id="__NEXT_DATA__" type="application/json">
		{"props": {"pageProps": {"listing": {},
			"data": {"title": "From the data path", "price": "$500 per week"}}}}
		</script>
		</head><body></body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if listing.Title != "From the data path" {
		t.Errorf("title = %q, want the data path to win over an empty listing object", listing.Title)
	}
	if listing.Price != "$500 per week" {
		t.Errorf("price = %q", listing.Price)
	}
}

func TestExtractDOMFallback(t *testing.T) {
	html := `<html><body>
		<h1>Cosy studio, Newtown, Wellington</h1>
		<div><span>$425 per week</span></div>
		<div class="ListingBody">Close to everything.</div>
		<p>1 bed, 1 bath</p>
		</body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if listing.Title != "Cosy studio, Newtown, Wellington" {
		t.Errorf("title = %q", listing.Title)
	}
	if listing.Address != "Newtown, Wellington" {
		t.Errorf("address = %q, want last two comma segments of the title", listing.Address)
	}
	if listing.Price != "$425 per week" {
		t.Errorf("price = %q, want the $/week fragment", listing.Price)
	}
	if listing.Description != "Close to everything." {
		t.Errorf("description = %q", listing.Description)
	}
	if listing.Attributes["bedrooms"] != "1" {
		t.Errorf("bedrooms = %q, want 1", listing.Attributes["bedrooms"])
	}
}

func TestExtractNumericJSONLDPrice(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type": "Product", "name": "Flat", "offers": {"price": 650}}
		</script>
		</head><body></body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if listing.Price != "650" {
		t.Errorf("price = %q, want %q", listing.Price, "650")
	}
}

func TestPhotoURLsDeduplicated(t *testing.T) {
	html := `<html><body>
		<img src="https://trademe.tmcdn.co.nz/photoserver/med/111111.jpg">
		<img data-src="https://trademe.tmcdn.co.nz/photoserver/thumb/222222.jpg">
		<img src="https://trademe.tmcdn.co.nz/photoserver/plus/111111.jpg">
		<img src="https://other.cdn.example.com/photoserver/333333.jpg">
		<img src="/static/logo.png">
		</body></html>`

	listing, err := Extract(listingURL, html)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	want := []string{
		"https://trademe.tmcdn.co.nz/photoserver/plus/111111.jpg",
		"https://trademe.tmcdn.co.nz/photoserver/plus/222222.jpg",
	}
	if len(listing.Images) != len(want) {
		t.Fatalf("images = %v, want %v", listing.Images, want)
	}
	for i := range want {
		if listing.Images[i] != want[i] {
			t.Errorf("images[%d] = %q, want %q", i, listing.Images[i], want[i])
		}
	}
}

func TestExtractNoPhotosIsNotAnError(t *testing.T) {
	listing, err := Extract(listingURL, "<html><body><h1>Bare page</h1></body></html>")
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if len(listing.Images) != 0 {
		t.Errorf("images = %v, want empty", listing.Images)
	}
}
