// Package models defines the shared data structures passed between
// pipeline stages: scraped listings, processed images, generated posts
// and runtime configuration.
package models

// ListingRecord is the normalized output of extracting one TradeMe
// rental listing page. ListingID is always present and numeric; every
// other field may be empty when no extraction tier produced a value.
type ListingRecord struct {
	URL         string            `json:"url" yaml:"url"`
	ListingID   string            `json:"listing_id" yaml:"listing_id"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	Price       string            `json:"price,omitempty" yaml:"price,omitempty"`
	Address     string            `json:"address,omitempty" yaml:"address,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Images      []string          `json:"images" yaml:"images"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// SocialPosts holds the generated copy for one listing, one string per
// platform.
type SocialPosts struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
}
