package models

// ProcessedImage is one resized, locally staged listing photo.
// PublicURL stays empty until the staging directory has been uploaded
// and a reachable HTTPS URL is known.
type ProcessedImage struct {
	LocalPath string  `json:"local_path"`
	PublicURL string  `json:"public_url"`
	Score     float64 `json:"score"`
}

// PreparedImages is the image pipeline result for one listing.
// Hero holds at most one entry: the top-ranked image. Carousel holds
// every surviving image in rank order, so Hero[0] == Carousel[0]
// whenever any image survived.
type PreparedImages struct {
	Hero     []ProcessedImage `json:"hero"`
	Carousel []ProcessedImage `json:"carousel"`
}
