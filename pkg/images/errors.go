package images

import (
	"fmt"
	"strings"
)

// UnsupportedPlatformError is returned when a resize is requested for a
// platform the pipeline does not know how to shape images for.
type UnsupportedPlatformError struct {
	Platform string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q (want instagram or facebook)", e.Platform)
}

// InvalidListingIDError is returned for listing IDs that are not purely
// numeric. The ID becomes a staging directory name, so this doubles as
// a path-injection guard.
type InvalidListingIDError struct {
	ID string
}

func (e *InvalidListingIDError) Error() string {
	return fmt.Sprintf("invalid listing id %q: must be numeric", e.ID)
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
