package trademe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	photoServerHost  = "trademe.tmcdn.co.nz/photoserver"
	fullSizeTemplate = "https://trademe.tmcdn.co.nz/photoserver/plus/%s.jpg"
)

var photoIDPattern = regexp.MustCompile(`/(\d+)\.jpg`)

// photoURLs harvests photo IDs from every img tag referencing the
// TradeMe CDN, checking both src and the lazy-load data-src, and
// rebuilds each ID as a canonical full-resolution URL. IDs are
// deduplicated in first-seen order. Zero photos is a valid result.
func photoURLs(doc *goquery.Document) []string {
	seen := map[string]bool{}
	urls := []string{}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "data-src"} {
			src, _ := s.Attr(attr)
			if !strings.Contains(src, photoServerHost) {
				continue
			}
			m := photoIDPattern.FindStringSubmatch(src)
			if m == nil || seen[m[1]] {
				continue
			}
			seen[m[1]] = true
			urls = append(urls, fmt.Sprintf(fullSizeTemplate, m[1]))
		}
	})

	return urls
}
