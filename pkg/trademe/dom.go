package trademe

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

var (
	priceWeekPattern = regexp.MustCompile(`(?i)\$[\d,]+.*?week`)
	bedPattern       = regexp.MustCompile(`(\d+)\s*bed`)
	bathPattern      = regexp.MustCompile(`(\d+)\s*bath`)

	// Class-name fragments that mark a description container across
	// the page layouts seen in the wild.
	descriptionClassPatterns = []*regexp.Regexp{
		regexp.MustCompile(`description`),
		regexp.MustCompile(`Description`),
		regexp.MustCompile(`listing-body`),
		regexp.MustCompile(`ListingBody`),
	}
)

// parseDOM extracts fields from the rendered markup itself. It always
// produces a result, which serves either as the sole source or as the
// gap-filler for a partial higher-tier record.
func parseDOM(doc *goquery.Document, pageURL string) *fields {
	f := &fields{}

	f.title = strings.TrimSpace(doc.Find("h1").First().Text())

	// TradeMe titles usually end with "..., Suburb, City"; the last
	// two comma segments are the usable address.
	if strings.Contains(f.title, ",") {
		parts := strings.Split(f.title, ",")
		if len(parts) >= 2 {
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			f.address = strings.Join(parts[len(parts)-2:], ", ")
		}
	}

	doc.Find("div,span,p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := s.Text()
		if !strings.Contains(txt, "$") || !strings.Contains(strings.ToLower(txt), "week") {
			return true
		}
		if m := priceWeekPattern.FindString(txt); m != "" {
			f.price = m
			return false
		}
		return true
	})

	for _, pattern := range descriptionClassPatterns {
		var found bool
		doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			if !pattern.MatchString(class) {
				return true
			}
			f.description = strings.TrimSpace(s.Text())
			found = true
			return false
		})
		if found {
			break
		}
	}
	if f.description == "" {
		f.description = readableDescription(doc, pageURL)
	}

	bodyText := strings.ToLower(doc.Text())
	attributes := map[string]string{}
	if m := bedPattern.FindStringSubmatch(bodyText); m != nil {
		attributes["bedrooms"] = m[1]
	}
	if m := bathPattern.FindStringSubmatch(bodyText); m != nil {
		attributes["bathrooms"] = m[1]
	}
	f.attributes = attributes

	return f
}

// readableDescription is a last resort when no known description class
// matches: let readability distill the page and use its excerpt.
func readableDescription(doc *goquery.Document, pageURL string) string {
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.Excerpt)
}
