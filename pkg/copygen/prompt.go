package copygen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/propertypartner/social-pipeline/models"
)

// buildPrompt renders the listing into the copy-generation prompt. The
// platform guidance here is the product: post length, hashtag counts
// and link placement differ hard between Facebook and Instagram.
func buildPrompt(listing *models.ListingRecord) string {
	features := strings.Join(attributeNames(listing.Attributes), ", ")

	return fmt.Sprintf(`Generate social media posts for this rental listing.

LISTING DATA:
Title: %s
Price: %s
Address: %s
Description: %s
Features: %s

Generate TWO posts:

1. FACEBOOK POST:
- Lead with the key selling point (location, price, or standout feature)
- 80-150 words — informative but scannable
- Include the listing link at the end: %s
- End with a clear CTA (e.g. "Message us to book a viewing")
- 0-1 hashtags max (hashtags don't help on Facebook)
- Use 2-3 relevant emoji as visual markers, not decoratively

2. INSTAGRAM CAPTION:
- First 125 chars = the hook (this shows before "more" is tapped)
- 60-100 words total caption
- Lifestyle-focused — help the reader imagine living there
- 5-7 hashtags at the end: mix of #ForRent, #[Suburb]Rentals, #NZProperty, #[City]Living, and 2 feature-specific (e.g. #PetFriendly, #CityViews)
- DO NOT include a link (links aren't clickable in IG captions)
- Instead end with "Link in bio" or "DM for details"
- Use 3-4 emoji as visual signposts

Respond in JSON only, no markdown fences:
{"facebook": "post text here", "instagram": "caption text here"}`,
		orNA(listing.Title), orNA(listing.Price), orNA(listing.Address),
		orNA(listing.Description), orNA(features), listing.URL)
}

// ParsePosts extracts the two-key JSON object from the model's reply,
// tolerating markdown fences and trailing prose around it.
func ParsePosts(text string) (*models.SocialPosts, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(text[start:end+1]), &data); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	fb, okFB := data["facebook"]
	ig, okIG := data["instagram"]
	if !okFB || !okIG {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		return nil, fmt.Errorf("response missing required keys, got: %v", keys)
	}

	return &models.SocialPosts{Facebook: fb, Instagram: ig}, nil
}

func attributeNames(attrs map[string]string) []string {
	names := make([]string, 0, len(attrs))
	for name, value := range attrs {
		names = append(names, value+" "+name)
	}
	sort.Strings(names)
	return names
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
