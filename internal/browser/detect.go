package browser

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/sitehue/internal/background"
)

var generatorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<meta[^>]+name=["']generator["'][^>]*content=["']([^"']+)["']`),
	regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]*name=["']generator["']`),
}

// platformMarkers are asset hosts and paths each builder leaves in markup.
var platformMarkers = []struct {
	platform background.Platform
	markers  []string
}{
	{background.PlatformSquarespace, []string{"static1.squarespace.com", "squarespace-cdn.com", "sqs-block"}},
	{background.PlatformWix, []string{"wixstatic.com", "static.parastorage.com", "wix-thunderbolt"}},
	{background.PlatformShopify, []string{"cdn.shopify.com", "shopify-section", "Shopify.theme"}},
	{background.PlatformWebflow, []string{"data-wf-page", "webflow.js", "assets.website-files.com"}},
	{background.PlatformWordPress, []string{"/wp-content/", "/wp-includes/", "wp-block-"}},
}

// DetectPlatform guesses the site builder from page markup. The generator
// meta tag wins over asset markers. Unrecognised pages are generic.
func DetectPlatform(html string) background.Platform {
	for _, re := range generatorPatterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		gen := strings.ToLower(m[1])
		for _, p := range background.ValidPlatforms() {
			if p != background.PlatformGeneric && strings.Contains(gen, string(p)) {
				return p
			}
		}
	}
	for _, pm := range platformMarkers {
		for _, marker := range pm.markers {
			if strings.Contains(html, marker) {
				return pm.platform
			}
		}
	}
	return background.PlatformGeneric
}
