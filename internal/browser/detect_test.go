package browser

import (
	"testing"

	"github.com/jmylchreest/sitehue/internal/background"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name string
		html string
		want background.Platform
	}{
		{
			name: "wordpress generator",
			html: `<head><meta name="generator" content="WordPress 6.6.2"></head>`,
			want: background.PlatformWordPress,
		},
		{
			name: "generator attribute order",
			html: `<meta content="Squarespace 7.1" name="generator">`,
			want: background.PlatformSquarespace,
		},
		{
			name: "squarespace assets",
			html: `<link rel="stylesheet" href="https://static1.squarespace.com/static/site.css">`,
			want: background.PlatformSquarespace,
		},
		{
			name: "wordpress content path",
			html: `<img src="/wp-content/uploads/2024/logo.png">`,
			want: background.PlatformWordPress,
		},
		{
			name: "wix",
			html: `<img src="https://static.wixstatic.com/media/a.jpg">`,
			want: background.PlatformWix,
		},
		{
			name: "shopify",
			html: `<script src="//cdn.shopify.com/s/files/theme.js"></script>`,
			want: background.PlatformShopify,
		},
		{
			name: "webflow",
			html: `<html data-wf-page="abc" data-wf-site="def">`,
			want: background.PlatformWebflow,
		},
		{
			name: "generator beats markers",
			html: `<meta name="generator" content="Webflow"><img src="/wp-content/x.png">`,
			want: background.PlatformWebflow,
		},
		{
			name: "plain page",
			html: `<html><body><p>hello</p></body></html>`,
			want: background.PlatformGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectPlatform(tt.html); got != tt.want {
				t.Errorf("DetectPlatform() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeStyleSheets(t *testing.T) {
	raw := `[
		{"href": "", "rules": [{"selector": ".has-background", "declarations": {"background-color": "rgb(233, 240, 245)"}}]},
		{"href": "https://fonts.example.com/x.css", "error": "SecurityError: Failed to read the 'cssRules' property"}
	]`

	sheets, err := decodeStyleSheets(raw)
	if err != nil {
		t.Fatalf("decodeStyleSheets() error = %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("decodeStyleSheets() = %d sheets, want 2", len(sheets))
	}

	rules, err := sheets[0].Rules()
	if err != nil || len(rules) != 1 || !rules[0].HasClassToken("has-background") {
		t.Errorf("inline sheet rules = %+v, %v", rules, err)
	}
	if _, err := sheets[1].Rules(); err == nil {
		t.Error("cross-origin sheet Rules() expected error")
	}
	if sheets[1].Href() != "https://fonts.example.com/x.css" {
		t.Errorf("Href() = %q", sheets[1].Href())
	}

	if _, err := decodeStyleSheets("not json"); err == nil {
		t.Error("decodeStyleSheets() expected error for invalid JSON")
	}
}
