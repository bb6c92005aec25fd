package audit

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitehue/internal/background"
	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/contrast"
	"github.com/jmylchreest/sitehue/internal/dom"
	"github.com/jmylchreest/sitehue/internal/dom/domtest"
	"github.com/jmylchreest/sitehue/internal/raster"
	"github.com/jmylchreest/sitehue/internal/registry"
)

// paragraphIn builds a paragraph inside a section painted bg.
func paragraphIn(bg string) *domtest.Node {
	p := domtest.El("p")
	section := domtest.El("section").WithStyle("background-color", bg).Append(p)
	domtest.NewDocument(domtest.El("html").Append(domtest.El("body").Append(section)))
	return p
}

func analyze(t *testing.T, s *Session, sub Subject) *Finding {
	t.Helper()
	f, err := s.Analyze(context.Background(), sub)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return f
}

func TestAnalyzeWordPressParagraph(t *testing.T) {
	p := paragraphIn("rgb(233, 240, 245)")
	p.WithPseudo(dom.PseudoBefore, "content", `""`, "background-color", "rgb(0, 0, 0)")

	s := NewSession(Options{})
	f := analyze(t, s, Subject{
		Element:    p,
		Platform:   background.PlatformWordPress,
		Page:       "https://example.com/",
		Foreground: "rgb(60, 67, 74)",
	})
	if f == nil {
		t.Fatal("Analyze() returned no finding")
	}
	if f.Background == nil || f.Background.Key() != "#e9f0f5" {
		t.Fatalf("Background = %v, want #e9f0f5", f.Background)
	}
	if f.Method != background.MethodDOMWalk {
		t.Errorf("Method = %s, want %s", f.Method, background.MethodDOMWalk)
	}
	if math.Abs(*f.Ratio-8.71) > 0.01 {
		t.Errorf("Ratio = %.2f, want 8.71", *f.Ratio)
	}
	if f.Verdicts[contrast.AAANormal] != contrast.Pass {
		t.Errorf("AAA-normal = %s, want pass", f.Verdicts[contrast.AAANormal])
	}
	if f.Source.Tag != "p" || f.Source.Page != "https://example.com/" {
		t.Errorf("Source = %+v", f.Source)
	}

	rep := s.Finalize()
	if rep.Summary.Colours != 2 || rep.Summary.Accepted != 2 {
		t.Errorf("Summary = %+v, want 2 colours from 2 samples", rep.Summary)
	}
}

func TestAnalyzeTintedCard(t *testing.T) {
	tests := []struct {
		fg       string
		minRatio float64
	}{
		{"#000000", 18},
		{"#333333", 11},
	}
	for _, tt := range tests {
		t.Run(tt.fg, func(t *testing.T) {
			p := domtest.El("p")
			card := domtest.El("div").WithStyle("background-color", "rgba(0, 0, 0, 0.05)").Append(p)
			section := domtest.El("section").WithStyle("background-color", "rgb(255, 255, 255)").Append(card)
			domtest.NewDocument(domtest.El("html").Append(domtest.El("body").Append(section)))

			s := NewSession(Options{})
			f := analyze(t, s, Subject{Element: p, Platform: background.PlatformGeneric, Foreground: tt.fg})
			if f == nil {
				t.Fatal("Analyze() returned no finding")
			}
			if f.Background == nil || f.Background.Key() != "#f2f2f2" {
				t.Fatalf("Background = %v, want #f2f2f2", f.Background)
			}
			if *f.Ratio < tt.minRatio {
				t.Errorf("Ratio = %.2f, want at least %.0f", *f.Ratio, tt.minRatio)
			}
			if f.Verdicts[contrast.AANormal] != contrast.Pass {
				t.Errorf("AA-normal = %s, want pass", f.Verdicts[contrast.AANormal])
			}
		})
	}
}

func TestAnalyzeOccludedButtonCannotDetermine(t *testing.T) {
	btn := domtest.El("button").WithBox(20, 20, 60, 20)
	modal := domtest.El("div", "modal").WithBox(0, 0, 200, 200)
	domtest.NewDocument(domtest.El("html").WithBox(0, 0, 200, 200).Append(domtest.El("body").Append(btn, modal)))

	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	s := NewSession(Options{})
	f := analyze(t, s, Subject{
		Element:    btn,
		Platform:   background.PlatformGeneric,
		Foreground: "#1e73be",
		Snapshot:   &raster.Snapshot{Image: img, DevicePixelRatio: 1},
	})
	if f == nil {
		t.Fatal("Analyze() returned no finding")
	}
	if !f.CannotDetermine || f.Ratio != nil || f.Background != nil {
		t.Errorf("finding = %+v, want cannot-determine without ratio or background", f.Finding)
	}
	if f.Method != background.MethodIndeterminate {
		t.Errorf("Method = %s, want indeterminate", f.Method)
	}

	rep := s.Finalize()
	if rep.Summary.CannotDetermine != 1 {
		t.Errorf("Summary.CannotDetermine = %d, want 1", rep.Summary.CannotDetermine)
	}
	for _, e := range rep.Colours {
		if slices.Contains(e.Roles, registry.RoleBackground) {
			t.Errorf("indeterminate background was tracked as %s", e.Hex)
		}
	}
}

// The registry is shared across pages in visiting order, so the order of
// pages changes the clusters.
func TestSessionPageOrderMatters(t *testing.T) {
	pages := map[string]string{
		"/a": "#2c3337",
		"/b": "#2c3338",
		"/c": "#2c3339",
	}

	run := func(order ...string) Report {
		s := NewSession(Options{})
		for _, url := range order {
			analyze(t, s, Subject{
				Element:    paragraphIn("rgb(255, 255, 255)"),
				Platform:   background.PlatformGeneric,
				Page:       url,
				Foreground: pages[url],
			})
		}
		return s.Finalize()
	}

	abc := run("/a", "/b", "/c")
	bac := run("/b", "/a", "/c")

	if abc.Summary.Colours != 3 {
		t.Errorf("a,b,c: %d colours, want 3", abc.Summary.Colours)
	}
	if bac.Summary.Colours != 2 {
		t.Errorf("b,a,c: %d colours, want 2", bac.Summary.Colours)
	}
	if !slices.Equal(bac.Pages, []string{"/b", "/a", "/c"}) {
		t.Errorf("Pages = %v, want visiting order", bac.Pages)
	}
	if abc.Summary.Accepted != 6 || bac.Summary.Accepted != 6 {
		t.Errorf("accepted = %d / %d, want 6", abc.Summary.Accepted, bac.Summary.Accepted)
	}
}

func TestAnalyzeInvalidForeground(t *testing.T) {
	var buf bytes.Buffer
	s := NewSession(Options{Logger: hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})})

	f := analyze(t, s, Subject{
		Element:    paragraphIn("rgb(255, 255, 255)"),
		Platform:   background.PlatformGeneric,
		Foreground: "color(display-p3 1 0 0)",
	})
	if f != nil {
		t.Errorf("Analyze() = %+v, want no finding", f)
	}
	if !strings.Contains(buf.String(), "dropping invalid colour") {
		t.Errorf("missing warning, log = %q", buf.String())
	}

	rep := s.Finalize()
	if rep.Summary.Dropped != 1 || rep.Summary.Accepted != 1 {
		t.Errorf("Summary = %+v, want 1 dropped and the background accepted", rep.Summary)
	}
}

func TestAnalyzeInvisibleText(t *testing.T) {
	s := NewSession(Options{})
	f := analyze(t, s, Subject{
		Element:    paragraphIn("rgb(255, 255, 255)"),
		Platform:   background.PlatformGeneric,
		Foreground: "#ffffff",
	})
	if f != nil {
		t.Errorf("Analyze() = %+v, want no finding for identical colours", f)
	}
	if len(s.Findings()) != 0 {
		t.Errorf("Findings() = %d, want 0", len(s.Findings()))
	}
}

func TestAnalyzeTracksBorderAndFill(t *testing.T) {
	s := NewSession(Options{})
	analyze(t, s, Subject{
		Element:    paragraphIn("rgb(255, 255, 255)"),
		Platform:   background.PlatformGeneric,
		Foreground: "#000000",
		Border:     "#1e73be",
		Fill:       "transparent",
	})

	rep := s.Finalize()
	var roles []registry.Role
	for _, e := range rep.Colours {
		roles = append(roles, e.Roles...)
	}
	for _, want := range []registry.Role{registry.RoleText, registry.RoleBackground, registry.RoleBorder} {
		if !slices.Contains(roles, want) {
			t.Errorf("roles %v missing %s", roles, want)
		}
	}
	if slices.Contains(roles, registry.RoleFill) {
		t.Error("transparent fill was tracked")
	}
}

func TestAnalyzeCancelledKeepsClusters(t *testing.T) {
	s := NewSession(Options{})
	analyze(t, s, Subject{
		Element:    paragraphIn("rgb(255, 255, 255)"),
		Platform:   background.PlatformGeneric,
		Foreground: "#000000",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Analyze(ctx, Subject{
		Element:    paragraphIn("rgb(0, 0, 0)"),
		Platform:   background.PlatformGeneric,
		Foreground: "#ffffff",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Analyze() error = %v, want context.Canceled", err)
	}

	rep := s.Finalize()
	if rep.Summary.Accepted != 2 || rep.Summary.Findings != 1 {
		t.Errorf("Summary = %+v, want the first element's 2 samples and 1 finding", rep.Summary)
	}
}

func TestFinalizeRepeatable(t *testing.T) {
	s := NewSession(Options{})
	for _, fg := range []string{"#2c3338", "#2c3337", "#2c3337"} {
		p := paragraphIn("rgb(255, 255, 255)")
		analyze(t, s, Subject{Element: p, Platform: background.PlatformGeneric, Foreground: fg})
	}

	first := s.Finalize()
	second := s.Finalize()
	if len(first.Colours) != len(second.Colours) {
		t.Fatalf("colour count changed: %d, %d", len(first.Colours), len(second.Colours))
	}
	for i := range first.Colours {
		a, b := first.Colours[i], second.Colours[i]
		if a.Hex != b.Hex || !slices.Equal(a.Merged, b.Merged) {
			t.Errorf("entry %d changed: %s %v -> %s %v", i, a.Hex, a.Merged, b.Hex, b.Merged)
		}
	}
	if first.Colours[0].Hex != colour.MustParse("#2c3337").Key() {
		t.Errorf("canonical = %s, want majority #2c3337", first.Colours[0].Hex)
	}
	for _, f := range first.Findings {
		if f.TextEntry != "#2c3337" || f.BackgroundEntry != "#ffffff" {
			t.Errorf("finding %s entries = %s on %s, want #2c3337 on #ffffff", f.Foreground.Key(), f.TextEntry, f.BackgroundEntry)
		}
	}
}
