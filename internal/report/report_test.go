package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/sitehue/internal/audit"
	"github.com/jmylchreest/sitehue/internal/background"
	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/contrast"
	"github.com/jmylchreest/sitehue/internal/registry"
)

func sampleReport(t *testing.T) audit.Report {
	t.Helper()
	bg := colour.MustParse("#e9f0f5")

	known, err := contrast.Evaluate(colour.MustParse("#3c434a"), &bg, contrast.UnknownSize())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	unknown, err := contrast.Evaluate(colour.MustParse("#1e73be"), nil, contrast.UnknownSize())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	return audit.Report{
		Pages: []string{"https://example.com/", "https://example.com/about"},
		Summary: audit.Summary{
			Pages: 2, Elements: 2, Colours: 3, Accepted: 3, Findings: 2, CannotDetermine: 1,
		},
		Colours: []registry.Entry{
			{
				Hex:    "#3c434a",
				Count:  1,
				Roles:  []registry.Role{registry.RoleText},
				Merged: []string{"#3c434b"},
				Instances: []registry.Sample{{
					Original: colour.MustParse("#3c434b"),
					Role:     registry.RoleText,
					Source:   registry.Source{Page: "https://example.com/", Selector: "main > p", Tag: "p"},
					Method:   "computed-style",
				}},
			},
			{Hex: "#e9f0f5", Count: 1, Roles: []registry.Role{registry.RoleBackground}},
			{Hex: "#1e73be", Count: 1, Roles: []registry.Role{registry.RoleText}},
		},
		Findings: []audit.Finding{
			{
				Finding: known,
				Source:  registry.Source{Page: "https://example.com/", Selector: "main > p", Tag: "p"},
				Method:  background.MethodDOMWalk,
			},
			{
				Finding:               unknown,
				Source:                registry.Source{Page: "https://example.com/about", Selector: "div.hero > a.btn", Tag: "a"},
				Method:                background.MethodIndeterminate,
				BackgroundExplanation: "no background could be determined (raster: sample point is occluded)",
			},
		},
	}
}

func TestWriteFileCompressed(t *testing.T) {
	rep := sampleReport(t)
	path := filepath.Join(t.TempDir(), "report.json.xz")

	if err := WriteFile(path, rep); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(raw, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}) {
		t.Fatalf("report is not an xz stream: % x", raw[:6])
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got.Findings) != 2 || got.Findings[1].Background != nil || got.Findings[1].Ratio != nil {
		t.Errorf("indeterminate finding did not survive: %+v", got.Findings)
	}
	if got.Findings[0].Verdicts[contrast.AAANormal] != contrast.Pass {
		t.Errorf("AAA-normal verdict = %s, want pass", got.Findings[0].Verdicts[contrast.AAANormal])
	}
	if got.Colours[0].Instances[0].Original.Key() != "#3c434b" {
		t.Errorf("instance original = %s, want #3c434b", got.Colours[0].Instances[0].Original.Key())
	}
}

func TestWriteJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport(t)); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var doc struct {
		Colours []struct {
			Hex    string   `json:"hex"`
			Merged []string `json:"merged"`
		} `json:"colours"`
		Findings []map[string]any `json:"findings"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if doc.Colours[0].Hex != "#3c434a" || doc.Colours[0].Merged[0] != "#3c434b" {
		t.Errorf("colours[0] = %+v", doc.Colours[0])
	}
	undetermined := doc.Findings[1]
	if undetermined["background"] != nil || undetermined["ratio"] != nil {
		t.Errorf("indeterminate finding must encode null background and ratio, got %v / %v",
			undetermined["background"], undetermined["ratio"])
	}
	if undetermined["cannot_determine"] != true {
		t.Errorf("cannot_determine = %v, want true", undetermined["cannot_determine"])
	}
	if _, ok := undetermined["source"]; !ok {
		t.Error("finding is missing its source")
	}
}

func TestReadFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(plain, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(plain); err == nil {
		t.Error("ReadFile() expected error for invalid JSON")
	}

	fake := filepath.Join(dir, "bad.json.xz")
	if err := os.WriteFile(fake, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(fake); err == nil {
		t.Error("ReadFile() expected error for a non-xz .xz file")
	}
}

func TestWriteText(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	if err := WriteText(&buf, rep, TextOptions{}); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Pages: 2", "Cannot determine: 1",
		"#3c434a", "#3c434b", "#e9f0f5",
		"main > p", "8.71:1", "pass",
		"div.hero > a.btn", "unknown", "n/a", "cannot-determine", "indeterminate",
		"https://example.com/about",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteText() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("WriteText() emitted ANSI escapes without Colour")
	}
}

func TestWriteTextFailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport(t), TextOptions{FailuresOnly: true, Colour: true}); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "main > p") {
		t.Error("passing finding listed with FailuresOnly")
	}
	if !strings.Contains(out, "div.hero > a.btn") {
		t.Error("cannot-determine finding missing with FailuresOnly")
	}
	if !strings.Contains(out, "\x1b[48;2;") {
		t.Error("Colour did not add swatches")
	}
}
