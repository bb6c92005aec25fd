package registry

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitehue/internal/colour"
)

func mustTrack(t *testing.T, r *Registry, raw string, role Role, tag string) string {
	t.Helper()
	key, err := r.Track(raw, role, Source{Tag: tag, Selector: tag}, "computed-style")
	if err != nil {
		t.Fatalf("Track(%q) error = %v", raw, err)
	}
	return key
}

func TestTrackScenarioA(t *testing.T) {
	r := New(Options{})

	k1 := mustTrack(t, r, "#2C3337", RoleText, "h2")
	k2 := mustTrack(t, r, "#2C3338", RoleText, "p")
	k3 := mustTrack(t, r, "#2C3339", RoleText, "a")

	if k1 != "#2c3337" || k2 != "#2c3337" {
		t.Errorf("Track() keys = %s, %s, want both #2c3337", k1, k2)
	}
	if k3 != "#2c3339" {
		t.Errorf("Track(#2C3339) = %s, want new cluster #2c3339", k3)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	r.Finalize()

	table := r.Table()
	if table[0].Hex != "#2c3337" || table[0].Count != 2 {
		t.Errorf("Table()[0] = %s x%d, want #2c3337 x2", table[0].Hex, table[0].Count)
	}
	if !slices.Equal(table[0].Merged, []string{"#2c3338"}) {
		t.Errorf("Table()[0].Merged = %v, want [#2c3338]", table[0].Merged)
	}
	if table[1].Hex != "#2c3339" || table[1].Count != 1 || len(table[1].Merged) != 0 {
		t.Errorf("Table()[1] = %+v, want #2c3339 alone", table[1])
	}
}

func TestTrackPreservesOriginal(t *testing.T) {
	r := New(Options{})
	mustTrack(t, r, "#2c3337", RoleText, "h1")
	mustTrack(t, r, "rgb(44, 51, 56)", RoleBackground, "div")

	cl, ok := r.Lookup("#2c3338")
	if !ok {
		t.Fatal("Lookup(#2c3338) not found")
	}
	if cl.Key != "#2c3337" {
		t.Errorf("cluster key = %s, want #2c3337", cl.Key)
	}
	if got := cl.Instances[1].Original.Key(); got != "#2c3338" {
		t.Errorf("Instances[1].Original = %s, want #2c3338", got)
	}
}

func TestTrackRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"transparent keyword", "transparent", ErrTransparent},
		{"zero alpha", "rgba(12, 34, 56, 0)", ErrTransparent},
		{"inherit", "inherit", ErrTransparent},
		{"initial", "INITIAL", ErrTransparent},
		{"garbage", "not-a-colour", ErrInvalidColour},
		{"bad hex", "#12345", ErrInvalidColour},
		{"currentcolor unresolved", "currentColor", ErrInvalidColour},
		{"empty", "", ErrInvalidColour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{})
			if _, err := r.Track(tt.raw, RoleText, Source{}, ""); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Track(%q) error = %v, want %v", tt.raw, err, tt.wantErr)
			}
			if r.Len() != 0 || r.Accepted() != 0 {
				t.Errorf("rejected colour created a cluster (len %d, accepted %d)", r.Len(), r.Accepted())
			}
			if r.Dropped() != 1 {
				t.Errorf("Dropped() = %d, want 1", r.Dropped())
			}
		})
	}
}

func TestTrackUnknownRole(t *testing.T) {
	r := New(Options{})
	if _, err := r.Track("#1e73be", Role("shadow"), Source{}, ""); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("Track(role shadow) error = %v, want ErrUnknownRole", err)
	}
	if r.Len() != 0 || r.Dropped() != 1 {
		t.Errorf("Len() = %d, Dropped() = %d, want 0 and 1", r.Len(), r.Dropped())
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"text", RoleText, false},
		{" Background ", RoleBackground, false},
		{"BORDER", RoleBorder, false},
		{"fill", RoleFill, false},
		{"outline", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTrackInvalidColourWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Name: "registry", Output: &buf, Level: hclog.Warn})
	r := New(Options{Logger: logger})

	if _, err := r.Track("hsl(nope)", RoleBorder, Source{Selector: "div.card", Page: "https://example.com/"}, ""); err == nil {
		t.Fatal("Track() expected error")
	}

	out := buf.String()
	for _, want := range []string{"[WARN]", "dropping invalid colour", "hsl(nope)", "div.card"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}

	buf.Reset()
	if _, err := r.Track("transparent", RoleBorder, Source{}, ""); !errors.Is(err, ErrTransparent) {
		t.Fatalf("Track(transparent) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("transparent drop logged %q, want silence", buf.String())
	}
}

func TestInstanceCountInvariant(t *testing.T) {
	inputs := []string{
		"#ffffff", "#fefefe", "transparent", "#000000", "#010101", "bogus",
		"rgb(30, 115, 190)", "#1e73bf", "#1E73BE", "rgba(0,0,0,0)", "#e9f0f5",
		"#2c3337", "#2c3338", "#2c3339", "#2c333a", "red", "#ff0001",
	}

	r := New(Options{})
	valid := 0
	for _, raw := range inputs {
		if _, err := r.Track(raw, RoleText, Source{}, ""); err == nil {
			valid++
		}
	}

	total := 0
	for _, cl := range r.Clusters() {
		total += cl.Count()
	}
	if total != valid || r.Accepted() != valid {
		t.Errorf("instances = %d, accepted = %d, want %d", total, r.Accepted(), valid)
	}
	if r.Accepted()+r.Dropped() != len(inputs) {
		t.Errorf("accepted + dropped = %d, want %d", r.Accepted()+r.Dropped(), len(inputs))
	}

	r.Finalize()
	total = 0
	for _, e := range r.Table() {
		total += e.Count
	}
	if total != valid {
		t.Errorf("table instances after Finalize() = %d, want %d", total, valid)
	}
}

// First-match clustering depends on arrival order: #2c3338 sits within the
// threshold of both neighbours, which are not within it of each other.
func TestTrackOrderDependence(t *testing.T) {
	tests := []struct {
		name         string
		order        []string
		wantClusters int
	}{
		{"outer first", []string{"#2c3337", "#2c3338", "#2c3339"}, 2},
		{"middle first", []string{"#2c3338", "#2c3337", "#2c3339"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{})
			for _, raw := range tt.order {
				mustTrack(t, r, raw, RoleText, "p")
			}
			if r.Len() != tt.wantClusters {
				t.Errorf("Len() = %d, want %d", r.Len(), tt.wantClusters)
			}
		})
	}
}

func TestTrackFirstMatchNotBestMatch(t *testing.T) {
	r := New(Options{Threshold: 5.5})
	mustTrack(t, r, "#2c3337", RoleText, "p")
	mustTrack(t, r, "#2c333b", RoleText, "p") // distance ~6.7 from the first: new cluster

	// #2c333a is closer to #2c333b but still within 5.5 of #2c3337, which
	// was created first.
	c := colour.MustParse("#2c333a")
	if d1, d2 := colour.Distance(c, colour.MustParse("#2c3337")), colour.Distance(c, colour.MustParse("#2c333b")); !(d2 < d1 && d1 < 5.5) {
		t.Fatalf("fixture distances %.2f, %.2f do not exercise first-match", d1, d2)
	}
	if key := mustTrack(t, r, "#2c333a", RoleText, "p"); key != "#2c3337" {
		t.Errorf("Track(#2c333a) = %s, want first cluster #2c3337", key)
	}
}

func TestTrackAlphaKeepsClustersApart(t *testing.T) {
	r := New(Options{})
	mustTrack(t, r, "#2c3337", RoleText, "p")
	if key := mustTrack(t, r, "rgba(44, 51, 55, 0.5)", RoleText, "p"); key != "#2c333780" {
		t.Errorf("Track(translucent) = %s, want its own cluster #2c333780", key)
	}
}

func TestAliasRoutingAfterFinalize(t *testing.T) {
	r := New(Options{})
	mustTrack(t, r, "#2c3338", RoleText, "p")
	mustTrack(t, r, "#2c3337", RoleText, "h1")
	mustTrack(t, r, "#2c3339", RoleText, "p")
	r.Finalize()

	cl := r.Clusters()[0]
	if cl.Key != "#2c3337" {
		t.Fatalf("canonical key = %s, want #2c3337", cl.Key)
	}

	// #2c3339 is beyond the threshold of the new key but was already routed
	// into this cluster, so it must keep landing there.
	if key := mustTrack(t, r, "#2c3339", RoleText, "p"); key != "#2c3337" {
		t.Errorf("Track(#2c3339) after Finalize() = %s, want #2c3337", key)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if r.Finalized() {
		t.Error("Finalized() = true after a new sample")
	}
}
