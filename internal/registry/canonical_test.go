package registry

import (
	"slices"
	"strings"
	"testing"
)

// A button colour and a paragraph colour, one sample each and within the
// merge threshold, canonicalise to the button's colour.
func TestFinalizeScenarioB(t *testing.T) {
	r := New(Options{})
	mustTrack(t, r, "#1e73be", RoleText, "p")
	if _, err := r.Track("#1e73bf", RoleBackground, Source{Tag: "a", ButtonLike: true}, "raster"); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	r.Finalize()

	cl := r.Clusters()[0]
	if cl.Key != "#1e73bf" {
		t.Errorf("canonical key = %s, want button colour #1e73bf", cl.Key)
	}
	if !slices.Equal(cl.Merged.Values(), []string{"#1e73be"}) {
		t.Errorf("Merged = %v, want [#1e73be]", cl.Merged.Values())
	}
	if cl.Instances[0].Original.Key() != "#1e73be" {
		t.Errorf("Finalize() rewrote an instance original to %s", cl.Instances[0].Original.Key())
	}
}

func TestFinalizeSelection(t *testing.T) {
	type obs struct {
		raw string
		tag string
	}
	tests := []struct {
		name    string
		samples []obs
		want    string
	}{
		{
			name:    "majority beats importance",
			samples: []obs{{"#2c3337", "h1"}, {"#2c3338", "p"}, {"#2c3338", "p"}},
			want:    "#2c3338",
		},
		{
			name:    "heading beats paragraph on tie",
			samples: []obs{{"#2c3338", "p"}, {"#2c3337", "h3"}},
			want:    "#2c3337",
		},
		{
			name:    "max score counts, not sum",
			samples: []obs{{"#2c3338", "p"}, {"#2c3338", "a"}, {"#2c3337", "h6"}, {"#2c3337", "img"}},
			want:    "#2c3337",
		},
		{
			name:    "earliest first seen on full tie",
			samples: []obs{{"#2c3338", "div"}, {"#2c3337", "section"}},
			want:    "#2c3338",
		},
		{
			name:    "unknown tags score zero",
			samples: []obs{{"#2c3338", "custom-el"}, {"#2c3337", "img"}},
			want:    "#2c3337",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{})
			for _, s := range tt.samples {
				mustTrack(t, r, s.raw, RoleText, s.tag)
			}
			if r.Len() != 1 {
				t.Fatalf("Len() = %d, want 1", r.Len())
			}
			r.Finalize()
			if got := r.Clusters()[0].Key; got != tt.want {
				t.Errorf("canonical key = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFinalizeImportanceOverride(t *testing.T) {
	r := New(Options{Importance: map[string]int{"p": 95}})
	mustTrack(t, r, "#2c3337", RoleText, "h2")
	mustTrack(t, r, "#2c3338", RoleText, "p")
	r.Finalize()

	if got := r.Clusters()[0].Key; got != "#2c3338" {
		t.Errorf("canonical key = %s, want #2c3338 with p ranked 95", got)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	r := New(Options{})
	for _, raw := range []string{"#fefefe", "#ffffff", "#ffffff", "#000000", "#010101", "#010101", "#2c3338", "#2c3337"} {
		mustTrack(t, r, raw, RoleBackground, "div")
	}

	r.Finalize()
	first := snapshotKeys(r)
	r.Finalize()
	second := snapshotKeys(r)

	if !slices.Equal(first, second) {
		t.Errorf("second Finalize() changed clusters:\n%v\n%v", first, second)
	}
	for _, cl := range r.Clusters() {
		if cl.Merged.Has(cl.Key) {
			t.Errorf("cluster %s lists its own key as merged", cl.Key)
		}
	}
}

func snapshotKeys(r *Registry) []string {
	var out []string
	for _, cl := range r.Clusters() {
		out = append(out, cl.Key+"="+strings.Join(cl.Merged.Values(), ","))
	}
	return out
}

func TestTableOrderAndRoles(t *testing.T) {
	r := New(Options{})
	mustTrack(t, r, "#e9f0f5", RoleBackground, "section")
	mustTrack(t, r, "#3c434a", RoleText, "p")
	mustTrack(t, r, "#3c434a", RoleText, "h2")
	mustTrack(t, r, "#3c434a", RoleBorder, "div")
	mustTrack(t, r, "#000000", RoleText, "p")
	r.Finalize()

	table := r.Table()
	var hexes []string
	for _, e := range table {
		hexes = append(hexes, e.Hex)
	}
	if want := []string{"#3c434a", "#000000", "#e9f0f5"}; !slices.Equal(hexes, want) {
		t.Errorf("Table() order = %v, want %v", hexes, want)
	}
	if want := []Role{RoleText, RoleBorder}; !slices.Equal(table[0].Roles, want) {
		t.Errorf("Table()[0].Roles = %v, want %v", table[0].Roles, want)
	}
	if len(table[0].Instances) != 3 {
		t.Errorf("Table()[0].Instances = %d, want 3", len(table[0].Instances))
	}
}
