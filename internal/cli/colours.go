package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/contrast"
)

type contrastOptions struct {
	fontSize float64
	weight   int
	bold     bool
}

func newContrastCmd(g *globalOptions) *cobra.Command {
	opts := &contrastOptions{}
	cmd := &cobra.Command{
		Use:   "contrast <foreground> <background>",
		Short: "Check the WCAG contrast of a colour pair",
		Long: `Compute the WCAG contrast ratio of a text colour on a background and give a
verdict for each tier (AA and AAA, normal and large text).

Colours may be hex (#3c434a, #3c434a80), rgb()/rgba() or CSS colour names.
Pass "unknown" as the background to see the cannot-determine result.

Without --font-size the text size is unknown: large-text tiers then read
"verify-manually" when they pass and "fail-regardless-of-size" when they
do not.

Examples:
  sitehue contrast '#3c434a' '#e9f0f5'
  sitehue contrast --font-size 19 --bold 'rgb(30, 115, 190)' white`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContrast(cmd.OutOrStdout(), opts, args[0], args[1], swatchesFor(cmd.OutOrStdout()) && !g.quiet)
		},
	}
	cmd.Flags().Float64Var(&opts.fontSize, "font-size", 0, "text size in CSS pixels (0 means unknown)")
	cmd.Flags().IntVar(&opts.weight, "weight", 400, "font weight")
	cmd.Flags().BoolVar(&opts.bold, "bold", false, "shorthand for --weight 700")
	return cmd
}

func (o *contrastOptions) size() contrast.TextSize {
	if o.fontSize <= 0 {
		return contrast.UnknownSize()
	}
	w := o.weight
	if o.bold {
		w = max(w, contrast.BoldWeight)
	}
	return contrast.SizeOf(o.fontSize, w)
}

func runContrast(w io.Writer, opts *contrastOptions, fgRaw, bgRaw string, swatches bool) error {
	fg, err := colour.Parse(fgRaw)
	if err != nil {
		return fmt.Errorf("foreground: %w", err)
	}
	var bg *colour.RGBA
	if !strings.EqualFold(strings.TrimSpace(bgRaw), "unknown") {
		c, err := colour.Parse(bgRaw)
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
		bg = &c
	}

	f, err := contrast.Evaluate(fg, bg, opts.size())
	if err != nil {
		return err
	}

	var b strings.Builder
	if swatches && bg != nil {
		fmt.Fprintf(&b, "%s\n", colour.ColourPreviewWithText(fg, *bg, " The quick brown fox ", 21))
	}
	bgKey := "unknown"
	if bg != nil {
		bgKey = bg.Key()
	}
	fmt.Fprintf(&b, "Foreground: %s\nBackground: %s\n", fg.Key(), bgKey)
	if f.Ratio != nil {
		fmt.Fprintf(&b, "Ratio:      %.2f:1\n", *f.Ratio)
	} else {
		b.WriteString("Ratio:      n/a\n")
	}
	switch {
	case !f.TextSizeKnown:
		b.WriteString("Text size:  unknown\n")
	case f.LargeText:
		b.WriteString("Text size:  large\n")
	default:
		b.WriteString("Text size:  normal\n")
	}
	b.WriteByte('\n')
	for _, t := range contrast.Tiers() {
		fmt.Fprintf(&b, "  %-11s %-5s %s\n", t, fmt.Sprintf("%.1f", t.Threshold()), f.Verdicts[t])
	}
	if f.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", f.Explanation)
	}

	_, err = io.WriteString(w, b.String())
	return err
}

func newDistanceCmd() *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "distance <colour> <colour>",
		Short: "Show the perceptual distance between two colours",
		Long: `Print the Redmean distance between two colours and whether the palette
would merge them. Colours merge when the distance is strictly below the
threshold and their alpha values are equal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistance(cmd.OutOrStdout(), args[0], args[1], threshold)
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", colour.DefaultMergeThreshold, "merge threshold")
	return cmd
}

func runDistance(w io.Writer, aRaw, bRaw string, threshold float64) error {
	if threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", threshold)
	}
	a, err := colour.Parse(aRaw)
	if err != nil {
		return err
	}
	b, err := colour.Parse(bRaw)
	if err != nil {
		return err
	}

	d := colour.Distance(a, b)
	merge := colour.IsVisuallySimilar(a, b, threshold) && a.A == b.A
	verdict := "distinct"
	if merge {
		verdict = "merged"
	}
	_, err = fmt.Fprintf(w, "%s  %s  distance %.4f  threshold %g  %s\n", a.Key(), b.Key(), d, threshold, verdict)
	return err
}

// swatchesFor reports whether w is a colour-capable terminal.
func swatchesFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && colour.SupportsANSIColours(f)
}
