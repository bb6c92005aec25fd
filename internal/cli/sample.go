package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/dom"
	"github.com/jmylchreest/sitehue/internal/image"
	"github.com/jmylchreest/sitehue/internal/raster"
	httputil "github.com/jmylchreest/sitehue/internal/util/http"
)

type sampleOptions struct {
	rect string
	dpr  float64
	grid int
}

func newSampleCmd(g *globalOptions) *cobra.Command {
	opts := &sampleOptions{}
	cmd := &cobra.Command{
		Use:   "sample <image>",
		Short: "Sample the rendered colour of a region of a screenshot",
		Long: `Read the median colour of an N×N grid at the centre of a region of a saved
screenshot, the same way an audit samples a live page. The image may be a
file or an http(s) URL (PNG, JPEG, GIF or WebP).

The region is given in CSS pixels; --dpr maps it onto a high-density
screenshot. No occlusion check is made.

Examples:
  sitehue sample page.png --rect 120,340,200,48
  sitehue sample --dpr 2 --grid 7 page@2x.webp --rect 0,0,1280,80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd.Context(), cmd.OutOrStdout(), g, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.rect, "rect", "", "region as x,y,width,height in CSS pixels")
	cmd.Flags().Float64Var(&opts.dpr, "dpr", 1, "device pixel ratio of the screenshot")
	cmd.Flags().IntVar(&opts.grid, "grid", 0, "sampling grid size (0 uses the config value)")
	_ = cmd.MarkFlagRequired("rect")
	return cmd
}

func runSample(ctx context.Context, w io.Writer, g *globalOptions, opts *sampleOptions, location string) error {
	rect, err := parseRect(opts.rect)
	if err != nil {
		return err
	}
	if opts.dpr <= 0 {
		return fmt.Errorf("dpr must be positive, got %v", opts.dpr)
	}
	grid := opts.grid
	if grid <= 0 {
		cfg, err := g.loadConfig()
		if err != nil {
			return err
		}
		grid = cfg.Analysis.SampleGrid
	}
	if ctx == nil {
		ctx = context.Background()
	}

	img, err := image.NewSmartLoader(httputil.FetchOptions{}).Load(ctx, location)
	if err != nil {
		return err
	}

	cx, cy := rect.Centre()
	c, err := raster.NewSampler(grid).SampleAt(&raster.Snapshot{Image: img, DevicePixelRatio: opts.dpr}, cx, cy)
	if err != nil {
		return fmt.Errorf("sample at (%g, %g): %w", cx, cy, err)
	}

	out := c.Key()
	if swatchesFor(w) {
		out = colour.FormatColourWithPreview(c, 4)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// parseRect reads "x,y,width,height".
func parseRect(s string) (dom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return dom.Rect{}, fmt.Errorf("invalid rect %q: want x,y,width,height", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dom.Rect{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		v[i] = f
	}
	r := dom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Empty() {
		return dom.Rect{}, fmt.Errorf("invalid rect %q: width and height must be positive", s)
	}
	return r, nil
}
