package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/sitehue/internal/audit"
	"github.com/jmylchreest/sitehue/internal/background"
	"github.com/jmylchreest/sitehue/internal/browser"
	"github.com/jmylchreest/sitehue/internal/config"
	"github.com/jmylchreest/sitehue/internal/contrast"
	"github.com/jmylchreest/sitehue/internal/raster"
	"github.com/jmylchreest/sitehue/internal/report"
	"github.com/jmylchreest/sitehue/internal/security"
	"github.com/jmylchreest/sitehue/internal/util/imagecache"
)

type auditOptions struct {
	platform     string
	raster       bool
	format       string
	output       string
	failuresOnly bool
	allowPrivate bool
	selector     string
	maxElements  int
	browserURL   string
	noProgress   bool
	snapshotDir  string
}

func newAuditCmd(g *globalOptions) *cobra.Command {
	opts := &auditOptions{}
	cmd := &cobra.Command{
		Use:   "audit <url>...",
		Short: "Audit the colours and contrast of one or more pages",
		Long: `Load each page in a headless browser, resolve the background behind every
text element, and report the site palette with WCAG contrast verdicts.

Pages are analysed in argument order into one shared palette, so a colour
first seen on an earlier page anchors its cluster for the whole site.

Examples:
  # Audit a single page
  sitehue audit https://example.com/

  # Audit several pages of one site and keep a compressed JSON report
  sitehue audit -f json -o report.json.xz https://example.com/ https://example.com/about

  # Force the Squarespace detection chain and sample the rendered raster
  sitehue audit --platform squarespace --raster https://example.squarespace.com/

  # Only list elements failing AA or with an undeterminable background
  sitehue audit --failures-only https://example.com/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, g, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.platform, "platform", "auto", "site platform (auto, wordpress, squarespace, wix, shopify, webflow, generic)")
	f.BoolVar(&opts.raster, "raster", false, "capture a full-page screenshot for raster sampling")
	f.StringVarP(&opts.format, "format", "f", "", "output format (table, json)")
	f.StringVarP(&opts.output, "output", "o", "", "output file; a .xz suffix compresses JSON (default: stdout)")
	f.BoolVar(&opts.failuresOnly, "failures-only", false, "list only AA failures and undeterminable backgrounds")
	f.BoolVar(&opts.allowPrivate, "allow-private", false, "allow localhost and private network addresses")
	f.StringVar(&opts.selector, "selector", "", "CSS selector for sampled elements")
	f.IntVar(&opts.maxElements, "max-elements", 0, "maximum elements sampled per page (0 uses the config value)")
	f.StringVar(&opts.browserURL, "browser-url", "", "DevTools websocket URL of a running browser")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	f.StringVar(&opts.snapshotDir, "snapshot-dir", "", "save each page's raster screenshot to this directory (implies --raster)")
	return cmd
}

// apply overlays explicitly set flags on cfg.
func (o *auditOptions) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("raster") {
		cfg.Browser.Raster = o.raster
	}
	if o.snapshotDir != "" {
		cfg.Browser.Raster = true
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("output") {
		cfg.Output.Path = o.output
	}
	if flags.Changed("selector") {
		cfg.Browser.Selector = o.selector
	}
	if flags.Changed("max-elements") {
		cfg.Browser.MaxElements = o.maxElements
	}
	if flags.Changed("browser-url") {
		cfg.Browser.RemoteURL = o.browserURL
	}
	return cfg.Validate()
}

// platformOverride returns the forced platform, or "" for auto-detection.
func (o *auditOptions) platformOverride() (background.Platform, error) {
	if o.platform == "" || o.platform == "auto" {
		return "", nil
	}
	return background.ParsePlatform(o.platform)
}

func runAudit(cmd *cobra.Command, g *globalOptions, opts *auditOptions, args []string) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cmd.Flags(), cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	platform, err := opts.platformOverride()
	if err != nil {
		return err
	}
	chains, err := cfg.ChainOverrides()
	if err != nil {
		return err
	}

	pages := make([]string, 0, len(args))
	for _, arg := range args {
		u, err := security.ValidatePageURL(arg, opts.allowPrivate)
		if err != nil {
			return err
		}
		pages = append(pages, u.String())
	}

	logger := g.logger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := browser.Launch(ctx, browser.Config{
		RemoteURL:         cfg.Browser.RemoteURL,
		Headless:          cfg.Browser.Headless,
		Stealth:           cfg.Browser.Stealth,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            logger.Named("browser"),
	})
	if err != nil {
		return err
	}
	defer b.Close()

	sess := audit.NewSession(audit.Options{
		MergeThreshold: cfg.Analysis.MergeThreshold,
		AncestorDepth:  cfg.Analysis.AncestorDepth,
		SampleGrid:     cfg.Analysis.SampleGrid,
		Importance:     cfg.Analysis.Importance,
		Chains:         chains,
		Logger:         logger,
	})

	bar := newProgress(cmd.ErrOrStderr(), len(pages), opts.noProgress || g.quiet)
	failed := 0
	for _, page := range pages {
		bar.Describe(page)
		err := auditPage(ctx, b, sess, page, platform, cfg, opts.snapshotDir, logger)
		_ = bar.Add(1)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			// Clusters built so far stay valid; report them.
			logger.Warn("audit cancelled", "page", page)
			break
		}
		failed++
		logger.Error("page failed", "url", page, "error", err)
	}
	_ = bar.Finish()

	if failed == len(pages) {
		return fmt.Errorf("no page could be audited")
	}

	rep := sess.Finalize()
	return writeReport(cmd.OutOrStdout(), rep, cfg.Output, report.TextOptions{
		Colour:       cfg.Output.Path == "" && swatchesFor(cmd.OutOrStdout()),
		FailuresOnly: opts.failuresOnly,
	})
}

// auditPage loads one page and feeds its elements to the session.
func auditPage(ctx context.Context, b *browser.Browser, sess *audit.Session, pageURL string,
	platform background.Platform, cfg *config.Config, snapshotDir string, logger hclog.Logger,
) error {
	page, err := b.Open(ctx, pageURL)
	if err != nil {
		return err
	}
	defer page.Close()

	if platform == "" {
		platform = background.PlatformGeneric
		if html, err := page.HTML(); err == nil {
			platform = browser.DetectPlatform(html)
		} else {
			logger.Warn("platform detection failed", "url", pageURL, "error", err)
		}
	}

	var snap *raster.Snapshot
	if cfg.Browser.Raster {
		if snap, err = page.Snapshot(); err != nil {
			logger.Warn("raster capture failed", "url", pageURL, "error", err)
			snap = nil
		}
	}
	if snap != nil && snapshotDir != "" {
		path, err := imagecache.Save(snapshotDir, pageURL, snap.Image)
		if err != nil {
			logger.Warn("snapshot not saved", "url", pageURL, "error", err)
		} else {
			logger.Info("snapshot saved", "url", pageURL, "path", path, "dpr", snap.DevicePixelRatio)
		}
	}

	elements, err := page.Elements(cfg.Browser.Selector, cfg.Browser.MaxElements)
	if err != nil {
		return err
	}
	logger.Info("analysing page", "url", pageURL, "platform", platform, "elements", len(elements), "raster", snap != nil)

	for _, el := range elements {
		d, err := el.Describe()
		if err != nil {
			logger.Debug("skipping unreadable element", "error", err)
			continue
		}
		_, err = sess.Analyze(ctx, audit.Subject{
			Element:    el,
			Platform:   platform,
			Page:       pageURL,
			Section:    d.Section,
			Block:      d.Block,
			Context:    d.Text,
			Foreground: d.Colour,
			Border:     d.Border,
			Fill:       d.Fill,
			Size:       contrast.TextSizeFromCSS(d.FontSize, d.FontWeight),
			Snapshot:   snap,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func newProgress(w io.Writer, pages int, hidden bool) *progressbar.ProgressBar {
	if hidden {
		w = io.Discard
	}
	return progressbar.NewOptions(pages,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("auditing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// writeReport writes rep to the configured destination.
func writeReport(stdout io.Writer, rep audit.Report, out config.OutputConfig, opts report.TextOptions) error {
	if out.Path == "" {
		if out.Format == "json" {
			return report.WriteJSON(stdout, rep)
		}
		return report.WriteText(stdout, rep, opts)
	}

	if out.Format == "json" {
		return report.WriteFile(out.Path, rep)
	}
	f, err := os.Create(out.Path) // #nosec G304 - Output path chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := report.WriteText(f, rep, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
