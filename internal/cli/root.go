// Package cli provides the command-line interface for sitehue.
package cli

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitehue/internal/config"
	"github.com/jmylchreest/sitehue/internal/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "sitehue",
		Short: "Audit the colours and text contrast of websites",
		Long: `sitehue loads web pages in a headless browser, works out the background
actually behind each piece of text, and reports the site's palette together
with WCAG contrast verdicts.

Near-identical colours (anti-aliasing, rounding drift) are merged into one
palette entry, and each entry is keyed by the variant the site uses most.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (YAML)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress non-error output")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		newAuditCmd(g),
		newContrastCmd(g),
		newDistanceCmd(),
		newSampleCmd(g),
		newDetectCmd(g),
		newReportCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// logger builds the run's logger from the verbosity flags.
func (g *globalOptions) logger() hclog.Logger {
	level := hclog.Warn
	switch {
	case g.verbose:
		level = hclog.Debug
	case g.quiet:
		level = hclog.Error
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "sitehue",
		Output: os.Stderr,
		Level:  level,
		Color:  hclog.AutoColor,
	})
}

func (g *globalOptions) loadConfig() (*config.Config, error) {
	return config.Load(g.configPath)
}
