package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitehue/internal/background"
	"github.com/jmylchreest/sitehue/internal/browser"
	"github.com/jmylchreest/sitehue/internal/security"
	httputil "github.com/jmylchreest/sitehue/internal/util/http"
)

func newDetectCmd(g *globalOptions) *cobra.Command {
	var allowPrivate bool
	cmd := &cobra.Command{
		Use:   "detect <url|file>",
		Short: "Detect a page's site platform and show its detection chains",
		Long: `Guess which site builder produced a page from its markup, then print the
background detection chains an audit would use for text and for other
elements. The page is fetched without a browser; a local HTML file may be
given instead of a URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			chains, err := cfg.ChainOverrides()
			if err != nil {
				return err
			}
			html, err := readPage(cmd.Context(), args[0], allowPrivate, cfg.Browser.NavigationTimeout)
			if err != nil {
				return err
			}
			return printDetection(cmd.OutOrStdout(), browser.DetectPlatform(html), chains)
		},
	}
	cmd.Flags().BoolVar(&allowPrivate, "allow-private", false, "allow localhost and private network addresses")
	return cmd
}

func readPage(ctx context.Context, location string, allowPrivate bool, timeout time.Duration) (string, error) {
	if _, err := os.Stat(location); err == nil {
		data, err := os.ReadFile(location) // #nosec G304 - User-specified page file
		if err != nil {
			return "", fmt.Errorf("failed to read page: %w", err)
		}
		return string(data), nil
	}

	u, err := security.ValidatePageURL(location, allowPrivate)
	if err != nil {
		return "", err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := httputil.Fetch(ctx, u.String(), httputil.FetchOptions{
		Timeout: timeout,
		Headers: map[string]string{"Accept": "text/html"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	return string(data), nil
}

func printDetection(w io.Writer, p background.Platform, overrides map[background.Platform]background.Chains) error {
	r := background.New(background.Options{Chains: overrides})
	_, err := fmt.Fprintf(w, "Platform:     %s\nText chain:   %s\nOther chain:  %s\n",
		p, r.ChainFor(p, "p"), r.ChainFor(p, "section"))
	return err
}
