package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmylchreest/sitehue/internal/audit"
	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/contrast"
	"github.com/jmylchreest/sitehue/internal/registry"
)

// TextOptions controls table output.
type TextOptions struct {
	// Colour adds ANSI swatches.
	Colour bool
	// FailuresOnly limits the findings table to AA failures and
	// undeterminable backgrounds.
	FailuresOnly bool
}

// WriteText renders rep as a summary followed by colour and finding tables.
func WriteText(w io.Writer, rep audit.Report, opts TextOptions) error {
	var b strings.Builder
	s := rep.Summary

	fmt.Fprintf(&b, "Pages: %d  Elements: %d  Colours: %d (%d samples, %d dropped)\n",
		s.Pages, s.Elements, s.Colours, s.Accepted, s.Dropped)
	fmt.Fprintf(&b, "Findings: %d  Failing AA: %d  Verify manually: %d  Cannot determine: %d\n\n",
		s.Findings, s.FailingAA, s.VerifyManually, s.CannotDetermine)

	b.WriteString(ColourTable(rep.Colours, opts.Colour).Render())

	findings := rep.Findings
	if opts.FailuresOnly {
		findings = nil
		for _, f := range rep.Findings {
			if f.CannotDetermine || f.FailsAA() {
				findings = append(findings, f)
			}
		}
	}
	if len(findings) > 0 {
		b.WriteByte('\n')
		b.WriteString(FindingTable(findings, len(rep.Pages) > 1, opts.Colour).Render())
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ColourTable lists canonical colours.
func ColourTable(entries []registry.Entry, swatches bool) *Table {
	headers := []string{"Colour", "Count", "Roles", "Merged variants"}
	if swatches {
		headers = append([]string{""}, headers...)
	}
	t := NewTable(headers...)
	t.SetColumnMaxWidth(len(headers)-1, 40)

	for _, e := range entries {
		roles := make([]string, len(e.Roles))
		for i, r := range e.Roles {
			roles[i] = string(r)
		}
		row := []string{e.Hex, strconv.Itoa(e.Count), strings.Join(roles, ","), strings.Join(e.Merged, " ")}
		if swatches {
			row = append([]string{swatch(e.Hex)}, row...)
		}
		t.AddRow(row...)
	}
	return t
}

// FindingTable lists contrast findings with their per-tier verdicts.
func FindingTable(findings []audit.Finding, withPage, swatches bool) *Table {
	headers := []string{"Element", "Text", "Background", "Ratio", "AA", "AAA", "AA large", "AAA large", "Method"}
	if withPage {
		headers = append([]string{"Page"}, headers...)
	}
	t := NewTable(headers...)
	off := len(headers) - 9
	t.SetColumnMaxWidth(off, 40)
	if withPage {
		t.SetColumnMaxWidth(0, 30)
	}

	for _, f := range findings {
		bg := "unknown"
		if f.Background != nil {
			bg = f.Background.Key()
		}
		fg := f.Foreground.Key()
		if swatches && f.Background != nil {
			fg = colour.ColourPreviewWithText(f.Foreground, *f.Background, " Aa ", 4) + " " + fg
		}

		row := []string{
			f.Source.Selector,
			fg,
			bg,
			formatRatio(f.Ratio),
			string(f.Verdicts[contrast.AANormal]),
			string(f.Verdicts[contrast.AAANormal]),
			string(f.Verdicts[contrast.AALarge]),
			string(f.Verdicts[contrast.AAALarge]),
			string(f.Method),
		}
		if withPage {
			row = append([]string{f.Source.Page}, row...)
		}
		t.AddRow(row...)
	}
	return t
}

func formatRatio(r *float64) string {
	if r == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f:1", *r)
}

func swatch(hex string) string {
	c, err := colour.Parse(hex)
	if err != nil {
		return ""
	}
	return colour.ColourPreview(c, 4)
}
