// Package report writes audit reports as JSON (optionally xz-compressed) or
// as terminal tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/sitehue/internal/audit"
	"github.com/jmylchreest/sitehue/internal/security"
)

// MaxReportBytes bounds how much JSON ReadFile will decompress.
const MaxReportBytes = 256 * 1024 * 1024

// WriteJSON encodes rep as indented JSON.
func WriteJSON(w io.Writer, rep audit.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes rep as JSON to path, xz-compressed when path ends in .xz.
func WriteFile(path string, rep audit.Report) (err error) {
	f, err := os.Create(path) // #nosec G304 - Output path chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	if !isCompressed(path) {
		return WriteJSON(f, rep)
	}

	xzw, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if err := WriteJSON(xzw, rep); err != nil {
		return err
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return nil
}

// ReadFile loads a report written by WriteFile.
func ReadFile(path string) (audit.Report, error) {
	var rep audit.Report

	f, err := os.Open(path) // #nosec G304 - Report path chosen by the user
	if err != nil {
		return rep, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(path) {
		xzr, err := xz.NewReader(f)
		if err != nil {
			return rep, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	}

	if err := json.NewDecoder(security.NewLimitedReader(r, MaxReportBytes)).Decode(&rep); err != nil {
		return rep, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return rep, nil
}

func isCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xz")
}
