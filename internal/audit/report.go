package audit

import (
	"time"

	"github.com/jmylchreest/sitehue/internal/colour"
	"github.com/jmylchreest/sitehue/internal/contrast"
	"github.com/jmylchreest/sitehue/internal/registry"
)

// Summary counts the outcome of a run.
type Summary struct {
	Pages           int `json:"pages"`
	Elements        int `json:"elements"`
	Colours         int `json:"colours"`
	Accepted        int `json:"accepted_samples"`
	Dropped         int `json:"dropped_samples"`
	Findings        int `json:"findings"`
	FailingAA       int `json:"failing_aa"`
	VerifyManually  int `json:"verify_manually"`
	CannotDetermine int `json:"cannot_determine"`
}

// Report is the finalised output of a Session.
type Report struct {
	Started  time.Time        `json:"started"`
	Finished time.Time        `json:"finished"`
	Pages    []string         `json:"pages"`
	Summary  Summary          `json:"summary"`
	Colours  []registry.Entry `json:"colours"`
	Findings []Finding        `json:"findings"`
}

// Finalize runs canonical selection over the registry and builds the
// report. Calling it again without new samples returns the same colours.
func (s *Session) Finalize() Report {
	if !s.registry.Finalized() {
		s.registry.Finalize()
	}

	findings := s.Findings()
	for i := range findings {
		f := &findings[i]
		f.TextEntry = s.paletteKey(f.Foreground)
		if f.Background != nil {
			f.BackgroundEntry = s.paletteKey(*f.Background)
		}
	}

	rep := Report{
		Started:  s.started,
		Finished: time.Now(),
		Pages:    append([]string(nil), s.pages...),
		Colours:  s.registry.Table(),
		Findings: findings,
	}
	rep.Summary = Summary{
		Pages:    len(s.pages),
		Elements: s.elements,
		Colours:  len(rep.Colours),
		Accepted: s.registry.Accepted(),
		Dropped:  s.registry.Dropped(),
		Findings: len(rep.Findings),
	}
	for _, f := range rep.Findings {
		switch {
		case f.CannotDetermine:
			rep.Summary.CannotDetermine++
		case f.FailsAA():
			rep.Summary.FailingAA++
		}
		if f.Verdicts[contrast.AALarge] == contrast.VerifyManually {
			rep.Summary.VerifyManually++
		}
	}

	s.logger.Debug("session finalised", "pages", rep.Summary.Pages, "colours", rep.Summary.Colours, "findings", rep.Summary.Findings)
	return rep
}

// paletteKey returns the canonical key of the cluster holding c, or "" when
// c was never tracked.
func (s *Session) paletteKey(c colour.RGBA) string {
	if cl, ok := s.registry.Lookup(c.Key()); ok {
		return cl.Key
	}
	return ""
}
