package rules

import (
	"fmt"

	"github.com/felixgeelhaar/complyscan/internal/check"
)

// presence is an L1 rule: at least one file matching patterns must exist
type presence struct {
	meta     check.Meta
	what     string
	fix      string
	patterns []string
}

func (p *presence) Meta() check.Meta { return p.meta }

func (p *presence) Check(fs check.FileSet) []check.Verdict {
	matches := fs.Match(p.patterns...)
	if len(matches) == 0 {
		return []check.Verdict{
			check.Fail(p.meta.ID, fmt.Sprintf("no %s found", p.what), p.meta.Severity).WithFix(p.fix),
		}
	}
	return []check.Verdict{
		check.Pass(p.meta.ID, fmt.Sprintf("%s found: %s", p.what, matches[0].Path)).At(matches[0].Path, 0),
	}
}
