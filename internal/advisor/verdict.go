package advisor

import "strings"

// Verdict is the three-way judgment extracted from an advisor's output,
// or Unknown when no token was found.
type Verdict string

const (
	VerdictGreen   Verdict = "GREEN"
	VerdictYellow  Verdict = "YELLOW"
	VerdictRed     Verdict = "RED"
	VerdictUnknown Verdict = "UNKNOWN"
)

// ExtractVerdict scans free-text advisor output for the first occurrence of
// GREEN, YELLOW or RED (case-sensitive, by position). This is a best-effort
// heuristic: the instruction templates ask for exactly one token, but the
// model is not guaranteed to comply, so absence falls back to Unknown.
func ExtractVerdict(text string) Verdict {
	best := VerdictUnknown
	bestIdx := -1
	for _, v := range []Verdict{VerdictGreen, VerdictYellow, VerdictRed} {
		idx := strings.Index(text, string(v))
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx {
			best = v
			bestIdx = idx
		}
	}
	return best
}

// Overall is the run-level recommendation derived from the panel's verdicts.
type Overall struct {
	Verdict string `json:"verdict"`
	Label   string `json:"label"`
}

const (
	OverallGo      = "GO"
	OverallCaution = "PROCEED WITH CAUTION"
	OverallNoGo    = "NO-GO"
)

// Aggregate reduces the panel's verdicts to one recommendation. Any RED
// blocks; two or more YELLOW means caution; everything else is a go.
// Unknown verdicts count as neither RED nor YELLOW, so a run degraded by
// upstream failures can still aggregate to GO.
func Aggregate(verdicts []Verdict) Overall {
	var red, yellow int
	for _, v := range verdicts {
		switch v {
		case VerdictRed:
			red++
		case VerdictYellow:
			yellow++
		}
	}

	switch {
	case red > 0:
		return Overall{Verdict: OverallNoGo, Label: "Major concerns need addressing"}
	case yellow >= 2:
		return Overall{Verdict: OverallCaution, Label: "Address the yellow flags first"}
	default:
		return Overall{Verdict: OverallGo, Label: "Build it!"}
	}
}
