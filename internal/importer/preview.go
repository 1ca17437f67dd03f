package importer

import "github.com/crewdeck/roster/internal/roster"

// Sample limits for preview display.
const (
	maxValidSamples   = 5
	maxInvalidSamples = 20
)

// Summary is the preview projection of a partition: counts plus bounded
// samples of each side. Pure read, no mutation, no failure modes.
type Summary struct {
	TotalValid     int                    `json:"totalValid"`
	TotalInvalid   int                    `json:"totalInvalid"`
	ValidSamples   []roster.AthleteParams `json:"validSamples"`
	InvalidSamples []InvalidRow           `json:"invalidSamples"`
}

// Summarize builds the import preview for a partition: total counts and the
// first few rows of each partition for display.
func Summarize(p Partition) Summary {
	s := Summary{
		TotalValid:   len(p.Valid),
		TotalInvalid: len(p.Invalid),
	}

	n := len(p.Valid)
	if n > maxValidSamples {
		n = maxValidSamples
	}
	if n > 0 {
		s.ValidSamples = p.Valid[:n]
	}

	n = len(p.Invalid)
	if n > maxInvalidSamples {
		n = maxInvalidSamples
	}
	if n > 0 {
		s.InvalidSamples = p.Invalid[:n]
	}

	return s
}
