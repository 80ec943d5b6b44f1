package bcsd

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-bcsd/stats"
	"github.com/aouyang1/go-bcsd/timeseries"
)

var ErrScoreIndexMismatch = errors.New("corrected and reference series do not share a timestamp index")

// NewScores computes skill scores between a corrected series and a reference
// series. Both must share the same timestamp index.
func NewScores(corrected, reference *timeseries.Series) (*stats.Scores, error) {
	if corrected == nil || reference == nil {
		return nil, stats.ErrNoSeries
	}
	if corrected.Len() != reference.Len() {
		return nil, fmt.Errorf("corrected has %d samples and reference has %d, %w",
			corrected.Len(), reference.Len(), ErrScoreIndexMismatch)
	}
	for i := range corrected.T {
		if !corrected.T[i].Equal(reference.T[i]) {
			return nil, fmt.Errorf("at index %d, %w", i, ErrScoreIndexMismatch)
		}
	}
	return stats.NewScores(corrected.Y, reference.Y)
}
