package engine

import (
	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// ApplyDelta returns a copy of the scoreboard with delta added to one
// player. Scores are unbounded and may go negative.
func ApplyDelta(scores []models.PlayerScore, playerID uuid.UUID, delta int) []models.PlayerScore {
	out := append([]models.PlayerScore(nil), scores...)
	for i := range out {
		if out[i].UserID == playerID {
			out[i].Score += delta
			break
		}
	}
	return out
}

// Leader returns the highest-scoring entry.
func Leader(scores []models.PlayerScore) (models.PlayerScore, bool) {
	var (
		best  models.PlayerScore
		found bool
	)
	for _, ps := range scores {
		if !found || ps.Score > best.Score {
			best = ps
			found = true
		}
	}
	return best, found
}

// TargetReached reports whether any player hit the configured target
// score. A target of zero disables the automatic end condition.
func TargetReached(scores []models.PlayerScore, target int) (uuid.UUID, bool) {
	if target <= 0 {
		return uuid.Nil, false
	}
	for _, ps := range scores {
		if ps.Score >= target {
			return ps.UserID, true
		}
	}
	return uuid.Nil, false
}
