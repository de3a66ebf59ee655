package scheduler

import (
	"math"

	"github.com/arnavshah/rota-scheduler/pkg/models"
)

// FairnessScore returns a percentage (0-100) representing how evenly
// shifts are distributed. 100% is perfectly fair (Standard Deviation = 0).
func FairnessScore(loads map[models.Worker]int) float64 {
	if len(loads) == 0 {
		return 100.0
	}

	var sum float64
	for _, n := range loads {
		sum += float64(n)
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(loads))

	var varianceSum float64
	for _, n := range loads {
		diff := float64(n) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(loads)))

	// 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
