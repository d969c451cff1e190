package services

import (
	"strings"

	"go.uber.org/zap"

	"contact-scraper/models"
	"contact-scraper/utils"
)

// Consolidate keeps one observation per NameKey: the highest Score, ties going
// to the first seen. Records without a name are dropped. Output follows the
// order in which each key was first seen.
func Consolidate(observations []models.Observation) []models.Observation {
	best := make(map[string]int, len(observations))
	out := make([]models.Observation, 0, len(observations))

	for _, o := range observations {
		key := utils.NameKey(strings.TrimSpace(o.Name))
		if key == "" {
			continue
		}
		i, seen := best[key]
		if !seen {
			best[key] = len(out)
			out = append(out, o)
			continue
		}
		if o.Score() > out[i].Score() {
			out[i] = o
		}
	}
	return out
}

// Consolidator merges a run's observations into a contact list.
type Consolidator struct {
	logger *utils.Logger
}

// NewConsolidator creates a Consolidator with the given logger.
func NewConsolidator(logger *utils.Logger) *Consolidator {
	return &Consolidator{logger: logger}
}

// Consolidate merges observations and logs the reduction.
func (c *Consolidator) Consolidate(observations []models.Observation) []models.Observation {
	contacts := Consolidate(observations)
	c.logger.Info("consolidated observations",
		zap.Int("observations", len(observations)),
		zap.Int("contacts", len(contacts)),
		zap.Int("merged", len(observations)-len(contacts)))
	return contacts
}
