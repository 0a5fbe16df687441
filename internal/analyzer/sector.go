package analyzer

import (
	"fmt"

	"FnoSentinel/internal/model"
)

// sectorContribution scales the flow score by the sector-strength multiplier.
func sectorContribution(flowScore, multiplier float64) model.Contribution {
	c := model.Contribution{Name: ContribSector, Score: flowScore * (multiplier - 1)}
	switch {
	case multiplier > 1.2:
		c.Signals = []string{"HOT_SECTOR"}
		c.Reasoning = fmt.Sprintf("hot sector (x%.2f)", multiplier)
	case multiplier > 1.1:
		c.Signals = []string{"STRONG_SECTOR"}
		c.Reasoning = fmt.Sprintf("strong sector (x%.2f)", multiplier)
	}
	return c
}
