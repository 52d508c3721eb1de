package nearby

import (
	"sort"

	"github.com/ukydev/placenotes/internal/models"
)

// Rank pairs every candidate with its distance from reference and orders the
// result nearest first. Places at exactly the same distance keep their input
// order. A nil reference or an empty candidate set yields an empty slice.
func Rank(reference *models.Location, candidates []models.Place) []models.RankedPlace {
	if reference == nil || len(candidates) == 0 {
		return []models.RankedPlace{}
	}

	ranked := make([]models.RankedPlace, len(candidates))
	for i, p := range candidates {
		d := Distance(*reference, p.Location)
		ranked[i] = models.RankedPlace{
			Place:          p,
			DistanceMeters: d,
			DistanceText:   FormatDistance(d),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})
	return ranked
}
