package matching

import (
	"testing"

	"coldchain-freight-api-server/internal/models"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genCarrier() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(models.VettingApproved, models.VettingPending, models.VettingUnderReview, models.VettingRejected),
		gen.Float64Range(-25, 5),  // equipment min
		gen.Float64Range(-5, 25),  // equipment max
		gen.Float64Range(0, 2000), // capacity
		gen.Float64Range(30, 45),  // latitude
		gen.Float64Range(0, 5),    // rating
		gen.IntRange(0, 10),       // years
		gen.IntRange(0, 4),        // certifications
	).Map(func(v []interface{}) models.Carrier {
		rating := v[5].(float64)
		c := models.Carrier{
			VettingStatus: v[0].(models.VettingStatus),
			Equipment:     []models.Equipment{reefer(v[1].(float64), v[2].(float64), v[3].(float64))},
			Address:       models.Location{Lat: v[4].(float64), Lng: -74},
			Rating:        &rating,

			FoodHandlingExperience: v[6].(int),
		}
		for i := 0; i < v[7].(int); i++ {
			c.Certifications = append(c.Certifications, "CERT")
		}
		return c
	})
}

func TestRankProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("only approved carriers with positive scores, best first", prop.ForAll(
		func(carriers []models.Carrier) bool {
			got := Rank(chilledLoad(), carriers)
			for i, m := range got {
				if m.Carrier.VettingStatus != models.VettingApproved {
					return false
				}
				if m.Score <= 0 || m.Score > 100 {
					return false
				}
				if i > 0 && got[i-1].Score < m.Score {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genCarrier()),
	))

	properties.Property("ties keep input order", prop.ForAll(
		func(carriers []models.Carrier) bool {
			for i := range carriers {
				carriers[i].ID = string(rune('a'+i%26)) + string(rune('0'+i/26))
			}
			position := make(map[string]int, len(carriers))
			for i, c := range carriers {
				position[c.ID] = i
			}
			got := Rank(chilledLoad(), carriers)
			for i := 1; i < len(got); i++ {
				if got[i-1].Score == got[i].Score && position[got[i-1].Carrier.ID] > position[got[i].Carrier.ID] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genCarrier()),
	))

	properties.TestingRun(t)
}
