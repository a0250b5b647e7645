// Package matching ranks approved carriers for a load.
package matching

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"coldchain-freight-api-server/internal/models"
)

const (
	equipmentPoints = 40

	nearbyMiles    = 50
	nearbyPoints   = 20
	moderateMiles  = 200
	moderatePoints = 10

	temperatureBuffer     = 2.0
	fullTemperaturePoints = 20
	partialTempPoints     = 10

	experiencedYears = 5
	experiencePoints = 5
	multiCertCount   = 2
	multiCertPoints  = 5

	// Equipment must hold at least this share of the load's volume.
	capacityThreshold = 0.8
)

// Store is the part of the record store matching reads from.
type Store interface {
	GetLoad(ctx context.Context, id string) (models.Load, error)
	ListCarriers(ctx context.Context) ([]models.Carrier, error)
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// FindMatches ranks every approved carrier against the load.
func (e *Engine) FindMatches(ctx context.Context, loadID string) ([]models.MatchScore, error) {
	load, err := e.store.GetLoad(ctx, loadID)
	if err != nil {
		return nil, fmt.Errorf("matching: %w", err)
	}
	carriers, err := e.store.ListCarriers(ctx)
	if err != nil {
		return nil, fmt.Errorf("matching: list carriers: %w", err)
	}
	return Rank(load, carriers), nil
}

// Rank scores the approved carriers and returns those scoring above zero,
// best first. Ties keep the order carriers were given in.
func Rank(load models.Load, carriers []models.Carrier) []models.MatchScore {
	matches := []models.MatchScore{}
	for _, c := range carriers {
		if c.VettingStatus != models.VettingApproved {
			continue
		}
		if m := Score(load, c); m.Score > 0 {
			matches = append(matches, m)
		}
	}
	slices.SortStableFunc(matches, func(a, b models.MatchScore) int {
		return b.Score - a.Score
	})
	return matches
}

// Score rates one carrier against the load. Each of the five factors adds at
// most one reason, so a perfect match has exactly five; experience and
// certifications form one factor and are joined into a single line. Without
// compatible equipment the score is zero and the other factors are not
// evaluated.
func Score(load models.Load, carrier models.Carrier) models.MatchScore {
	m := models.MatchScore{Carrier: carrier, Reasons: []string{}}

	eq, ok := compatibleEquipment(load, carrier)
	if !ok {
		m.Reasons = append(m.Reasons, "No compatible equipment available")
		return m
	}
	m.Score += equipmentPoints
	m.Reasons = append(m.Reasons, fmt.Sprintf("Compatible equipment: %s (%s %s)", eq.Type, eq.Make, eq.Model))

	miles := DistanceMiles(load.Origin, carrier.Address)
	rounded := int(math.Round(miles))
	switch {
	case miles < nearbyMiles:
		m.Score += nearbyPoints
		m.Reasons = append(m.Reasons, fmt.Sprintf("Close to origin (%d miles)", rounded))
	case miles < moderateMiles:
		m.Score += moderatePoints
		m.Reasons = append(m.Reasons, fmt.Sprintf("Moderate distance to origin (%d miles)", rounded))
	default:
		m.Reasons = append(m.Reasons, fmt.Sprintf("Far from origin (%d miles)", rounded))
	}

	if eq.TemperatureRange.Covers(load.TemperatureRequirement.Band(), temperatureBuffer) {
		m.Score += fullTemperaturePoints
		m.Reasons = append(m.Reasons, "Temperature range fully compatible")
	} else {
		m.Score += partialTempPoints
		m.Reasons = append(m.Reasons, "Temperature range partially compatible")
	}

	if carrier.Rating != nil {
		r := *carrier.Rating
		switch {
		case r >= 4.5:
			m.Score += 10
			m.Reasons = append(m.Reasons, fmt.Sprintf("Excellent rating (%.1f)", r))
		case r >= 4.0:
			m.Score += 7
			m.Reasons = append(m.Reasons, fmt.Sprintf("Good rating (%.1f)", r))
		case r >= 3.5:
			m.Score += 5
			m.Reasons = append(m.Reasons, fmt.Sprintf("Average rating (%.1f)", r))
		}
	}

	// One factor, one reason line: do not split experience and certifications.
	var credentials []string
	if carrier.FoodHandlingExperience >= experiencedYears {
		m.Score += experiencePoints
		credentials = append(credentials, fmt.Sprintf("%d years experience", carrier.FoodHandlingExperience))
	}
	if n := len(carrier.Certifications); n >= multiCertCount {
		m.Score += multiCertPoints
		credentials = append(credentials, fmt.Sprintf("Multiple certifications (%d)", n))
	}
	if len(credentials) > 0 {
		m.Reasons = append(m.Reasons, strings.Join(credentials, ", "))
	}

	return m
}

// compatibleEquipment returns the first unit, in registration order, that
// holds the load's band and enough of its volume.
func compatibleEquipment(load models.Load, carrier models.Carrier) (models.Equipment, bool) {
	band := load.TemperatureRequirement.Band()
	for _, eq := range carrier.Equipment {
		if eq.TemperatureRange.Covers(band, 0) && eq.Capacity >= load.Volume*capacityThreshold {
			return eq, true
		}
	}
	return models.Equipment{}, false
}
