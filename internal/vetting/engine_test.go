package vetting

import (
	"context"
	"testing"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func qualifiedCarrier() models.Carrier {
	return models.Carrier{
		ID: "c1",
		Equipment: []models.Equipment{{
			ID:                 "eq1",
			Type:               models.EquipmentReeferTruck,
			Certifications:     []string{"ATP"},
			LastInspectionDate: now.AddDate(0, -1, 0),
		}},
		Insurance: models.Insurance{
			Liability:      2_000_000,
			Cargo:          250_000,
			ExpirationDate: now.AddDate(1, 0, 0),
		},
		SafetyRating:           models.SafetySatisfactory,
		FoodHandlingExperience: 6,
		Certifications:         []string{"HACCP", "SQF"},
	}
}

func TestEvaluate_AllChecksPass(t *testing.T) {
	res := Evaluate(qualifiedCarrier(), now)

	assert.Equal(t, "c1", res.CarrierID)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, models.VettingApproved, res.Status)
	assert.Equal(t, now, res.ReviewedAt)
	assert.Equal(t, "1 equipment units with valid certifications", res.Checks.Equipment.Details)
	assert.Equal(t, "Liability: $2,000,000, Cargo: $250,000", res.Checks.Insurance.Details)
	assert.Equal(t, "Satisfactory safety rating", res.Checks.Safety.Details)
	assert.Equal(t, "6 years experience with 2 certifications", res.Checks.Experience.Details)
}

func TestCheckEquipment(t *testing.T) {
	tests := []struct {
		name      string
		equipment []models.Equipment
		passed    bool
		details   string
	}{
		{
			name:    "no equipment",
			passed:  false,
			details: "No equipment registered",
		},
		{
			name: "certified but inspection too old",
			equipment: []models.Equipment{{
				Certifications:     []string{"ATP"},
				LastInspectionDate: now.Add(-181 * 24 * time.Hour),
			}},
			passed:  false,
			details: "Equipment lacks valid certifications or recent inspections",
		},
		{
			name: "recent inspection but uncertified",
			equipment: []models.Equipment{{
				LastInspectionDate: now.Add(-24 * time.Hour),
			}},
			passed:  false,
			details: "Equipment lacks valid certifications or recent inspections",
		},
		{
			name: "one valid unit among several",
			equipment: []models.Equipment{
				{LastInspectionDate: now.Add(-24 * time.Hour)},
				{Certifications: []string{"ATP"}, LastInspectionDate: now.Add(-179 * 24 * time.Hour)},
			},
			passed:  true,
			details: "2 equipment units with valid certifications",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkEquipment(models.Carrier{Equipment: tt.equipment}, now)
			assert.Equal(t, tt.passed, got.Passed)
			assert.Equal(t, tt.details, got.Details)
		})
	}
}

func TestCheckInsurance(t *testing.T) {
	tests := []struct {
		name      string
		insurance models.Insurance
		passed    bool
		details   string
	}{
		{
			name:      "expired",
			insurance: models.Insurance{Liability: 5_000_000, Cargo: 500_000, ExpirationDate: now.Add(-time.Hour)},
			passed:    false,
			details:   "Insurance has expired",
		},
		{
			name:      "expiring soon passes even with low coverage",
			insurance: models.Insurance{Liability: 10, Cargo: 10, ExpirationDate: now.Add(10 * 24 * time.Hour)},
			passed:    true,
			details:   "Insurance expires within 30 days - renewal recommended",
		},
		{
			name:      "liability too low",
			insurance: models.Insurance{Liability: 999_999, Cargo: 100_000, ExpirationDate: now.AddDate(1, 0, 0)},
			passed:    false,
			details:   "Insurance coverage below minimum requirements",
		},
		{
			name:      "cargo too low",
			insurance: models.Insurance{Liability: 1_000_000, Cargo: 99_999, ExpirationDate: now.AddDate(1, 0, 0)},
			passed:    false,
			details:   "Insurance coverage below minimum requirements",
		},
		{
			name:      "minimum coverage",
			insurance: models.Insurance{Liability: 1_000_000, Cargo: 100_000, ExpirationDate: now.AddDate(1, 0, 0)},
			passed:    true,
			details:   "Liability: $1,000,000, Cargo: $100,000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkInsurance(models.Carrier{Insurance: tt.insurance}, now)
			assert.Equal(t, tt.passed, got.Passed)
			assert.Equal(t, tt.details, got.Details)
		})
	}
}

func TestCheckSafety(t *testing.T) {
	assert.False(t, checkSafety(models.Carrier{SafetyRating: models.SafetyUnsatisfactory}).Passed)

	conditional := checkSafety(models.Carrier{SafetyRating: models.SafetyConditional})
	assert.True(t, conditional.Passed)
	assert.Equal(t, "Conditional safety rating - requires monitoring", conditional.Details)

	assert.True(t, checkSafety(models.Carrier{SafetyRating: models.SafetySatisfactory}).Passed)
}

func TestCheckExperience(t *testing.T) {
	none := checkExperience(models.Carrier{})
	assert.False(t, none.Passed)
	assert.Equal(t, "No food handling experience or certifications", none.Details)

	yearsOnly := checkExperience(models.Carrier{FoodHandlingExperience: 3})
	assert.True(t, yearsOnly.Passed)
	assert.Equal(t, "3 years of food handling experience", yearsOnly.Details)

	certsOnly := checkExperience(models.Carrier{Certifications: []string{"HACCP", "BRC"}})
	assert.True(t, certsOnly.Passed)
	assert.Equal(t, "Certified in: HACCP, BRC", certsOnly.Details)
}

func TestEvaluate_ChecksByName(t *testing.T) {
	res := Evaluate(qualifiedCarrier(), now)
	all := res.Checks.All()
	require.Len(t, all, 4)
	for _, name := range []string{"equipment", "insurance", "safety", "experience"} {
		check, ok := all[name]
		require.True(t, ok, name)
		assert.True(t, check.Passed, name)
		assert.NotEmpty(t, check.Details, name)
	}

	unsafe := qualifiedCarrier()
	unsafe.SafetyRating = models.SafetyUnsatisfactory
	var failed []string
	for name, check := range Evaluate(unsafe, now).Checks.All() {
		if !check.Passed {
			failed = append(failed, name)
		}
	}
	assert.Equal(t, []string{"safety"}, failed)
}

func TestEvaluate_StatusThresholds(t *testing.T) {
	threeOfFour := qualifiedCarrier()
	threeOfFour.SafetyRating = models.SafetyUnsatisfactory
	res := Evaluate(threeOfFour, now)
	assert.Equal(t, 75, res.Score)
	assert.Equal(t, models.VettingUnderReview, res.Status)

	twoOfFour := threeOfFour
	twoOfFour.Equipment = nil
	res = Evaluate(twoOfFour, now)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, models.VettingRejected, res.Status)

	none := models.Carrier{
		ID:           "c0",
		SafetyRating: models.SafetyUnsatisfactory,
		Insurance:    models.Insurance{ExpirationDate: now.Add(-time.Hour)},
	}
	res = Evaluate(none, now)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, models.VettingRejected, res.Status)
}

func TestEngine_Vet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.CreateCarrier(ctx, qualifiedCarrier()))
	engine := NewEngine(repo, clock.Fake(now))

	res, err := engine.Vet(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.VettingApproved, res.Status)

	// The engine itself never persists.
	stored, err := repo.GetCarrier(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.VettingStatus(""), stored.VettingStatus)

	_, err = engine.Vet(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
