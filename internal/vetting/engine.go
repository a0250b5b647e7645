// Package vetting decides whether a carrier may haul on the marketplace.
package vetting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	inspectionWindow     = 180 * 24 * time.Hour
	insuranceRenewWindow = 30 * 24 * time.Hour

	minLiabilityCoverage = 1_000_000
	minCargoCoverage     = 100_000

	approvalScore = 80
	reviewScore   = 60
	checkCount    = 4
)

// CarrierGetter is the part of the record store vetting reads from.
type CarrierGetter interface {
	GetCarrier(ctx context.Context, id string) (models.Carrier, error)
}

// Engine scores carriers. It never writes: persisting the outcome is up to the caller.
type Engine struct {
	carriers CarrierGetter
	clock    clock.Clock
}

func NewEngine(carriers CarrierGetter, clk clock.Clock) *Engine {
	return &Engine{carriers: carriers, clock: clk}
}

// Vet loads the carrier and evaluates it at the current time. The only error
// is the store's, typically repository.ErrNotFound.
func (e *Engine) Vet(ctx context.Context, carrierID string) (models.VettingResult, error) {
	carrier, err := e.carriers.GetCarrier(ctx, carrierID)
	if err != nil {
		return models.VettingResult{}, fmt.Errorf("vetting: %w", err)
	}
	return Evaluate(carrier, e.clock.Now()), nil
}

// Evaluate runs the four checks against carrier as of now.
func Evaluate(carrier models.Carrier, now time.Time) models.VettingResult {
	checks := models.VettingChecks{
		Equipment:  checkEquipment(carrier, now),
		Insurance:  checkInsurance(carrier, now),
		Safety:     checkSafety(carrier),
		Experience: checkExperience(carrier),
	}

	passed := checks.Passed()
	score := int(math.Round(100 * float64(passed) / checkCount))

	return models.VettingResult{
		CarrierID:  carrier.ID,
		Status:     decide(passed == checkCount, score),
		Score:      score,
		Checks:     checks,
		ReviewedAt: now,
	}
}

func decide(allPassed bool, score int) models.VettingStatus {
	switch {
	case allPassed && score >= approvalScore:
		return models.VettingApproved
	case score >= reviewScore:
		return models.VettingUnderReview
	default:
		return models.VettingRejected
	}
}

func checkEquipment(c models.Carrier, now time.Time) models.CheckResult {
	if len(c.Equipment) == 0 {
		return models.CheckResult{Passed: false, Details: "No equipment registered"}
	}

	cutoff := now.Add(-inspectionWindow)
	for _, eq := range c.Equipment {
		if len(eq.Certifications) > 0 && eq.LastInspectionDate.After(cutoff) {
			return models.CheckResult{
				Passed:  true,
				Details: fmt.Sprintf("%d equipment units with valid certifications", len(c.Equipment)),
			}
		}
	}
	return models.CheckResult{Passed: false, Details: "Equipment lacks valid certifications or recent inspections"}
}

func checkInsurance(c models.Carrier, now time.Time) models.CheckResult {
	expires := c.Insurance.ExpirationDate
	if expires.Before(now) {
		return models.CheckResult{Passed: false, Details: "Insurance has expired"}
	}
	// An expiring policy passes regardless of coverage amounts.
	if expires.Before(now.Add(insuranceRenewWindow)) {
		return models.CheckResult{Passed: true, Details: "Insurance expires within 30 days - renewal recommended"}
	}
	if c.Insurance.Liability < minLiabilityCoverage || c.Insurance.Cargo < minCargoCoverage {
		return models.CheckResult{Passed: false, Details: "Insurance coverage below minimum requirements"}
	}
	return models.CheckResult{
		Passed:  true,
		Details: fmt.Sprintf("Liability: $%s, Cargo: $%s", amount(c.Insurance.Liability), amount(c.Insurance.Cargo)),
	}
}

func checkSafety(c models.Carrier) models.CheckResult {
	switch c.SafetyRating {
	case models.SafetyUnsatisfactory:
		return models.CheckResult{Passed: false, Details: "Unsatisfactory safety rating"}
	case models.SafetyConditional:
		return models.CheckResult{Passed: true, Details: "Conditional safety rating - requires monitoring"}
	}
	return models.CheckResult{Passed: true, Details: "Satisfactory safety rating"}
}

func checkExperience(c models.Carrier) models.CheckResult {
	hasExperience := c.FoodHandlingExperience >= 1
	hasCertifications := len(c.Certifications) > 0

	switch {
	case !hasExperience && !hasCertifications:
		return models.CheckResult{Passed: false, Details: "No food handling experience or certifications"}
	case hasExperience && hasCertifications:
		return models.CheckResult{
			Passed:  true,
			Details: fmt.Sprintf("%d years experience with %d certifications", c.FoodHandlingExperience, len(c.Certifications)),
		}
	case hasExperience:
		return models.CheckResult{
			Passed:  true,
			Details: fmt.Sprintf("%d years of food handling experience", c.FoodHandlingExperience),
		}
	}
	return models.CheckResult{Passed: true, Details: "Certified in: " + strings.Join(c.Certifications, ", ")}
}

// amount renders a dollar figure with thousands separators, e.g. 1,000,000.
func amount(v float64) string {
	printer := message.NewPrinter(language.English)
	if v == math.Trunc(v) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}
