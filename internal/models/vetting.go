// server/internal/models/vetting.go
package models

import "time"

// CheckResult is the outcome of one vetting check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// VettingChecks keeps the four checks in their fixed wire order.
type VettingChecks struct {
	Equipment  CheckResult `json:"equipment"`
	Insurance  CheckResult `json:"insurance"`
	Safety     CheckResult `json:"safety"`
	Experience CheckResult `json:"experience"`
}

// All returns the checks keyed by name.
func (c VettingChecks) All() map[string]CheckResult {
	return map[string]CheckResult{
		"equipment":  c.Equipment,
		"insurance":  c.Insurance,
		"safety":     c.Safety,
		"experience": c.Experience,
	}
}

// Passed counts the checks that passed.
func (c VettingChecks) Passed() int {
	n := 0
	for _, r := range c.All() {
		if r.Passed {
			n++
		}
	}
	return n
}

type VettingResult struct {
	CarrierID  string        `json:"carrierId"`
	Status     VettingStatus `json:"status"`
	Score      int           `json:"score"`
	Checks     VettingChecks `json:"checks"`
	ReviewedAt time.Time     `json:"reviewedAt"`
}
