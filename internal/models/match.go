package models

// MatchScore ranks one carrier against a load. Reasons follow scoring order.
type MatchScore struct {
	Carrier Carrier  `json:"carrier"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}
