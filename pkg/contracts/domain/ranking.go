package domain

// RankedEntity is one entry of a top-N or bottom-N extract.
type RankedEntity struct {
	Rank     int     `json:"rank"`
	EntityID string  `json:"entity_id"`
	Label    string  `json:"label,omitempty"`
	Value    float64 `json:"value"`
}
