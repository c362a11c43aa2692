package store

import (
	"github.com/google/uuid"
)

// DateLayout is the format of Item.DiscoveredDate.
const DateLayout = "2006-01-02"

// Item is a single discovered record. Title is the uniqueness key. Items are
// never modified once merged.
type Item struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	DiscoveredDate string    `json:"discovered_date"`
	Category       string    `json:"category,omitempty"`
	Tier           string    `json:"tier,omitempty"`
}

// Candidate is an extracted (title, link) pair waiting to be merged. Detail
// is free text kept only for classification; Category and Tier, when set,
// are copied onto the Item created for the candidate.
type Candidate struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Detail   string `json:"detail,omitempty"`
	Category string `json:"category,omitempty"`
	Tier     string `json:"tier,omitempty"`
}
