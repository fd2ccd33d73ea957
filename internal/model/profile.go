package model

import "time"

// Profile is one entry of the fixed match catalog
type Profile struct {
	Name               string   `yaml:"name" json:"name"`
	Description        string   `yaml:"description" json:"-"`
	Age                int      `yaml:"age" json:"age"`
	Occupation         string   `yaml:"occupation" json:"occupation"`
	Personality        string   `yaml:"personality" json:"personality"`
	Traits             []string `yaml:"traits" json:"traits"`
	Emoji              string   `yaml:"emoji" json:"emoji"`
	CompatibilityScore int      `yaml:"compatibility_score" json:"compatibility_score"`
}

// Match is a profile ranked against a vent
type Match struct {
	Profile
	Similarity float64 `json:"similarity_score"`
}

// VentID uniquely identifies a stored vent
type VentID string

// Vent is free text submitted for matching, kept with its embedding
type Vent struct {
	ID        VentID
	Text      string
	Embedding []float32
	CreatedAt time.Time
}
