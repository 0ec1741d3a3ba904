package models

import "time"

// Slide represents one testimonial or portfolio item in a showcase
type Slide struct {
	ID        string    `json:"id"`
	Showcase  string    `json:"showcase"`
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	Quote     string    `json:"quote,omitempty"`
	Author    string    `json:"author,omitempty"`
	Role      string    `json:"role,omitempty"`
	ImagePath string    `json:"imagePath,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MaxIntervalMs is the longest accepted auto-advance interval (one day)
const MaxIntervalMs = 24 * 60 * 60 * 1000

// ShowcaseSettings represents playback configuration for a showcase slider
type ShowcaseSettings struct {
	IntervalMs   int  `json:"intervalMs"`
	AutoAdvance  bool `json:"autoAdvance"`
	PauseOnHover bool `json:"pauseOnHover"`
}

// Interval returns IntervalMs as a duration
func (s ShowcaseSettings) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// ShowcaseRecord represents a showcase and its stored slide images
type ShowcaseRecord struct {
	Name     string            `json:"name"`
	Settings *ShowcaseSettings `json:"settings,omitempty"`
	Images   map[string]string `json:"images"`
}

// ShowcasesFile represents the root structure of showcases.json
type ShowcasesFile struct {
	Showcases map[string]*ShowcaseRecord `json:"showcases"`
}
