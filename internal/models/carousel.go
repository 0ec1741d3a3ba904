package models

// Carousel WebSocket message types
const (
	EventSlideChanged  = "slideChanged"
	EventCarouselState = "carouselState"
	EventError         = "error"
)

// Carousel command actions accepted over HTTP and WebSocket
const (
	ActionNext        = "next"
	ActionPrevious    = "previous"
	ActionGoTo        = "goto"
	ActionPause       = "pause"
	ActionResume      = "resume"
	ActionAutoplayOn  = "autoplay-on"
	ActionAutoplayOff = "autoplay-off"
)

// CarouselState represents the current position and playback flags of a showcase
type CarouselState struct {
	Showcase    string `json:"showcase"`
	Index       int    `json:"index"`
	SlideCount  int    `json:"slideCount"`
	SlideID     string `json:"slideId,omitempty"`
	IntervalMs  int    `json:"intervalMs"`
	AutoAdvance bool   `json:"autoAdvance"`
	Paused      bool   `json:"paused"`
	Armed       bool   `json:"armed"`
}

// CarouselEvent is pushed to browsers whenever a showcase changes slide
type CarouselEvent struct {
	Type     string           `json:"type"`
	Showcase string           `json:"showcase,omitempty"`
	Index    int              `json:"index"`
	SlideID  string           `json:"slideId,omitempty"`
	States   []*CarouselState `json:"states,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// CarouselCommand is an inbound navigation request from a browser
type CarouselCommand struct {
	Action   string `json:"action"`
	Showcase string `json:"showcase"`
	Index    int    `json:"index,omitempty"`
}
