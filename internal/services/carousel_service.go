package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"emirates-studios/internal/carousel"
	"emirates-studios/internal/clock"
	"emirates-studios/internal/models"
)

var (
	// ErrShowcaseNotFound is returned for a showcase without active slides
	ErrShowcaseNotFound = errors.New("showcase not found")
	// ErrUnknownAction is returned for an unrecognized carousel command
	ErrUnknownAction = errors.New("unknown carousel action")
)

// SlideSource lists the slides that make up each showcase
type SlideSource interface {
	ListByShowcase(showcase string, activeOnly bool) ([]*models.Slide, error)
	Showcases() ([]string, error)
}

// SettingsSource provides playback settings per showcase
type SettingsSource interface {
	Settings(name string) models.ShowcaseSettings
}

// Broadcaster delivers carousel events to connected browsers
type Broadcaster interface {
	Broadcast(event *models.CarouselEvent)
}

type showcase struct {
	name        string
	ctrl        *carousel.Controller
	slideIDs    []string
	settings    models.ShowcaseSettings
	unsubscribe func()
}

// CarouselService runs one carousel controller per showcase
type CarouselService struct {
	mu          sync.RWMutex
	slides      SlideSource
	settings    SettingsSource
	broadcaster Broadcaster
	clock       clock.Clock
	logger      *zap.Logger
	showcases   map[string]*showcase
}

// NewCarouselService creates a new carousel service
func NewCarouselService(slides SlideSource, settings SettingsSource, broadcaster Broadcaster, clk clock.Clock, logger *zap.Logger) *CarouselService {
	if clk == nil {
		clk = clock.Real()
	}
	return &CarouselService{
		slides:      slides,
		settings:    settings,
		broadcaster: broadcaster,
		clock:       clk,
		logger:      logger,
		showcases:   make(map[string]*showcase),
	}
}

// Start builds a controller for every showcase in the catalog
func (cs *CarouselService) Start() error {
	names, err := cs.slides.Showcases()
	if err != nil {
		return fmt.Errorf("failed to list showcases: %w", err)
	}

	for _, name := range names {
		if err := cs.reload(name, true); err != nil {
			return err
		}
	}

	cs.logger.Info("carousel service started", zap.Int("showcases", len(names)))
	return nil
}

// Reload rebuilds the controller of a showcase after its slide set changed.
// The current index, pause flag and live auto-advance carry over; the index
// resets to the first slide when it no longer exists. A showcase left without
// active slides is dropped. Connected browsers receive the new states.
func (cs *CarouselService) Reload(name string) error {
	return cs.rebuild(NormalizeShowcase(name), false)
}

// ApplySettings rebuilds the controller of a showcase with its stored
// settings, replacing any auto-advance toggled at runtime.
func (cs *CarouselService) ApplySettings(name string) error {
	return cs.rebuild(NormalizeShowcase(name), true)
}

func (cs *CarouselService) rebuild(name string, applySettings bool) error {
	if err := cs.reload(name, applySettings); err != nil {
		return err
	}
	cs.broadcastStates()
	return nil
}

// reload swaps in a new controller for name. On error the running controller
// is left untouched.
func (cs *CarouselService) reload(name string, applySettings bool) error {
	slides, err := cs.slides.ListByShowcase(name, true)
	if err != nil {
		return fmt.Errorf("failed to load slides for %s: %w", name, err)
	}
	settings := cs.settings.Settings(name)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	old := cs.showcases[name]
	if len(slides) == 0 {
		if old != nil {
			old.unsubscribe()
			old.ctrl.Dispose()
			delete(cs.showcases, name)
		}
		cs.logger.Info("showcase has no active slides", zap.String("showcase", name))
		return nil
	}

	startIndex, paused, autoAdvance := 0, false, settings.AutoAdvance
	if old != nil {
		st := old.ctrl.State()
		startIndex, paused = st.Index, st.Paused
		if !applySettings {
			autoAdvance = st.AutoAdvance
		}
	}

	ctrl, err := carousel.New(len(slides), settings.Interval(), autoAdvance,
		carousel.WithClock(cs.clock),
		carousel.WithLogger(cs.logger.With(zap.String("showcase", name))),
		carousel.WithStartIndex(startIndex),
	)
	if err != nil {
		return fmt.Errorf("failed to create carousel for %s: %w", name, err)
	}
	if paused {
		ctrl.Pause()
	}

	if old != nil {
		old.unsubscribe()
		old.ctrl.Dispose()
	}

	slideIDs := make([]string, len(slides))
	for i, slide := range slides {
		slideIDs[i] = slide.ID
	}

	sc := &showcase{
		name:     name,
		ctrl:     ctrl,
		slideIDs: slideIDs,
		settings: settings,
	}
	sc.unsubscribe = ctrl.Subscribe(func(index int) {
		cs.publish(sc, index)
	})
	cs.showcases[name] = sc

	cs.logger.Info("carousel loaded",
		zap.String("showcase", name),
		zap.Int("slides", len(slides)),
		zap.Int("index", ctrl.CurrentSlide()),
		zap.Int("intervalMs", settings.IntervalMs),
		zap.Bool("autoAdvance", autoAdvance))
	return nil
}

func (cs *CarouselService) broadcastStates() {
	if cs.broadcaster == nil {
		return
	}
	cs.broadcaster.Broadcast(&models.CarouselEvent{
		Type:   models.EventCarouselState,
		States: cs.States(),
	})
}

func (cs *CarouselService) publish(sc *showcase, index int) {
	cs.logger.Debug("slide changed", zap.String("showcase", sc.name), zap.Int("index", index))
	if cs.broadcaster == nil {
		return
	}
	cs.broadcaster.Broadcast(&models.CarouselEvent{
		Type:     models.EventSlideChanged,
		Showcase: sc.name,
		Index:    index,
		SlideID:  sc.slideIDs[index],
	})
}

func (cs *CarouselService) get(name string) (*showcase, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	sc, exists := cs.showcases[NormalizeShowcase(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrShowcaseNotFound, name)
	}
	return sc, nil
}

func stateOf(sc *showcase) *models.CarouselState {
	st := sc.ctrl.State()
	return &models.CarouselState{
		Showcase:    sc.name,
		Index:       st.Index,
		SlideCount:  st.SlideCount,
		SlideID:     sc.slideIDs[st.Index],
		IntervalMs:  sc.settings.IntervalMs,
		AutoAdvance: st.AutoAdvance,
		Paused:      st.Paused,
		Armed:       st.Armed,
	}
}

// State returns the current state of a showcase
func (cs *CarouselService) State(name string) (*models.CarouselState, error) {
	sc, err := cs.get(name)
	if err != nil {
		return nil, err
	}
	return stateOf(sc), nil
}

// States returns the state of every showcase ordered by name
func (cs *CarouselService) States() []*models.CarouselState {
	cs.mu.RLock()
	list := make([]*showcase, 0, len(cs.showcases))
	for _, sc := range cs.showcases {
		list = append(list, sc)
	}
	cs.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })

	states := make([]*models.CarouselState, len(list))
	for i, sc := range list {
		states[i] = stateOf(sc)
	}
	return states
}

// apply runs fn against a showcase controller and returns the resulting state
func (cs *CarouselService) apply(name string, fn func(*carousel.Controller) error) (*models.CarouselState, error) {
	sc, err := cs.get(name)
	if err != nil {
		return nil, err
	}
	if err := fn(sc.ctrl); err != nil {
		return nil, err
	}
	return stateOf(sc), nil
}

// Next advances a showcase by one slide
func (cs *CarouselService) Next(name string) (*models.CarouselState, error) {
	return cs.apply(name, func(c *carousel.Controller) error {
		c.Next()
		return nil
	})
}

// Previous moves a showcase back by one slide
func (cs *CarouselService) Previous(name string) (*models.CarouselState, error) {
	return cs.apply(name, func(c *carousel.Controller) error {
		c.Previous()
		return nil
	})
}

// GoTo jumps a showcase to index
func (cs *CarouselService) GoTo(name string, index int) (*models.CarouselState, error) {
	return cs.apply(name, func(c *carousel.Controller) error {
		return c.GoTo(index)
	})
}

// Pause suspends auto-advance for a showcase
func (cs *CarouselService) Pause(name string) (*models.CarouselState, error) {
	return cs.apply(name, func(c *carousel.Controller) error {
		c.Pause()
		return nil
	})
}

// Resume lifts a pause on a showcase
func (cs *CarouselService) Resume(name string) (*models.CarouselState, error) {
	return cs.apply(name, func(c *carousel.Controller) error {
		c.Resume()
		return nil
	})
}

// SetAutoAdvance turns auto-advance on or off for a showcase
func (cs *CarouselService) SetAutoAdvance(name string, enabled bool) (*models.CarouselState, error) {
	return cs.apply(name, func(c *carousel.Controller) error {
		c.SetAutoAdvance(enabled)
		return nil
	})
}

// HandleCommand applies a browser command. Hover pause and resume are
// ignored for showcases with pauseOnHover disabled.
func (cs *CarouselService) HandleCommand(cmd *models.CarouselCommand) (*models.CarouselState, error) {
	switch cmd.Action {
	case models.ActionNext:
		return cs.Next(cmd.Showcase)
	case models.ActionPrevious:
		return cs.Previous(cmd.Showcase)
	case models.ActionGoTo:
		return cs.GoTo(cmd.Showcase, cmd.Index)
	case models.ActionPause, models.ActionResume:
		sc, err := cs.get(cmd.Showcase)
		if err != nil {
			return nil, err
		}
		if !sc.settings.PauseOnHover {
			return stateOf(sc), nil
		}
		if cmd.Action == models.ActionPause {
			return cs.Pause(cmd.Showcase)
		}
		return cs.Resume(cmd.Showcase)
	case models.ActionAutoplayOn:
		return cs.SetAutoAdvance(cmd.Showcase, true)
	case models.ActionAutoplayOff:
		return cs.SetAutoAdvance(cmd.Showcase, false)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
}

// Close disposes every controller
func (cs *CarouselService) Close() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for name, sc := range cs.showcases {
		sc.unsubscribe()
		sc.ctrl.Dispose()
		delete(cs.showcases, name)
	}
	cs.logger.Info("carousel service stopped")
}
