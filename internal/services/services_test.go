package services

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"emirates-studios/internal/db"
	"emirates-studios/internal/models"
)

var defaultSettings = models.ShowcaseSettings{
	IntervalMs:   1000,
	AutoAdvance:  true,
	PauseOnHover: true,
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.InitDatabase(filepath.Join(t.TempDir(), "studio.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestSlideService(t *testing.T) *SlideService {
	t.Helper()
	return NewSlideService(newTestDB(t), zap.NewNop())
}

func newTestStore(t *testing.T) *ShowcaseStore {
	t.Helper()
	store, err := NewShowcaseStore(t.TempDir(), defaultSettings, zap.NewNop())
	require.NoError(t, err)
	return store
}

func seedSlides(t *testing.T, ss *SlideService, showcase string, titles ...string) []*models.Slide {
	t.Helper()
	var slides []*models.Slide
	for _, title := range titles {
		slide, err := ss.CreateSlide(&models.Slide{Showcase: showcase, Title: title})
		require.NoError(t, err)
		slides = append(slides, slide)
	}
	return slides
}

// recordingBroadcaster captures events instead of sending them
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*models.CarouselEvent
}

func (r *recordingBroadcaster) Broadcast(event *models.CarouselEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingBroadcaster) slideChanges() []*models.CarouselEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CarouselEvent
	for _, e := range r.events {
		if e.Type == models.EventSlideChanged {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingBroadcaster) last() *models.CarouselEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}
