package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"emirates-studios/internal/models"
)

var (
	// ErrSlideNotFound is returned when no slide matches the given id
	ErrSlideNotFound = errors.New("slide not found")
	// ErrInvalidSlide is returned when a slide is missing required fields
	ErrInvalidSlide = errors.New("invalid slide")
)

const slideColumns = `id, showcase, position, title, category, quote, author, role,
		image_path, is_active, created_at, updated_at`

// SlideService manages the slide catalog in SQLite
type SlideService struct {
	database *sql.DB
	logger   *zap.Logger
}

// NewSlideService creates a new slide service
func NewSlideService(database *sql.DB, logger *zap.Logger) *SlideService {
	return &SlideService{
		database: database,
		logger:   logger,
	}
}

// NormalizeShowcase lowercases and trims a showcase name
func NormalizeShowcase(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateSlide appends a slide to the end of its showcase
func (ss *SlideService) CreateSlide(slide *models.Slide) (*models.Slide, error) {
	showcase := NormalizeShowcase(slide.Showcase)
	if showcase == "" {
		return nil, fmt.Errorf("%w: showcase is required", ErrInvalidSlide)
	}
	if strings.ContainsAny(showcase, `/\`) || showcase == "." || showcase == ".." {
		return nil, fmt.Errorf("%w: invalid showcase name %q", ErrInvalidSlide, showcase)
	}
	if slide.Title == "" && slide.Quote == "" {
		return nil, fmt.Errorf("%w: title or quote is required", ErrInvalidSlide)
	}

	tx, err := ss.database.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM slides WHERE showcase = ?`, showcase).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("failed to compute slide position: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	query := `INSERT INTO slides
		(id, showcase, position, title, category, quote, author, role, image_path, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.Exec(query, id, showcase, position, slide.Title, slide.Category, slide.Quote,
		slide.Author, slide.Role, slide.ImagePath, true, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert slide: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit slide: %w", err)
	}

	ss.logger.Info("slide created",
		zap.String("id", id),
		zap.String("showcase", showcase),
		zap.Int("position", position))

	return ss.GetSlide(id)
}

// GetSlide returns a slide by id
func (ss *SlideService) GetSlide(id string) (*models.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE id = ?`

	slide, err := scanSlide(ss.database.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSlideNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query slide: %w", err)
	}
	return slide, nil
}

// ListByShowcase returns the slides of a showcase ordered by position
func (ss *SlideService) ListByShowcase(showcase string, activeOnly bool) ([]*models.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE showcase = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := ss.database.Query(query, NormalizeShowcase(showcase))
	if err != nil {
		return nil, fmt.Errorf("failed to query slides: %w", err)
	}
	defer rows.Close()

	return scanSlides(rows)
}

// ListAll returns every slide grouped by showcase
func (ss *SlideService) ListAll() ([]*models.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides ORDER BY showcase ASC, position ASC`

	rows, err := ss.database.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query slides: %w", err)
	}
	defer rows.Close()

	return scanSlides(rows)
}

// Showcases returns the distinct showcase names that have slides
func (ss *SlideService) Showcases() ([]string, error) {
	rows, err := ss.database.Query(`SELECT DISTINCT showcase FROM slides ORDER BY showcase ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query showcases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan showcase: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// UpdateSlide updates the content fields of a slide
func (ss *SlideService) UpdateSlide(id string, slide *models.Slide) (*models.Slide, error) {
	if slide.Title == "" && slide.Quote == "" {
		return nil, fmt.Errorf("%w: title or quote is required", ErrInvalidSlide)
	}

	query := `UPDATE slides
		SET title = ?, category = ?, quote = ?, author = ?, role = ?, image_path = ?, updated_at = ?
		WHERE id = ?`

	result, err := ss.database.Exec(query, slide.Title, slide.Category, slide.Quote, slide.Author,
		slide.Role, slide.ImagePath, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update slide: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return nil, err
	}

	ss.logger.Info("slide updated", zap.String("id", id))
	return ss.GetSlide(id)
}

// SetImagePath records the stored image for a slide
func (ss *SlideService) SetImagePath(id, imagePath string) error {
	result, err := ss.database.Exec(`UPDATE slides SET image_path = ?, updated_at = ? WHERE id = ?`,
		imagePath, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update slide image: %w", err)
	}
	return requireAffected(result, id)
}

// SetActive shows or hides a slide without deleting it
func (ss *SlideService) SetActive(id string, active bool) error {
	result, err := ss.database.Exec(`UPDATE slides SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update slide: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return err
	}

	ss.logger.Info("slide visibility changed", zap.String("id", id), zap.Bool("active", active))
	return nil
}

// DeleteSlide removes a slide from the catalog
func (ss *SlideService) DeleteSlide(id string) (*models.Slide, error) {
	slide, err := ss.GetSlide(id)
	if err != nil {
		return nil, err
	}

	result, err := ss.database.Exec(`DELETE FROM slides WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete slide: %w", err)
	}
	if err := requireAffected(result, id); err != nil {
		return nil, err
	}

	ss.logger.Info("slide deleted", zap.String("id", id), zap.String("showcase", slide.Showcase))
	return slide, nil
}

func requireAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSlideNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlide(row rowScanner) (*models.Slide, error) {
	var slide models.Slide
	err := row.Scan(
		&slide.ID,
		&slide.Showcase,
		&slide.Position,
		&slide.Title,
		&slide.Category,
		&slide.Quote,
		&slide.Author,
		&slide.Role,
		&slide.ImagePath,
		&slide.IsActive,
		&slide.CreatedAt,
		&slide.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slide, nil
}

func scanSlides(rows *sql.Rows) ([]*models.Slide, error) {
	var slides []*models.Slide
	for rows.Next() {
		slide, err := scanSlide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slide: %w", err)
		}
		slides = append(slides, slide)
	}
	return slides, rows.Err()
}
