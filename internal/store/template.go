package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/unistroke/internal/gesture"
)

// Template is a normalised gesture stored in the database. Data holds the
// gesture in its text form ("name x;y;x;y;...").
type Template struct {
	ID           string
	Name         string
	NumResampled int
	SquareSize   float64
	Data         string
	Samples      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTemplate builds a Template from a normalised gesture.
func NewTemplate(id string, g *gesture.Gesture, squareSize float64) (*Template, error) {
	t := &Template{ID: id, SquareSize: squareSize}
	if err := t.SetGesture(g); err != nil {
		return nil, err
	}
	return t, nil
}

// SetGesture replaces the stored stroke and name with those of g.
func (t *Template) SetGesture(g *gesture.Gesture) error {
	data, err := g.MarshalText()
	if err != nil {
		return err
	}
	t.Name = g.Name()
	t.NumResampled = g.Len()
	t.Data = string(data)
	return nil
}

// Decode parses the stored stroke. The returned gesture carries the
// template name even if Data was written under an older one.
func (t *Template) Decode() (*gesture.Gesture, error) {
	g, err := gesture.Parse(t.Data)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.Name, err)
	}
	g.SetName(t.Name)
	return g, nil
}

// TemplateRepository provides CRUD operations for templates.
type TemplateRepository struct {
	db *sql.DB
}

// Templates returns the template repository for this store.
func (s *Store) Templates() *TemplateRepository {
	return &TemplateRepository{db: s.db}
}

const templateColumns = `id, name, num_resampled, square_size, data, samples, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*Template, error) {
	t := &Template{}
	err := row.Scan(&t.ID, &t.Name, &t.NumResampled, &t.SquareSize, &t.Data, &t.Samples, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new template into the database.
func (r *TemplateRepository) Create(t *Template) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO templates (`+templateColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.NumResampled, t.SquareSize, t.Data, t.Samples, t.CreatedAt, t.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a template by its ID.
func (r *TemplateRepository) GetByID(id string) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(
		`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// GetByName retrieves a template by its name.
func (r *TemplateRepository) GetByName(name string) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(
		`SELECT `+templateColumns+` FROM templates WHERE name = ?`, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// List retrieves all templates in insertion order, which is the order ties
// are broken in during recognition.
func (r *TemplateRepository) List() ([]*Template, error) {
	rows, err := r.db.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

// Update updates an existing template in the database.
func (r *TemplateRepository) Update(t *Template) error {
	t.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE templates SET name = ?, num_resampled = ?, square_size = ?, data = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.NumResampled, t.SquareSize, t.Data, t.Samples, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return mapError(err)
	}

	return expectOneRow(result)
}

// Delete removes a template and, by cascade, its samples and action.
func (r *TemplateRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
