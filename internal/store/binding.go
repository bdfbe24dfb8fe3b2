package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Binding maps an action gesture to a plugin action.
type Binding struct {
	ID            string          `json:"id"`
	GestureAction string          `json:"gesture_action"`
	PluginName    string          `json:"plugin_name"`
	PluginAction  string          `json:"plugin_action"`
	Config        json.RawMessage `json:"config,omitempty"`
	Enabled       bool            `json:"enabled"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, gesture_action, plugin_name, plugin_action, config, enabled, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBinding(row scanner) (*Binding, error) {
	b := &Binding{}
	var config string
	var enabled int

	if err := row.Scan(&b.ID, &b.GestureAction, &b.PluginName, &b.PluginAction, &config, &enabled, &b.CreatedAt); err != nil {
		return nil, err
	}

	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

// Create inserts a binding. An empty ID is filled with a new UUID. Each
// gesture action can be bound once.
func (r *BindingRepository) Create(b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now()

	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.GestureAction, b.PluginName, b.PluginAction, string(config), b.Enabled, b.CreatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetByAction retrieves the binding for a gesture action.
// Returns nil, nil if nothing is bound.
func (r *BindingRepository) GetByAction(action string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE gesture_action = ?`, action))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// List retrieves all bindings, newest first.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE bindings SET gesture_action = ?, plugin_name = ?, plugin_action = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.GestureAction, b.PluginName, b.PluginAction, string(config), enabled, b.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicate
		}
		return err
	}

	return affectedOne(result)
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

func affectedOne(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
