package prompt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PostgresRepository persists prompt rows to the prompts table. SaveAll runs
// in a single transaction so publish's archive-then-activate lands atomically.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository builds a Postgres-backed prompt repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	if db == nil {
		panic("prompt: database handle cannot be nil")
	}
	return &PostgresRepository{db: db}
}

const promptColumns = `id, fsm_state, language, text, status, version,
	created_at, updated_at, created_by, notes`

const upsertPrompt = `
	INSERT INTO prompts (` + promptColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (id) DO UPDATE SET
		text=EXCLUDED.text, status=EXCLUDED.status,
		updated_at=EXCLUDED.updated_at, notes=EXCLUDED.notes`

// Save upserts one prompt row.
func (r *PostgresRepository) Save(ctx context.Context, p *Prompt) error {
	if p == nil || p.ID == "" {
		return errors.New("prompt: cannot save prompt without id")
	}
	_, err := r.db.ExecContext(ctx, upsertPrompt,
		p.ID, p.FSMState, p.Language, p.Text, p.Status, p.Version,
		p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.Notes)
	if err != nil {
		return fmt.Errorf("prompt: persist prompt %s: %w", p.ID, err)
	}
	return nil
}

// SaveAll upserts the batch inside one transaction.
func (r *PostgresRepository) SaveAll(ctx context.Context, prompts []*Prompt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("prompt: begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range prompts {
		if p == nil || p.ID == "" {
			return errors.New("prompt: cannot save prompt without id")
		}
		if _, err := tx.ExecContext(ctx, upsertPrompt,
			p.ID, p.FSMState, p.Language, p.Text, p.Status, p.Version,
			p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.Notes); err != nil {
			return fmt.Errorf("prompt: persist prompt %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("prompt: commit batch: %w", err)
	}
	return nil
}

// Get loads one prompt by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Prompt, error) {
	var p Prompt
	err := r.db.QueryRowContext(ctx,
		`SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id).Scan(
		&p.ID, &p.FSMState, &p.Language, &p.Text, &p.Status, &p.Version,
		&p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.Notes)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prompt: load prompt %s: %w", id, err)
	}
	return &p, nil
}

// List returns matching prompts in lineage order.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Prompt, error) {
	where, args := buildPromptWhere(f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+promptColumns+` FROM prompts`+where+
			` ORDER BY fsm_state ASC, language ASC, version DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("prompt: list prompts: %w", err)
	}
	defer rows.Close()

	out := []*Prompt{}
	for rows.Next() {
		var p Prompt
		if err := rows.Scan(&p.ID, &p.FSMState, &p.Language, &p.Text, &p.Status,
			&p.Version, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy, &p.Notes); err != nil {
			return nil, fmt.Errorf("prompt: scan prompt row: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func buildPromptWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, clause+" $"+strconv.Itoa(len(args)))
	}

	if f.FSMState != nil {
		add("fsm_state =", *f.FSMState)
	}
	if f.Language != nil {
		add("language =", *f.Language)
	}
	if f.Status != nil {
		add("status =", *f.Status)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
