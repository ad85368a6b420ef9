package call

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// PostgresRepository persists call records to the calls table. The turn
// history and qualification map are embedded as JSONB so the row remains a
// single keyed document, matching the repository contract.
type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository builds a Postgres-backed call repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	if db == nil {
		panic("call: database handle cannot be nil")
	}
	return &PostgresRepository{db: db}
}

const callColumns = `id, session_id, status, fsm_state, language, test_mode,
	start_time, end_time, exit_reason, turns, qualification_data,
	demo_intent, demo_confirmed, objections`

// Save upserts the whole call document.
func (r *PostgresRepository) Save(ctx context.Context, c *Call) error {
	if c == nil || c.ID == "" {
		return errors.New("call: cannot save call without id")
	}

	turns, err := json.Marshal(c.Turns)
	if err != nil {
		return fmt.Errorf("call: marshal turns for %s: %w", c.ID, err)
	}
	qualification, err := json.Marshal(c.QualificationData)
	if err != nil {
		return fmt.Errorf("call: marshal qualification for %s: %w", c.ID, err)
	}

	var endTime sql.NullTime
	if c.EndTime != nil {
		endTime = sql.NullTime{Time: *c.EndTime, Valid: true}
	}
	var exitReason sql.NullString
	if c.ExitReason != "" {
		exitReason = sql.NullString{String: string(c.ExitReason), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calls (`+callColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			status=EXCLUDED.status, fsm_state=EXCLUDED.fsm_state,
			end_time=EXCLUDED.end_time, exit_reason=EXCLUDED.exit_reason,
			turns=EXCLUDED.turns, qualification_data=EXCLUDED.qualification_data,
			demo_intent=EXCLUDED.demo_intent, demo_confirmed=EXCLUDED.demo_confirmed,
			objections=EXCLUDED.objections`,
		c.ID, c.SessionID, c.Status, c.FSMState, c.Language, c.TestMode,
		c.StartTime, endTime, exitReason, turns, qualification,
		c.DemoIntent, c.DemoConfirmed, pq.Array(c.Objections))
	if err != nil {
		return fmt.Errorf("call: persist call %s: %w", c.ID, err)
	}
	return nil
}

// Get loads one call by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Call, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE id = $1`, id)
	c, err := scanCall(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("call: load call %s: %w", id, err)
	}
	return c, nil
}

// List returns matching calls ordered by start time descending.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Call, error) {
	where, args := buildCallWhere(f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+callColumns+` FROM calls`+where+` ORDER BY start_time DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("call: list calls: %w", err)
	}
	defer rows.Close()

	out := []*Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("call: scan call row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (*Call, error) {
	var c Call
	var endTime sql.NullTime
	var exitReason sql.NullString
	var turns, qualification []byte

	err := row.Scan(&c.ID, &c.SessionID, &c.Status, &c.FSMState, &c.Language,
		&c.TestMode, &c.StartTime, &endTime, &exitReason, &turns,
		&qualification, &c.DemoIntent, &c.DemoConfirmed, pq.Array(&c.Objections))
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		t := endTime.Time
		c.EndTime = &t
	}
	if exitReason.Valid {
		c.ExitReason = fsm.ExitReason(exitReason.String)
	}
	if err := json.Unmarshal(turns, &c.Turns); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	if err := json.Unmarshal(qualification, &c.QualificationData); err != nil {
		return nil, fmt.Errorf("decode qualification: %w", err)
	}
	if c.Objections == nil {
		c.Objections = []string{}
	}
	return &c, nil
}

func buildCallWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, clause+" $"+strconv.Itoa(len(args)))
	}

	if f.Status != nil {
		add("status =", *f.Status)
	}
	if f.ExitReason != nil {
		add("exit_reason =", *f.ExitReason)
	}
	if f.DemoIntent != nil {
		add("demo_intent =", *f.DemoIntent)
	}
	if f.From != nil {
		add("start_time >=", *f.From)
	}
	if f.To != nil {
		add("start_time <=", *f.To)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
