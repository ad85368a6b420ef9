package prompt

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aira-ai/control-tower/internal/fsm"
)

var promptRowColumns = []string{
	"id", "fsm_state", "language", "text", "status", "version",
	"created_at", "updated_at", "created_by", "notes",
}

func TestPostgresRepositorySave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec("INSERT INTO prompts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), testPrompt("p1", 1, StatusDraft)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveAllUsesOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO prompts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch := []*Prompt{
		testPrompt("old", 1, StatusArchived),
		testPrompt("new", 2, StatusActive),
	}
	require.NoError(t, repo.SaveAll(context.Background(), batch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositorySaveAllRollsBackOnBadRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO prompts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	batch := []*Prompt{testPrompt("ok", 1, StatusDraft), {}}
	assert.Error(t, repo.SaveAll(context.Background(), batch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(promptRowColumns).AddRow(
		"p1", "greeting", "en", "Hello!", "active", 2, now, now, "admin", "polished")
	mock.ExpectQuery("SELECT (.+) FROM prompts WHERE id").
		WithArgs("p1").
		WillReturnRows(rows)

	p, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, fsm.StateGreeting, p.FSMState)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, "polished", p.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM prompts WHERE id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(promptRowColumns))

	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepositoryListBuildsWhereClause(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(promptRowColumns).AddRow(
		"p1", "greeting", "en", "Hello!", "active", 1, now, now, "admin", "")
	mock.ExpectQuery(`SELECT (.+) FROM prompts WHERE fsm_state = \$1 AND status = \$2 ORDER BY`).
		WithArgs("greeting", "active").
		WillReturnRows(rows)

	state := fsm.StateGreeting
	active := StatusActive
	prompts, err := repo.List(context.Background(), Filter{FSMState: &state, Status: &active})
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "p1", prompts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildPromptWhere(t *testing.T) {
	where, args := buildPromptWhere(Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	language := fsm.LanguageSpanish
	where, args = buildPromptWhere(Filter{Language: &language})
	assert.Equal(t, " WHERE language = $1", where)
	assert.Equal(t, []any{language}, args)
}
