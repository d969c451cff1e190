package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contact-scraper/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPostgresStoreFromDB(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS agents").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteRoster(t *testing.T) {
	s, mock := newMockStore(t)
	roster := []models.Agent{
		{Name: "Bob Smith", City: "Jacksonville, FL", Source: "realtor.com"},
		{Name: "Jane Doe", City: "Jacksonville, FL", Source: "homes.com"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO agents .+ ON CONFLICT \(name_key\) DO NOTHING`).
		WithArgs(
			"bob smith", "Bob Smith", "Jacksonville, FL", "realtor.com",
			"jane doe", "Jane Doe", "Jacksonville, FL", "homes.com",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, s.WriteRoster(context.Background(), roster))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteRosterBatches(t *testing.T) {
	s, mock := newMockStore(t)
	roster := make([]models.Agent, batchSize+1)
	for i := range roster {
		roster[i] = models.Agent{Name: string(rune('a'+i%26)) + string(rune('a'+i/26))}
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO agents").WillReturnResult(sqlmock.NewResult(0, batchSize))
	mock.ExpectExec("INSERT INTO agents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.WriteRoster(context.Background(), roster))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteRosterRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO agents").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := s.WriteRoster(context.Background(), []models.Agent{{Name: "Bob Smith"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteEmptyIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	require.NoError(t, s.WriteRoster(context.Background(), nil))
	require.NoError(t, s.WriteContacts(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFetchRoster(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT name, city, source FROM agents ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"name", "city", "source"}).
			AddRow("Bob Smith", "Jacksonville, FL", "realtor.com").
			AddRow("Jane Doe", "Jacksonville, FL", "homes.com"))

	roster, err := s.FetchRoster(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Agent{
		{Name: "Bob Smith", City: "Jacksonville, FL", Source: "realtor.com"},
		{Name: "Jane Doe", City: "Jacksonville, FL", Source: "homes.com"},
	}, roster)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteContactsOnlyUpgrades(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO contacts .+ WHERE contacts.score < EXCLUDED.score`).
		WithArgs("jane doe", "Jane Doe", "jane@x.com", "(904) 555-1234", "https://x.com", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WriteContacts(context.Background(), []models.Observation{
		{Name: "Jane Doe", Email: "jane@x.com", Phone: "(904) 555-1234", SourceURL: "https://x.com"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
