package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, 5, ups)
	assert.Equal(t, ups, downs)

	source, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := source.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestSimulationsMigrationHasProposalStatus(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_create_simulations.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "proposal_status")
	assert.Contains(t, string(data), "'pending', 'accepted', 'signed'")
}

func TestInputPrecisionMigration(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000005_unbounded_input_precision.up.sql")
	require.NoError(t, err)

	up := string(data)
	for _, table := range []string{"simulations", "vehicle_simulations"} {
		assert.Contains(t, up, "ALTER TABLE "+table)
	}
	assert.Contains(t, up, "ALTER COLUMN down_payment_percentage TYPE NUMERIC,")
	assert.Contains(t, up, "ALTER COLUMN interest_rate TYPE NUMERIC;")
	assert.NotContains(t, up, "NUMERIC(")
}
