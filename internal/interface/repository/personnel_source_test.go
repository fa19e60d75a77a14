package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPersonnelSource_QueryPersonnel(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec("CREATE TABLE personnel (id INTEGER, name TEXT, sector TEXT, grp TEXT, active INTEGER)").Error)
	require.NoError(t, db.Exec("INSERT INTO personnel VALUES (1001, 'Ana', 'S1', 'Vendedores', 1), (1002, 'Bruno', 'S2', 'Novo', 0)").Error)

	source := NewGormPersonnelSource(db, "SELECT id, name, sector, grp AS \"group\" FROM personnel WHERE active = 1")
	rows, err := source.QueryPersonnel(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0]["name"])
	assert.Equal(t, "Vendedores", rows[0]["group"])
	assert.EqualValues(t, 1001, rows[0]["id"])
}

func TestGormPersonnelSource_QueryError(t *testing.T) {
	source := NewGormPersonnelSource(newTestDB(t), "SELECT * FROM missing_table")
	_, err := source.QueryPersonnel(context.Background())
	assert.Error(t, err)
}
