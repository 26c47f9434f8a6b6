package db_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/recruiter-chat/internal/db"
	"github.com/suPer8Hu/recruiter-chat/internal/models"
	"github.com/suPer8Hu/recruiter-chat/internal/testutil"
)

func TestMigrate_CreatesAllTables(t *testing.T) {
	gdb := testutil.OpenDB(t)
	for _, m := range models.All() {
		require.True(t, gdb.Migrator().HasTable(m), "missing table for %T", m)
	}
	// idempotent
	require.NoError(t, db.Migrate(gdb))
}

func TestOpenDB_IsolatedPerCall(t *testing.T) {
	a := testutil.OpenDB(t)
	b := testutil.OpenDB(t)

	require.NoError(t, a.Create(&models.KnowledgeBase{Content: "only in a"}).Error)

	var n int64
	require.NoError(t, b.Model(&models.KnowledgeBase{}).Count(&n).Error)
	require.Zero(t, n)
}
