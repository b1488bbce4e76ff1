package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/pkg/database"
)

// openTestDB returns a migrated database seeded with one company:
//
//	1 Erin (employee, manager 10)   2 Eli (employee, manager 11)
//	10 Maya (manager)  11 Milo (manager)  12 Finn (manager)  20 Ada (admin)
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "approvals.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunEmbedded())

	seed := []string{
		`INSERT INTO companies (id, name, base_currency) VALUES (1, 'Acme', 'USD'), (2, 'Globex', 'EUR')`,
		`INSERT INTO users (id, company_id, first_name, last_name, email, role, manager_id, lark_open_id) VALUES
			(10, 1, 'Maya', 'Manager', 'maya@acme.test', 'manager', NULL, 'ou_maya'),
			(11, 1, 'Milo', 'Manager', 'milo@acme.test', 'manager', NULL, NULL),
			(12, 1, 'Finn', 'Finance', 'finn@acme.test', 'manager', NULL, NULL),
			(20, 1, 'Ada', 'Admin', 'ada@acme.test', 'admin', NULL, NULL),
			(1, 1, 'Erin', 'Employee', 'erin@acme.test', 'employee', 10, NULL),
			(2, 1, 'Eli', 'Other', 'eli@acme.test', 'employee', 11, NULL)`,
		`INSERT INTO expense_categories (id, company_id, name) VALUES (5, 1, 'Travel')`,
	}
	for _, stmt := range seed {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
	return db.DB
}
