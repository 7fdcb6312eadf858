package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/example/civicsbot/internal/database"
	"github.com/example/civicsbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "civics.db")
	t.Setenv("CIVICS_DATABASE_DRIVER", database.DriverSQLite)
	t.Setenv("CIVICS_DATABASE_DSN", dsn)
	t.Setenv("CIVICS_LOG_MODE", "prod")
	return dsn
}

func TestMigrateCommand(t *testing.T) {
	dsn := setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")
	assert.FileExists(t, dsn)
}

func TestImportPlanReport(t *testing.T) {
	dsn := setupEnv(t)
	ctx := context.Background()

	file := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(file, []byte(
		"id,category,prompt,answer,explanation\n"+
			"g1,government,What is the supreme law of the land?,the Constitution,\n"+
			"h1,history,Who was the first President?,George Washington,\n"), 0o600))

	out, err := run(t, "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "processed 2, created 2, updated 0, skipped 0")

	db, err := database.Connect(ctx, database.DriverSQLite, dsn)
	require.NoError(t, err)
	learner, err := database.NewLearnerRepository(db).Register(ctx, &models.Learner{ChatID: 9, DailyGoal: 10, NotificationHour: 9})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	id := strconv.FormatInt(learner.ID, 10)

	out, err = run(t, "plan", "--learner", id)
	require.NoError(t, err)
	var plan struct {
		NewItems         []string `json:"new_items"`
		TotalRecommended int      `json:"total_recommended"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, []string{"g1", "h1"}, plan.NewItems)
	assert.Equal(t, 2, plan.TotalRecommended)

	out, err = run(t, "report", "--learner", id)
	require.NoError(t, err)
	var report struct {
		Level    int `json:"level"`
		BankSize int `json:"bank_size"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Level)
	assert.Equal(t, 2, report.BankSize)
}

func TestPlanCommand_RequiresLearner(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "plan")
	assert.Error(t, err)
}

func TestImportCommand_MissingFile(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "import", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
