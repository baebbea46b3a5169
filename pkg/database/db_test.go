package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func testExport(entries ...models.ExportEntry) *models.ScheduleExport {
	order := models.ExecutionOrder{}
	for _, e := range entries {
		order[e.InterventionID] = e.Rank
	}
	return &models.ScheduleExport{
		Window:  models.TaskWindow{Start: models.MustParseDate("2024-01-01"), End: models.MustParseDate("2024-01-10")},
		Entries: entries,
		Order:   order,
	}
}

func entry(rank int, id, start, end string) models.ExportEntry {
	return models.ExportEntry{
		Rank:           rank,
		InterventionID: id,
		StaffID:        "staff-" + id,
		WardID:         "ward-" + id,
		Start:          models.MustParseDate(start),
		End:            models.MustParseDate(end),
	}
}

func TestSaveSubmission_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	_, err := SaveSubmission(db, "task-1", 7, testExport(
		entry(2, "speech", "2024-01-04", "2024-01-05"),
		entry(1, "physio", "2024-01-01", "2024-01-02"),
	))
	require.NoError(t, err)

	sub, err := GetSubmission(db, "task-1")
	require.NoError(t, err)
	assert.Equal(t, uint(7), sub.KeyID)
	require.Len(t, sub.Entries, 2)
	assert.Equal(t, "physio", sub.Entries[0].InterventionID)
	assert.Equal(t, "speech", sub.Entries[1].InterventionID)
	assert.True(t, sub.Entries[1].EndDate.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestSaveSubmission_ReplacesPrevious(t *testing.T) {
	db := openTestDB(t)

	_, err := SaveSubmission(db, "task-1", 1, testExport(
		entry(1, "physio", "2024-01-01", "2024-01-02"),
		entry(2, "speech", "2024-01-04", "2024-01-05"),
	))
	require.NoError(t, err)
	_, err = SaveSubmission(db, "task-1", 1, testExport(entry(1, "ot", "2024-01-03", "2024-01-03")))
	require.NoError(t, err)

	sub, err := GetSubmission(db, "task-1")
	require.NoError(t, err)
	require.Len(t, sub.Entries, 1)
	assert.Equal(t, "ot", sub.Entries[0].InterventionID)

	var count int64
	db.Model(&SubmissionEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetSubmission_Missing(t *testing.T) {
	db := openTestDB(t)
	_, err := GetSubmission(db, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecordUsage_Upserts(t *testing.T) {
	db := openTestDB(t)
	day := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

	require.NoError(t, RecordUsage(db, 3, day, UsageDelta{Validations: 1}))
	require.NoError(t, RecordUsage(db, 3, day, UsageDelta{Validations: 1, Submissions: 1}))
	require.NoError(t, RecordUsage(db, 3, day.AddDate(0, 0, 1), UsageDelta{}))

	usage, err := ListUsage(db, 3, 30)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "2024-01-03", usage[0].Date)
	assert.Equal(t, 2, usage[1].RequestCount)
	assert.Equal(t, 2, usage[1].Validations)
	assert.Equal(t, 1, usage[1].Submissions)
}

func TestRequestsOn(t *testing.T) {
	db := openTestDB(t)
	day := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	n, err := RequestsOn(db, 5, day)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, RecordUsage(db, 5, day, UsageDelta{}))
	require.NoError(t, RecordUsage(db, 5, day, UsageDelta{Validations: 1}))
	require.NoError(t, RecordUsage(db, 6, day, UsageDelta{}))

	n, err = RequestsOn(db, 5, day)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = RequestsOn(db, 5, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
