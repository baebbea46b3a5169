package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Key       string     `gorm:"unique;not null" json:"-"`
	Name      string     `gorm:"not null" json:"name"`
	Preview   string     `json:"preview"`
	RateLimit int        `gorm:"default:10000" json:"rate_limit"`
	Revoked   bool       `gorm:"not null;default:false" json:"revoked"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table, one row per key and day
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	Validations  int    `gorm:"default:0" json:"validations"`
	Submissions  int    `gorm:"default:0" json:"submissions"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScheduleSubmission is the last accepted schedule for a task
type ScheduleSubmission struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	TaskID      string            `gorm:"uniqueIndex;not null" json:"task_id"`
	KeyID       uint              `json:"key_id"`
	WindowStart time.Time         `gorm:"not null" json:"window_start"`
	WindowEnd   time.Time         `gorm:"not null" json:"window_end"`
	CreatedAt   time.Time         `json:"created_at"`
	Entries     []SubmissionEntry `gorm:"constraint:OnDelete:CASCADE" json:"entries"`
}

// SubmissionEntry is one intervention of a submitted schedule
type SubmissionEntry struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	SubmissionID   uint      `gorm:"index;not null" json:"-"`
	Rank           int       `gorm:"column:exec_rank;not null" json:"rank"`
	InterventionID string    `gorm:"not null" json:"intervention_id"`
	StaffID        string    `gorm:"not null" json:"staff_id"`
	WardID         string    `gorm:"not null" json:"ward_id"`
	StartDate      time.Time `gorm:"not null" json:"start"`
	EndDate        time.Time `gorm:"not null" json:"end"`
}

// Open connects to Postgres when dsn is set, otherwise to SQLite at dataPath,
// and migrates the schema
func Open(dsn, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &ScheduleSubmission{}, &SubmissionEntry{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// UsageDelta is what one request adds to a key's daily usage
type UsageDelta struct {
	Validations int
	Submissions int
}

// RecordUsage adds one request plus delta to today's usage row in a single upsert
func RecordUsage(db *gorm.DB, keyID uint, day time.Time, delta UsageDelta) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"validations":   gorm.Expr("validations + ?", delta.Validations),
			"submissions":   gorm.Expr("submissions + ?", delta.Submissions),
		}),
	}).Create(&APIUsage{
		KeyID:        keyID,
		Date:         day.Format("2006-01-02"),
		RequestCount: 1,
		Validations:  delta.Validations,
		Submissions:  delta.Submissions,
	}).Error
}

// RequestsOn returns how many requests a key has made on the given day
func RequestsOn(db *gorm.DB, keyID uint, day time.Time) (int, error) {
	var usage APIUsage
	err := db.Where("key_id = ? AND date = ?", keyID, day.Format("2006-01-02")).Limit(1).Find(&usage).Error
	return usage.RequestCount, err
}

// ListUsage returns the most recent daily usage rows of a key
func ListUsage(db *gorm.DB, keyID uint, limit int) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(limit).Find(&usage).Error
	return usage, err
}

// SaveSubmission stores an export for a task, replacing any earlier submission
// for the same task. Either everything is written or nothing is.
func SaveSubmission(db *gorm.DB, taskID string, keyID uint, export *models.ScheduleExport) (*ScheduleSubmission, error) {
	sub := &ScheduleSubmission{
		TaskID:      taskID,
		KeyID:       keyID,
		WindowStart: export.Window.Start.Time(),
		WindowEnd:   export.Window.End.Time(),
	}
	for _, e := range export.Entries {
		sub.Entries = append(sub.Entries, SubmissionEntry{
			Rank:           e.Rank,
			InterventionID: e.InterventionID,
			StaffID:        e.StaffID,
			WardID:         e.WardID,
			StartDate:      e.Start.Time(),
			EndDate:        e.End.Time(),
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var previous ScheduleSubmission
		err := tx.Where("task_id = ?", taskID).First(&previous).Error
		switch {
		case err == nil:
			if err := tx.Where("submission_id = ?", previous.ID).Delete(&SubmissionEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&previous).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(sub).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save submission for task %s: %w", taskID, err)
	}
	return sub, nil
}

// GetSubmission loads the submission for a task with its entries in rank order
func GetSubmission(db *gorm.DB, taskID string) (*ScheduleSubmission, error) {
	var sub ScheduleSubmission
	err := db.Preload("Entries", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("exec_rank asc")
	}).Where("task_id = ?", taskID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
