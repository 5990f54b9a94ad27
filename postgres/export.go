// Package postgres stores run results in a SQL database: account snapshots
// through gorm (PostgreSQL or MySQL) and the journal of rejected events through
// pgx (PostgreSQL only).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/etnz/payments"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Supported gorm drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// AccountSnapshot is the state of one account at the end of a run.
type AccountSnapshot struct {
	RunID     string          `gorm:"primaryKey;size:36" json:"run_id"`
	ClientID  uint16          `gorm:"primaryKey;autoIncrement:false" json:"client_id"`
	Available decimal.Decimal `gorm:"type:decimal(24,4);not null" json:"available"`
	Held      decimal.Decimal `gorm:"type:decimal(24,4);not null" json:"held"`
	Total     decimal.Decimal `gorm:"type:decimal(24,4);not null" json:"total"`
	Locked    bool            `gorm:"not null;default:false" json:"locked"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName specifies the table name
func (AccountSnapshot) TableName() string {
	return "account_snapshots"
}

// Open opens a gorm database with the given driver name and DSN.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Exporter writes snapshots into the account_snapshots table.
type Exporter struct {
	db        *gorm.DB
	log       logrus.FieldLogger
	batchSize int
}

// NewExporter creates an exporter and migrates its schema.
func NewExporter(db *gorm.DB, log logrus.FieldLogger) (*Exporter, error) {
	if err := db.AutoMigrate(&AccountSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Exporter{db: db, log: log, batchSize: 500}, nil
}

// Export upserts every account of s under runID. Exporting the same run twice
// overwrites its rows.
func (e *Exporter) Export(ctx context.Context, runID string, s payments.Snapshot) (int, error) {
	if s.Len() == 0 {
		return 0, nil
	}
	rows := make([]AccountSnapshot, 0, s.Len())
	for a := range s.Accounts() {
		rows = append(rows, AccountSnapshot{
			RunID:     runID,
			ClientID:  uint16(a.Client),
			Available: a.Available.Decimal(),
			Held:      a.Held.Decimal(),
			Total:     a.Total().Decimal(),
			Locked:    a.Locked,
		})
	}

	err := e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "held", "total", "locked"}),
	}).CreateInBatches(&rows, e.batchSize).Error
	if err != nil {
		return 0, fmt.Errorf("failed to export snapshot: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"run_id":   runID,
		"accounts": len(rows),
	}).Info("snapshot exported")
	return len(rows), nil
}

// Load reads back the snapshot exported under runID.
func (e *Exporter) Load(ctx context.Context, runID string) (payments.Snapshot, error) {
	var rows []AccountSnapshot
	err := e.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("client_id").
		Find(&rows).Error
	if err != nil {
		return payments.Snapshot{}, fmt.Errorf("failed to load snapshot %q: %w", runID, err)
	}

	accounts := make([]payments.Account, 0, len(rows))
	for _, r := range rows {
		acc := payments.NewAccount(payments.ClientID(r.ClientID))
		if acc.Available, err = payments.NewAmount(r.Available); err != nil {
			return payments.Snapshot{}, fmt.Errorf("client %d: %w", r.ClientID, err)
		}
		if acc.Held, err = payments.NewAmount(r.Held); err != nil {
			return payments.Snapshot{}, fmt.Errorf("client %d: %w", r.ClientID, err)
		}
		acc.Locked = r.Locked
		accounts = append(accounts, acc)
	}
	return payments.NewSnapshot(accounts...), nil
}
