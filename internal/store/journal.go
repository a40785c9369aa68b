package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// JournalEntry is the persisted form of a marketplace event. The
// in-memory EventLog remains the ordering source of truth; the journal
// exists so event consumers can catch up across restarts.
type JournalEntry struct {
	Seq        uint64 `gorm:"primaryKey;autoIncrement:false"`
	Type       string
	ItemID     uint64
	Collection string
	TokenID    uint64
	Price      int64
	Seller     string
	Buyer      string
	EmittedAt  time.Time
}

// Journal persists marketplace events to a SQLite database.
type Journal struct {
	db *gorm.DB
}

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	if err := db.AutoMigrate(&JournalEntry{}); err != nil {
		return nil, fmt.Errorf("migrate journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append persists one event. Appending the same sequence twice is a
// no-op thanks to the primary key, which keeps retries safe.
func (j *Journal) Append(e domain.Event) error {
	entry := JournalEntry{
		Seq:        e.Seq,
		Type:       string(e.Type),
		ItemID:     e.ItemID,
		Collection: e.Collection.String(),
		TokenID:    e.TokenID,
		Price:      e.Price,
		Seller:     e.Seller,
		Buyer:      e.Buyer,
		EmittedAt:  e.EmittedAt,
	}
	return j.db.Save(&entry).Error
}

// Replay returns up to limit persisted events with sequence numbers
// greater than seq, in order. A non-positive limit means no cap.
func (j *Journal) Replay(seq uint64, limit int) ([]domain.Event, error) {
	q := j.db.Where("seq > ?", seq).Order("seq asc")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []JournalEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}

	events := make([]domain.Event, len(entries))
	for i, entry := range entries {
		collection, err := uuid.Parse(entry.Collection)
		if err != nil {
			return nil, fmt.Errorf("corrupt journal entry %d: %w", entry.Seq, err)
		}
		events[i] = domain.Event{
			Seq:        entry.Seq,
			Type:       domain.EventType(entry.Type),
			ItemID:     entry.ItemID,
			Collection: collection,
			TokenID:    entry.TokenID,
			Price:      entry.Price,
			Seller:     entry.Seller,
			Buyer:      entry.Buyer,
			EmittedAt:  entry.EmittedAt,
		}
	}
	return events, nil
}
