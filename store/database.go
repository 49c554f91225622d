package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"assistantwire/stream"
)

var ErrNotFound = errors.New("event not found")

type Database interface {
	SaveEvent(ev stream.Event, receivedAt time.Time) (*EventRecord, error)
	GetEvent(eventID string) (*EventRecord, error)
	EventsByObject(objectID string) ([]*EventRecord, error)
	EventsByThread(threadID string) ([]*EventRecord, error)
	// Prune deletes every event received before the cutoff.
	Prune(before time.Time) (int64, error)
	Close() error
}

// EventRecord is one archived stream event. Payload holds the event in its
// wire form so it decodes back through stream.Decode.
type EventRecord struct {
	ID         uint      `gorm:"primaryKey"`
	EventID    string    `gorm:"uniqueIndex"`
	Event      string    `gorm:"index"`
	ObjectID   string    `gorm:"index"`
	ThreadID   string    `gorm:"index"`
	ReceivedAt time.Time `gorm:"index"`
	Payload    string
}

func (r *EventRecord) Decode() (stream.Event, error) {
	return stream.Decode([]byte(r.Payload))
}

type DB struct {
	*gorm.DB
}

func NewDB(dsn string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open archive %s: %w", dsn, err)
	}

	// sqlite only tolerates one writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("unable to migrate archive: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) SaveEvent(ev stream.Event, receivedAt time.Time) (*EventRecord, error) {
	payload, err := stream.Encode(ev)
	if err != nil {
		return nil, err
	}
	record := &EventRecord{
		EventID:    uuid.NewString(),
		Event:      string(ev.Type()),
		ObjectID:   ev.ObjectID(),
		ThreadID:   ev.ThreadID(),
		ReceivedAt: receivedAt.UTC(),
		Payload:    string(payload),
	}
	if err := db.DB.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (db *DB) GetEvent(eventID string) (*EventRecord, error) {
	var record EventRecord
	err := db.DB.Where("event_id = ?", eventID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (db *DB) EventsByObject(objectID string) ([]*EventRecord, error) {
	var records []*EventRecord
	err := db.DB.Where("object_id = ?", objectID).Order("id").Find(&records).Error
	return records, err
}

func (db *DB) EventsByThread(threadID string) ([]*EventRecord, error) {
	var records []*EventRecord
	err := db.DB.Where("thread_id = ?", threadID).Order("id").Find(&records).Error
	return records, err
}

func (db *DB) Prune(before time.Time) (int64, error) {
	res := db.DB.Where("received_at < ?", before.UTC()).Delete(&EventRecord{})
	return res.RowsAffected, res.Error
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
