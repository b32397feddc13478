// Package journal keeps an append-only record of webhook dispatches so
// operators can see what was sent, when, and with what outcome.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketRecords = []byte("records")
	bucketByTime  = []byte("by_time")
)

// Dispatch kinds.
const (
	KindLinkedIn      = "linkedin"
	KindSearch        = "search"
	KindInitialEmails = "initial_emails"
)

// Record is one dispatch attempt. Status is "success" or "error"; Message
// carries the user-facing outcome text.
type Record struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	CampaignName string    `json:"campaign_name,omitempty"`
	LeadCount    int       `json:"lead_count"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// Journal is a BoltDB-backed dispatch log.
type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketRecords, bucketByTime} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Append stores a record. ID and CreatedAt are filled in when empty.
func (j *Journal) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if err := tx.Bucket(bucketRecords).Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to store record: %w", err)
		}
		indexKey := makeIndexKey(rec.CreatedAt, rec.ID)
		if err := tx.Bucket(bucketByTime).Put(indexKey, []byte(rec.ID)); err != nil {
			return fmt.Errorf("failed to index record: %w", err)
		}
		return nil
	})
}

// List returns the newest records for userID, at most limit of them.
// limit <= 0 means no limit.
func (j *Journal) List(userID string, limit int) ([]Record, error) {
	var out []Record

	err := j.db.View(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		c := tx.Bucket(bucketByTime).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			data := records.Get(v)
			if data == nil {
				continue
			}
			var rec Record
			if err := json.Unmarshal(data, &rec); err != nil {
				continue
			}
			if rec.UserID != userID {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func makeIndexKey(t time.Time, id string) []byte {
	// Format: timestamp (RFC3339Nano) + ":" + id
	return []byte(t.UTC().Format(time.RFC3339Nano) + ":" + id)
}
