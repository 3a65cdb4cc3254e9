package database

import (
	"database/sql"
	"fmt"
	"time"

	"cinedeck/models"
)

// CollectionRepository owns all reads and writes for per-user collections,
// activity records and reviews.
type CollectionRepository struct {
	conn *sql.DB
}

func NewCollectionRepository(conn *sql.DB) *CollectionRepository {
	return &CollectionRepository{conn: conn}
}

// IsMember reports whether the composite (kind, itemID) is saved in the named
// collection for the user.
func (r *CollectionRepository) IsMember(userID, collection string, kind models.MediaKind, itemID string) (bool, error) {
	var one int
	err := r.conn.QueryRow(
		`SELECT 1 FROM collection_items WHERE user_id = ? AND collection = ? AND kind = ? AND item_id = ?`,
		userID, collection, kind, itemID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// Insert saves an entry into the named collection. Re-inserting an existing
// entry refreshes its metadata but keeps the original saved_at.
func (r *CollectionRepository) Insert(userID, collection string, entry models.CollectionEntry) error {
	_, err := r.conn.Exec(
		`INSERT INTO collection_items (user_id, collection, kind, item_id, title, poster_url, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, collection, kind, item_id)
		 DO UPDATE SET title = excluded.title, poster_url = excluded.poster_url`,
		userID, collection, entry.Kind, entry.ItemID, entry.Title, entry.PosterURL, entry.SavedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert collection entry: %w", err)
	}
	return nil
}

// Delete removes an entry from the named collection.
func (r *CollectionRepository) Delete(userID, collection string, kind models.MediaKind, itemID string) error {
	_, err := r.conn.Exec(
		`DELETE FROM collection_items WHERE user_id = ? AND collection = ? AND kind = ? AND item_id = ?`,
		userID, collection, kind, itemID,
	)
	if err != nil {
		return fmt.Errorf("delete collection entry: %w", err)
	}
	return nil
}

// List returns every entry of the named collection, most recently saved first.
func (r *CollectionRepository) List(userID, collection string) ([]models.CollectionEntry, error) {
	rows, err := r.conn.Query(
		`SELECT kind, item_id, title, poster_url, saved_at
		 FROM collection_items
		 WHERE user_id = ? AND collection = ?
		 ORDER BY saved_at DESC, item_id`,
		userID, collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	defer rows.Close()

	var entries []models.CollectionEntry
	for rows.Next() {
		var e models.CollectionEntry
		if err := rows.Scan(&e.Kind, &e.ItemID, &e.Title, &e.PosterURL, &e.SavedAt); err != nil {
			return nil, fmt.Errorf("scan collection entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertActivity appends one activity record to the user's profile.
func (r *CollectionRepository) InsertActivity(userID string, record models.ActivityRecord) error {
	_, err := r.conn.Exec(
		`INSERT INTO recent_activity (id, user_id, type, title, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID, userID, record.Type, record.Title, record.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivity returns the user's most recent activity records, newest first.
func (r *CollectionRepository) ListActivity(userID string, limit int) ([]models.ActivityRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.conn.Query(
		`SELECT id, type, title, created_at FROM recent_activity
		 WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		var rec models.ActivityRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpsertReview saves the user's review for an item, replacing any previous
// review of the same item.
func (r *CollectionRepository) UpsertReview(userID string, review models.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	_, err := r.conn.Exec(
		`INSERT INTO reviews (id, user_id, kind, item_id, title, body, rating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, kind, item_id)
		 DO UPDATE SET body = excluded.body, rating = excluded.rating, title = excluded.title, created_at = excluded.created_at`,
		review.ID, userID, review.Kind, review.ItemID, review.Title, review.Body, review.Rating, review.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// ListReviews returns all of the user's reviews, newest first.
func (r *CollectionRepository) ListReviews(userID string) ([]models.Review, error) {
	rows, err := r.conn.Query(
		`SELECT id, kind, item_id, title, body, rating, created_at
		 FROM reviews WHERE user_id = ? ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rev models.Review
		if err := rows.Scan(&rev.ID, &rev.Kind, &rev.ItemID, &rev.Title, &rev.Body, &rev.Rating, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

// DeleteReview removes the user's review of an item.
func (r *CollectionRepository) DeleteReview(userID string, kind models.MediaKind, itemID string) error {
	_, err := r.conn.Exec(
		`DELETE FROM reviews WHERE user_id = ? AND kind = ? AND item_id = ?`,
		userID, kind, itemID,
	)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
