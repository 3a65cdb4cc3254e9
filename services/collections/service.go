// Package collections is the durable per-user collection store: named sets of
// saved catalog items (favorites, watchlist, likes, want-to-watch) with toggle
// semantics, plus the activity feed and reviews that hang off them.
package collections

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"cinedeck/internal/database"
	"cinedeck/models"
)

// ErrUnknownCollection is returned for a collection name outside the
// supported set.
var ErrUnknownCollection = errors.New("unknown collection")

// activityTypes maps a collection to the verb recorded on toggle-on. Removal
// is never recorded.
var activityTypes = map[string]string{
	models.CollectionFavorites:   "favorited",
	models.CollectionWatchlist:   "watchlisted",
	models.CollectionLikes:       "liked",
	models.CollectionWantToWatch: "saved",
}

// Service persists collections to the database and mirrors each user's
// collections as JSON snapshots on a local filesystem for offline-first
// reads.
type Service struct {
	repo      *database.CollectionRepository
	mirrorFs  afero.Fs
	mirrorDir string

	activity sync.WaitGroup
}

// NewService creates the store. mirrorFs may be nil to disable the local
// mirror (tests usually pass afero.NewMemMapFs()).
func NewService(repo *database.CollectionRepository, mirrorFs afero.Fs, mirrorDir string) *Service {
	return &Service{repo: repo, mirrorFs: mirrorFs, mirrorDir: mirrorDir}
}

// IsMember reports membership of the composite (kind, itemID) in the named
// collection.
func (s *Service) IsMember(userID, collection string, kind models.MediaKind, itemID string) (bool, error) {
	if !models.KnownCollection(collection) {
		return false, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return s.repo.IsMember(userID, collection, kind, itemID)
}

// List returns all entries of the named collection, newest first.
func (s *Service) List(userID, collection string) ([]models.CollectionEntry, error) {
	if !models.KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return s.repo.List(userID, collection)
}

// Toggle flips membership of an item in the named collection and returns the
// new state. The database write completes before Toggle returns; the activity
// record emitted on toggle-on is fire-and-forget and can never fail or roll
// back the toggle itself.
func (s *Service) Toggle(userID, collection string, item models.CatalogItem) (bool, error) {
	if !models.KnownCollection(collection) {
		return false, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	member, err := s.repo.IsMember(userID, collection, item.Kind, item.ID)
	if err != nil {
		return false, err
	}

	if member {
		if err := s.repo.Delete(userID, collection, item.Kind, item.ID); err != nil {
			return true, err
		}
	} else {
		entry := models.CollectionEntry{
			ItemID:    item.ID,
			Kind:      item.Kind,
			Title:     item.Title,
			PosterURL: item.PosterURL,
			SavedAt:   time.Now(),
		}
		if err := s.repo.Insert(userID, collection, entry); err != nil {
			return false, err
		}
		s.recordActivity(userID, activityTypes[collection], item.Title)
	}

	s.writeMirror(userID)
	return !member, nil
}

// recordActivity appends an activity record asynchronously with a few bounded
// retries. Failures are logged and dropped.
func (s *Service) recordActivity(userID, activityType, title string) {
	if activityType == "" || title == "" {
		return
	}
	record := models.ActivityRecord{
		ID:        uuid.NewString(),
		Type:      activityType,
		Title:     title,
		Timestamp: time.Now(),
	}
	s.activity.Add(1)
	go func() {
		defer s.activity.Done()
		err := retry.Do(
			func() error { return s.repo.InsertActivity(userID, record) },
			retry.Attempts(3),
			retry.Delay(100*time.Millisecond),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			log.Printf("[collections] dropping activity record for user %s: %v", userID, err)
		}
	}()
}

// Flush waits for pending activity writes. Used on shutdown and in tests.
func (s *Service) Flush() {
	s.activity.Wait()
}

// Activity returns the user's recent activity, newest first.
func (s *Service) Activity(userID string, limit int) ([]models.ActivityRecord, error) {
	return s.repo.ListActivity(userID, limit)
}

// AddReview saves (or replaces) the user's review of an item.
func (s *Service) AddReview(userID string, review models.Review) (models.Review, error) {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	if err := s.repo.UpsertReview(userID, review); err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// Reviews returns all of the user's reviews, newest first.
func (s *Service) Reviews(userID string) ([]models.Review, error) {
	return s.repo.ListReviews(userID)
}

// DeleteReview removes the user's review of an item.
func (s *Service) DeleteReview(userID string, kind models.MediaKind, itemID string) error {
	return s.repo.DeleteReview(userID, kind, itemID)
}

// writeMirror snapshots all of a user's collections to the local filesystem.
// The mirror is an ephemeral read cache; failures are logged and ignored.
func (s *Service) writeMirror(userID string) {
	if s.mirrorFs == nil {
		return
	}

	snapshot := make(map[string][]models.CollectionEntry)
	for _, name := range []string{
		models.CollectionFavorites, models.CollectionWatchlist,
		models.CollectionLikes, models.CollectionWantToWatch,
	} {
		entries, err := s.repo.List(userID, name)
		if err != nil {
			log.Printf("[collections] mirror snapshot skipped for user %s: %v", userID, err)
			return
		}
		snapshot[name] = entries
	}

	buf, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("[collections] mirror encode failed for user %s: %v", userID, err)
		return
	}

	dir := path.Join(s.mirrorDir, "collections")
	if err := s.mirrorFs.MkdirAll(dir, 0755); err != nil {
		log.Printf("[collections] mirror mkdir failed: %v", err)
		return
	}
	if err := afero.WriteFile(s.mirrorFs, path.Join(dir, userID+".json"), buf, 0644); err != nil {
		log.Printf("[collections] mirror write failed for user %s: %v", userID, err)
	}
}

// ReadMirror loads the local snapshot of a user's collections, for callers
// that want collection state without touching the database.
func (s *Service) ReadMirror(userID string) (map[string][]models.CollectionEntry, error) {
	if s.mirrorFs == nil {
		return nil, errors.New("mirror disabled")
	}
	buf, err := afero.ReadFile(s.mirrorFs, path.Join(s.mirrorDir, "collections", userID+".json"))
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	var snapshot map[string][]models.CollectionEntry
	if err := json.Unmarshal(buf, &snapshot); err != nil {
		return nil, fmt.Errorf("decode mirror: %w", err)
	}
	return snapshot, nil
}
