// Package store provides the two record backends: a Firestore-backed
// per-user store with a live snapshot subscription, and an in-memory
// fallback used when the remote service is absent or failing.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"notedeck/internal/domain"
	"notedeck/internal/logging"
	"notedeck/internal/ports"
)

// ErrNotConfigured signals that remote persistence is not set up.
// Configuration absence is expected input, not a failure.
var ErrNotConfigured = errors.New("firestore is not configured")

// FirestoreConfig controls the remote record backend.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
	UserID          string
}

// FirestoreStore is the remote record backend. Records live in a
// per-user collection ordered by timestamp descending.
type FirestoreStore struct {
	client     *firestore.Client
	userScope  string
	collection string
}

// NewFirestoreStore resolves identity and connects. A configured user id
// is used as-is; otherwise an anonymous per-session identity is minted.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Collection == "" {
		cfg.Collection = "lectures"
	}

	opts := make([]option.ClientOption, 0, 1)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	userScope := strings.TrimSpace(cfg.UserID)
	if userScope == "" {
		userScope = "anon-" + uuid.NewString()
	}

	return &FirestoreStore{
		client:     client,
		userScope:  userScope,
		collection: cfg.Collection,
	}, nil
}

func (s *FirestoreStore) UserScope() string {
	return s.userScope
}

func (s *FirestoreStore) Mode() domain.StoreMode {
	return domain.StoreModeRemote
}

func (s *FirestoreStore) records() *firestore.CollectionRef {
	return s.client.Collection("users").Doc(s.userScope).Collection(s.collection)
}

// Subscribe opens a live query snapshot listener. Every change delivers
// a full replacement list; there is no incremental diffing here.
func (s *FirestoreStore) Subscribe(ctx context.Context) (ports.RecordSubscription, error) {
	subCtx, cancel := context.WithCancel(ctx)

	query := s.records().Query.OrderBy("timestamp", firestore.Desc)
	iter := query.Snapshots(subCtx)

	sub := &firestoreSubscription{
		ch:     make(chan []domain.LectureRecord, 16),
		cancel: cancel,
	}

	go func() {
		defer close(sub.ch)
		defer iter.Stop()

		log := logging.NewLogger(subCtx)
		for {
			snapshot, err := iter.Next()
			if err != nil {
				if subCtx.Err() == nil {
					log.Errorf("record subscription failed: %v", err)
					sub.setErr(err)
				}
				return
			}

			records, err := decodeSnapshot(snapshot)
			if err != nil {
				log.Errorf("record snapshot decode failed: %v", err)
				sub.setErr(err)
				return
			}

			select {
			case sub.ch <- records:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return sub, nil
}

// Add inserts the record with a server-assigned timestamp. The call
// returns on write acknowledgment; the resolved timestamp arrives later
// through the subscription.
func (s *FirestoreStore) Add(ctx context.Context, record domain.LectureRecord) (string, error) {
	doc := s.records().NewDoc()

	record.ID = ""
	if _, err := doc.Create(ctx, record); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func decodeSnapshot(snapshot *firestore.QuerySnapshot) ([]domain.LectureRecord, error) {
	records := make([]domain.LectureRecord, 0, snapshot.Size)
	for {
		doc, err := snapshot.Documents.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		var record domain.LectureRecord
		if err := doc.DataTo(&record); err != nil {
			return nil, err
		}
		record.ID = doc.Ref.ID
		if record.Flashcards == nil {
			record.Flashcards = []domain.Flashcard{}
		}
		records = append(records, record)
	}
	return records, nil
}

type firestoreSubscription struct {
	ch     chan []domain.LectureRecord
	cancel context.CancelFunc

	errMu sync.Mutex
	err   error
}

func (s *firestoreSubscription) Snapshots() <-chan []domain.LectureRecord {
	return s.ch
}

func (s *firestoreSubscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *firestoreSubscription) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *firestoreSubscription) Cancel() {
	s.cancel()
}
