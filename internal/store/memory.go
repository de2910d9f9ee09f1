package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

// sampleRecord seeds the fallback store so the interface is never empty
// on first run.
func sampleRecord() domain.LectureRecord {
	return domain.LectureRecord{
		ID:    "sample-photosynthesis",
		Title: "Photosynthesis converts light energy in",
		Summary: "Photosynthesis is the process by which plants convert light energy into " +
			"chemical energy. Chlorophyll in the chloroplasts absorbs light, which drives " +
			"the conversion of carbon dioxide and water into glucose and oxygen.",
		Flashcards: []domain.Flashcard{
			{Term: "Photosynthesis", Definition: "The process by which plants convert light energy into chemical energy stored in glucose."},
			{Term: "Chlorophyll", Definition: "The green pigment in chloroplasts that absorbs light for photosynthesis."},
		},
		Timestamp: time.Now(),
		OriginalText: "Photosynthesis converts light energy into chemical energy. " +
			"Chlorophyll absorbs light in the chloroplasts, driving the conversion of " +
			"carbon dioxide and water into glucose and oxygen.",
	}
}

// MemoryStore is the in-process fallback record backend. Nothing it
// holds survives a restart.
type MemoryStore struct {
	userScope string

	mu      sync.Mutex
	records []domain.LectureRecord
	subs    []*memorySubscription
	closed  bool
}

func NewMemoryStore(userScope string) *MemoryStore {
	if userScope == "" {
		userScope = "local"
	}
	return &MemoryStore{
		userScope: userScope,
		records:   []domain.LectureRecord{sampleRecord()},
	}
}

func (s *MemoryStore) UserScope() string {
	return s.userScope
}

func (s *MemoryStore) Mode() domain.StoreMode {
	return domain.StoreModeFallback
}

// Subscribe delivers the current list immediately, then a fresh snapshot
// after every Add.
func (s *MemoryStore) Subscribe(ctx context.Context) (ports.RecordSubscription, error) {
	sub := &memorySubscription{
		store: s,
		ch:    make(chan []domain.LectureRecord, 16),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	sub.push(s.snapshotLocked())
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		sub.Cancel()
	}()

	return sub, nil
}

// Add assigns a local identifier and an immediately-resolved timestamp,
// prepends the record, and broadcasts the new snapshot synchronously.
func (s *MemoryStore) Add(_ context.Context, record domain.LectureRecord) (string, error) {
	record.ID = uuid.NewString()
	record.Timestamp = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]domain.LectureRecord{record}, s.records...)
	snapshot := s.snapshotLocked()
	for _, sub := range s.subs {
		sub.push(snapshot)
	}
	return record.ID, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	return nil
}

func (s *MemoryStore) snapshotLocked() []domain.LectureRecord {
	out := make([]domain.LectureRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryStore) dropSubscription(sub *memorySubscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

type memorySubscription struct {
	store *MemoryStore
	ch    chan []domain.LectureRecord
	done  chan struct{}

	closeOnce sync.Once
}

func (s *memorySubscription) Snapshots() <-chan []domain.LectureRecord {
	return s.ch
}

// Err is always nil: the in-memory backend cannot fail after setup.
func (s *memorySubscription) Err() error {
	return nil
}

func (s *memorySubscription) Cancel() {
	s.store.dropSubscription(s)
	s.close()
}

func (s *memorySubscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		close(s.ch)
	})
}

// push delivers the latest snapshot, evicting the oldest buffered one if
// the consumer is behind. The newest snapshot always wins.
func (s *memorySubscription) push(snapshot []domain.LectureRecord) {
	select {
	case <-s.done:
		return
	default:
	}

	for {
		select {
		case s.ch <- snapshot:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
