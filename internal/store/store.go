// Package store persists conversations as a single ordered collection
// under one key of the durable medium. The whole-collection
// read-modify-write keeps ordering and eviction logic in one place,
// which is acceptable at the small cap it enforces.
package store

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danteocualesjr/ai-chatbot/internal/model/chat"
	"github.com/danteocualesjr/ai-chatbot/internal/storage"
)

// StorageKey is the single key holding the conversation collection.
const StorageKey = "ai-chatbot-conversations"

const (
	// DefaultMaxConversations caps the stored collection.
	DefaultMaxConversations = 50

	// quotaRetryKeep is how many conversations survive the aggressive
	// eviction after a quota-rejected write.
	quotaRetryKeep = 10
)

// Store reads and writes the conversation collection. The mutex
// serializes whole read-modify-write cycles: debounced saves fire on
// timer goroutines while deletes and listings arrive on HTTP ones, and
// an unserialized in-flight save could write a deleted conversation
// back.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	max int
}

// New returns a Store over the given medium. maxConversations <= 0
// falls back to DefaultMaxConversations.
func New(kv storage.KV, maxConversations int) *Store {
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	return &Store{kv: kv, max: maxConversations}
}

// LoadAll returns every stored conversation, newest first. It fails
// soft: an absent key, an unreadable medium or an unparseable blob all
// yield an empty slice, and structurally invalid records are dropped.
func (s *Store) LoadAll() []chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAll()
}

// loadAll is LoadAll without locking. Callers hold mu.
func (s *Store) loadAll() []chat.Conversation {
	data, err := s.kv.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("failed to read conversations, starting empty")
		}
		return []chat.Conversation{}
	}

	var records []chat.Conversation
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Msg("stored conversations are corrupt, starting empty")
		return []chat.Conversation{}
	}

	valid := records[:0]
	for _, record := range records {
		if record.Valid() {
			valid = append(valid, record)
		}
	}
	return valid
}

// LoadOne looks up a conversation by id.
func (s *Store) LoadOne(id string) (chat.Conversation, bool) {
	for _, conv := range s.LoadAll() {
		if conv.ID == id {
			return conv, true
		}
	}
	return chat.Conversation{}, false
}

// Save upserts a conversation, re-sorts the collection by recency and
// evicts beyond the cap. Quota rejections trigger one retry keeping
// only the 10 most recently updated conversations; if that also fails
// the save is abandoned without surfacing an error.
func (s *Store) Save(conv chat.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations := s.loadAll()

	replaced := false
	for i := range conversations {
		if conversations[i].ID == conv.ID {
			conversations[i] = conv
			replaced = true
			break
		}
	}
	if !replaced {
		conversations = append(conversations, conv)
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt > conversations[j].UpdatedAt
	})
	if len(conversations) > s.max {
		conversations = conversations[:s.max]
	}

	if err := s.write(conversations); err != nil {
		if !errors.Is(err, storage.ErrQuotaExceeded) {
			log.Error().Err(err).Str("id", conv.ID).Msg("failed to save conversation")
			return
		}
		if len(conversations) > quotaRetryKeep {
			conversations = conversations[:quotaRetryKeep]
		}
		if err := s.write(conversations); err != nil {
			log.Error().Err(err).Str("id", conv.ID).Msg("failed to save conversation after eviction")
		}
	}
}

// Delete removes a conversation by id. Absent ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations := s.loadAll()
	filtered := conversations[:0]
	for _, conv := range conversations {
		if conv.ID != id {
			filtered = append(filtered, conv)
		}
	}
	if err := s.write(filtered); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to delete conversation")
	}
}

// ClearAll removes the entire collection.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(StorageKey); err != nil {
		log.Error().Err(err).Msg("failed to clear conversations")
	}
}

func (s *Store) write(conversations []chat.Conversation) error {
	data, err := json.Marshal(conversations)
	if err != nil {
		return err
	}
	return s.kv.Set(StorageKey, data)
}
