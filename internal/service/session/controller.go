// Package session owns the live message sequence of the currently open
// conversation. Identity is minted lazily on first persistence, saves
// are debounced on the trailing edge, and switching conversations fully
// replaces the working set.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danteocualesjr/ai-chatbot/internal/model/chat"
	"github.com/danteocualesjr/ai-chatbot/internal/store"
)

var (
	ErrEmptyMessage         = errors.New("session: a user turn must carry text or an image")
	ErrConversationNotFound = errors.New("session: conversation not found")
)

// DefaultDebounce is the quiet period before a mutated session is
// persisted. Each new mutation restarts the wait.
const DefaultDebounce = 500 * time.Millisecond

// Listener is notified whenever the active conversation id changes:
// lazy mint on first save, selection, new chat, or deletion of the open
// conversation. An empty id means the session is fresh and unsaved.
type Listener func(id string)

// Controller is the single active-session state machine.
type Controller struct {
	store    *store.Store
	debounce time.Duration

	mu        sync.Mutex
	messages  []chat.Message
	id        string
	title     string
	createdAt int64
	persisted bool
	saveGen   uint64
	saveTimer *time.Timer
	listeners []Listener
}

// New returns a Controller in the fresh state, holding only the seed
// greeting. debounce <= 0 falls back to DefaultDebounce.
func New(st *store.Store, debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Controller{store: st, debounce: debounce}
	c.reset()
	return c
}

// OnConversationChange registers a listener for id changes.
func (c *Controller) OnConversationChange(fn Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// ID returns the active conversation id, empty while unsaved.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Messages returns a copy of the in-memory sequence.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}

// Select switches the session to the conversation with the given id.
// An empty id starts a fresh conversation. An unknown id also resets to
// fresh but reports ErrConversationNotFound, so callers never silently
// adopt an identity the store does not know. Any pending save for the
// conversation being left is cancelled.
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	c.cancelPendingSave()

	if id == "" {
		c.reset()
		c.mu.Unlock()
		c.notify("")
		return nil
	}

	conv, ok := c.store.LoadOne(id)
	if !ok || len(conv.Messages) == 0 {
		c.reset()
		c.mu.Unlock()
		c.notify("")
		return ErrConversationNotFound
	}

	c.messages = append([]chat.Message(nil), conv.Messages...)
	c.id = conv.ID
	c.title = conv.Title
	c.createdAt = conv.CreatedAt
	c.persisted = true
	c.mu.Unlock()

	c.notify(conv.ID)
	return nil
}

// NewChat resets the session to a fresh, unsaved conversation.
func (c *Controller) NewChat() {
	c.mu.Lock()
	c.cancelPendingSave()
	c.reset()
	c.mu.Unlock()
	c.notify("")
}

// AppendUser appends a user turn. Turns with neither text nor image are
// rejected.
func (c *Controller) AppendUser(text, image string) error {
	msg := chat.NewUserMessage(text, image)
	if !msg.HasContent() {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.scheduleSave()
	c.mu.Unlock()
	return nil
}

// AppendAssistant appends an assistant turn.
func (c *Controller) AppendAssistant(text string) {
	c.mu.Lock()
	c.messages = append(c.messages, chat.NewAssistantMessage(text))
	c.scheduleSave()
	c.mu.Unlock()
}

// AppendNotice appends a local assistant-authored notice turn. Notices
// are shown in the conversation but never persisted or sent upstream.
func (c *Controller) AppendNotice(text string) {
	c.mu.Lock()
	c.messages = append(c.messages, chat.NoticeMessage(text))
	c.mu.Unlock()
}

// ConversationDeleted clears the session to fresh if the deleted id is
// the one currently open. Unrelated deletions leave the session alone.
func (c *Controller) ConversationDeleted(id string) {
	c.mu.Lock()
	if c.id != id {
		c.mu.Unlock()
		return
	}
	c.cancelPendingSave()
	c.reset()
	c.mu.Unlock()
	c.notify("")
}

// Flush persists a pending mutation immediately, bypassing the
// debounce. Used on shutdown and in tests.
func (c *Controller) Flush() {
	c.mu.Lock()
	pending := c.saveTimer != nil
	if pending {
		c.saveTimer.Stop()
	}
	gen := c.saveGen
	c.mu.Unlock()
	if pending {
		c.save(gen)
	}
}

// Close cancels any pending save without applying it.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelPendingSave()
	c.mu.Unlock()
}

// reset returns the session to the fresh seed-only state. Callers hold mu.
func (c *Controller) reset() {
	c.messages = []chat.Message{chat.SeedMessage()}
	c.id = ""
	c.title = ""
	c.createdAt = 0
	c.persisted = false
}

// scheduleSave restarts the trailing-edge debounce timer. Callers hold mu.
func (c *Controller) scheduleSave() {
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveGen++
	gen := c.saveGen
	c.saveTimer = time.AfterFunc(c.debounce, func() {
		c.save(gen)
	})
}

// cancelPendingSave drops the pending timer and invalidates any save
// already racing for the lock. Callers hold mu.
func (c *Controller) cancelPendingSave() {
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
	c.saveGen++
}

// save snapshots and persists the session. A stale generation means the
// save was cancelled or superseded and is dropped whole.
func (c *Controller) save(gen uint64) {
	c.mu.Lock()
	if gen != c.saveGen {
		c.mu.Unlock()
		return
	}
	// Invalidate the generation so a Flush racing the timer persists
	// at most once.
	c.saveGen++
	c.saveTimer = nil

	snapshot := make([]chat.Message, 0, len(c.messages))
	hasUser := false
	firstUserText := ""
	for _, msg := range c.messages {
		if msg.Local {
			continue
		}
		if msg.Role == chat.RoleUser && !hasUser {
			hasUser = true
			firstUserText = msg.Content
		}
		// Attachments are outbound-only; the stored record carries
		// role and content.
		msg.Image = ""
		snapshot = append(snapshot, msg)
	}
	if !hasUser {
		c.mu.Unlock()
		return
	}

	minted := false
	if c.id == "" {
		c.id = chat.NewConversationID()
		minted = true
	}
	now := time.Now().UnixMilli()
	if c.createdAt == 0 {
		c.createdAt = now
	}
	if !c.persisted {
		c.title = chat.TitleFromMessage(firstUserText)
		c.persisted = true
	}

	conv := chat.Conversation{
		ID:        c.id,
		Title:     c.title,
		Messages:  snapshot,
		CreatedAt: c.createdAt,
		UpdatedAt: now,
	}
	c.mu.Unlock()

	c.store.Save(conv)
	log.Debug().Str("id", conv.ID).Int("messages", len(conv.Messages)).Msg("conversation saved")

	if minted {
		c.notify(conv.ID)
	}
}

// notify fans the id change out to listeners. Never called with mu held.
func (c *Controller) notify(id string) {
	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(id)
	}
}
