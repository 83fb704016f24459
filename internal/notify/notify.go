// Package notify delivers user-facing notifications. Emitters are fire and
// forget from the ledger's point of view: a failed delivery is logged by
// the caller and never rolls back the mutation that produced it.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"anjo/internal/amqp"
	"anjo/internal/log"

	"github.com/google/uuid"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

// Notification is one message shown to a user.
type Notification struct {
	ID      string    `json:"id"`
	Owner   string    `json:"-"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Kind    Kind      `json:"kind"`
	Read    bool      `json:"read"`
	Date    time.Time `json:"date"`
}

// New builds an unread notification with a fresh id.
func New(owner, title, message string, kind Kind, now time.Time) Notification {
	return Notification{
		ID:      uuid.Must(uuid.NewV7()).String(),
		Owner:   owner,
		Title:   title,
		Message: message,
		Kind:    kind,
		Date:    now,
	}
}

type Emitter interface {
	Emit(ctx context.Context, n Notification) error
}

// DefaultInboxSize bounds how many notifications an owner keeps.
const DefaultInboxSize = 50

// Inbox keeps the latest notifications of every owner in memory, newest
// first.
type Inbox struct {
	mu    sync.Mutex
	size  int
	items map[string][]Notification
}

func NewInbox(size int) *Inbox {
	if size < 1 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size, items: make(map[string][]Notification)}
}

func (b *Inbox) Emit(_ context.Context, n Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := append([]Notification{n}, b.items[n.Owner]...)
	if len(list) > b.size {
		list = list[:b.size]
	}
	b.items[n.Owner] = list
	return nil
}

// List returns a copy of owner's notifications, newest first.
func (b *Inbox) List(owner string) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, len(b.items[owner]))
	copy(out, b.items[owner])
	return out
}

func (b *Inbox) UnreadCount(owner string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, item := range b.items[owner] {
		if !item.Read {
			n++
		}
	}
	return n
}

func (b *Inbox) MarkAllRead(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items[owner] {
		b.items[owner][i].Read = true
	}
}

func (b *Inbox) Clear(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, owner)
}

// LogEmitter writes notifications to a structured log.
type LogEmitter struct {
	logger *log.Logger
}

func NewLogEmitter(logger *log.Logger) *LogEmitter {
	return &LogEmitter{logger: logger.WithComponent(log.ComponentNotify)}
}

func (e *LogEmitter) Emit(ctx context.Context, n Notification) error {
	e.logger.InfoContext(ctx, "Notification",
		"id", n.ID,
		log.FieldOwner, n.Owner,
		"kind", string(n.Kind),
		"title", n.Title,
		"message", n.Message)
	return nil
}

// Fanout emits to every emitter and joins their errors.
type Fanout []Emitter

func (f Fanout) Emit(ctx context.Context, n Notification) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		errs = append(errs, e.Emit(ctx, n))
	}
	return errors.Join(errs...)
}

// Publisher is the part of the AMQP client the Broker uses.
type Publisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// Broker forwards notifications to a message queue.
type Broker struct {
	pub Publisher
	now func() time.Time
}

func NewBroker(pub Publisher) *Broker {
	return &Broker{pub: pub, now: time.Now}
}

func (b *Broker) Emit(ctx context.Context, n Notification) error {
	return b.pub.PublishNotification(ctx, ToMessage(n, b.now()))
}

// ToMessage converts n to its queue representation.
func ToMessage(n Notification, sent time.Time) *amqp.NotificationMessage {
	return &amqp.NotificationMessage{
		ID:        n.ID,
		Owner:     n.Owner,
		Title:     n.Title,
		Message:   n.Message,
		Kind:      string(n.Kind),
		Date:      n.Date,
		Timestamp: sent,
	}
}

// FromMessage converts a queued message back. The result is unread.
func FromMessage(m *amqp.NotificationMessage) Notification {
	kind := Kind(m.Kind)
	switch kind {
	case KindInfo, KindSuccess, KindWarning:
	default:
		kind = KindInfo
	}
	return Notification{
		ID:      m.ID,
		Owner:   m.Owner,
		Title:   m.Title,
		Message: m.Message,
		Kind:    kind,
		Date:    m.Date,
	}
}
