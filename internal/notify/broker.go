// Package notify carries user-facing notifications from operations to
// whichever shell is presenting them.
package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const subscriberBufferSize = 16

// Variant selects how a notification is rendered.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Toast is one notification.
type Toast struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	Blocking    bool      `json:"blocking"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier is what operations need to surface an outcome.
type Notifier interface {
	Success(message string) Toast
	Error(message string) Toast
	Alert(message string) Toast
}

// Broker keeps the visible toasts and fans new ones out to subscribers.
type Broker struct {
	mu          sync.RWMutex
	toasts      []Toast
	subscribers map[chan Toast]struct{}
	logger      zerolog.Logger
	now         func() time.Time
}

// NewBroker constructs an empty broker.
func NewBroker(logger zerolog.Logger) *Broker {
	return &Broker{
		subscribers: make(map[chan Toast]struct{}),
		logger:      logger.With().Str("component", "notify_broker").Logger(),
		now:         time.Now,
	}
}

// Show adds toast and returns it with its id assigned.
func (b *Broker) Show(toast Toast) Toast {
	toast.ID = uuid.NewString()
	toast.Title = strings.TrimSpace(toast.Title)
	toast.Description = strings.TrimSpace(toast.Description)
	if toast.Variant == "" {
		toast.Variant = VariantDefault
	}
	toast.CreatedAt = b.now().UTC()

	b.mu.Lock()
	b.toasts = append(b.toasts, toast)
	for ch := range b.subscribers {
		select {
		case ch <- toast:
		default:
			b.logger.Warn().Str("toast_id", toast.ID).Msg("dropping notification for slow subscriber")
		}
	}
	b.mu.Unlock()

	return toast
}

// Success shows a success toast.
func (b *Broker) Success(message string) Toast {
	return b.Show(Toast{Description: message, Variant: VariantSuccess})
}

// Error shows a destructive toast.
func (b *Broker) Error(message string) Toast {
	return b.Show(Toast{Description: message, Variant: VariantDestructive})
}

// Alert shows a destructive toast the user has to acknowledge.
func (b *Broker) Alert(message string) Toast {
	return b.Show(Toast{Description: message, Variant: VariantDestructive, Blocking: true})
}

// Dismiss removes the toast with id. It reports whether one was removed.
func (b *Broker) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, toast := range b.toasts {
		if toast.ID == id {
			b.toasts = append(b.toasts[:i], b.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every visible toast.
func (b *Broker) Clear() {
	b.mu.Lock()
	b.toasts = nil
	b.mu.Unlock()
}

// List returns the visible toasts, oldest first.
func (b *Broker) List() []Toast {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Toast, len(b.toasts))
	copy(out, b.toasts)
	return out
}

// Subscribe streams toasts shown from now on. The returned func unsubscribes
// and closes the channel.
func (b *Broker) Subscribe() (<-chan Toast, func()) {
	ch := make(chan Toast, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}
