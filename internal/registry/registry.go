package registry

import "time"

// Recipient is one subscribed alert target. Identity is the stable user
// identity (Telegram user ID as a string); Address is where alerts are
// delivered (the chat ID).
type Recipient struct {
	Identity     string    `json:"identity"`
	Address      string    `json:"address"`
	Name         string    `json:"name,omitempty"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Store is the process-wide recipient registry. Implementations must be safe
// for concurrent use: the subscription listener writes while the dispatcher
// reads. Subscribe is idempotent per identity; re-subscribing refreshes
// SubscribedAt and the delivery address without duplicating the entry.
type Store interface {
	Subscribe(identity, address, name string) (Recipient, error)
	Unsubscribe(identity string) error
	List() ([]Recipient, error)
}
