// Package events fans out entity change notifications to in-process observers.
package events

import (
	"github.com/mymichlin/discovery/internal/model"
)

// Event describes a committed change to one entity kind. Only the field
// matching Kind is populated.
type Event struct {
	Kind   model.Kind
	Change model.ChangeKind
	// Replay marks the synthetic update delivered on subscribe.
	Replay bool

	User        *model.User
	Restaurants []*model.Restaurant
	Reviews     []*model.Review
	Chats       []*model.ChatMessage
}

// Observer receives events synchronously on the publishing goroutine.
// OnChange must not mutate the catalog or subscribe new observers.
type Observer interface {
	OnChange(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnChange(e Event) { f(e) }

// ReviewScoper is implemented by observers interested in the reviews of a
// single restaurant. It scopes the review replay on subscribe.
type ReviewScoper interface {
	ReviewScope() string
}

// Len returns the number of records the event carries.
func (e Event) Len() int {
	switch e.Kind {
	case model.KindUser:
		if e.User != nil {
			return 1
		}
		return 0
	case model.KindRestaurant:
		return len(e.Restaurants)
	case model.KindReview:
		return len(e.Reviews)
	case model.KindChat:
		return len(e.Chats)
	}
	return 0
}
