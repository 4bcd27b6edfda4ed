package events

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/model"
)

var (
	deliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_notifier_deliveries_total",
		Help: "Events delivered to observers, by entity kind and change.",
	}, []string{"kind", "change"})
	observerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discovery_notifier_observer_panics_total",
		Help: "Observer callbacks that panicked and were recovered.",
	})
)

// Notifier is a registry of observers with synchronous fan-out in
// registration order. Publish and the subscribe replay are serialized so an
// observer never sees a replay interleaved with a live event.
type Notifier struct {
	snap Snapshotter
	log  zerolog.Logger

	deliver sync.Mutex // serializes Publish and replay

	mu     sync.Mutex
	subs   []*Subscription
	nextID uint64
}

// Subscription is the handle returned by Subscribe. The notifier holds the
// observer only until Close.
type Subscription struct {
	n         *Notifier
	id        uint64
	obs       Observer
	interests map[model.Kind]struct{}
}

func NewNotifier(snap Snapshotter, log zerolog.Logger) *Notifier {
	return &Notifier{snap: snap, log: log}
}

// Subscribe registers obs for the given interests and immediately delivers one
// update event per interest with the current state. KindAll replays every
// entity kind.
func (n *Notifier) Subscribe(ctx context.Context, obs Observer, interests ...model.Kind) (*Subscription, error) {
	if obs == nil {
		return nil, fmt.Errorf("%w: nil observer", model.ErrValidation)
	}
	if len(interests) == 0 {
		return nil, fmt.Errorf("%w: at least one interest is required", model.ErrValidation)
	}
	set := make(map[model.Kind]struct{}, len(interests))
	for _, k := range interests {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: unknown kind %q", model.ErrValidation, k)
		}
		set[k] = struct{}{}
	}

	n.deliver.Lock()
	defer n.deliver.Unlock()

	replay, err := n.replayEvents(ctx, obs, set)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.nextID++
	sub := &Subscription{n: n, id: n.nextID, obs: obs, interests: set}
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	for _, evt := range replay {
		n.dispatch(sub, evt)
	}
	return sub, nil
}

func (n *Notifier) replayEvents(ctx context.Context, obs Observer, set map[model.Kind]struct{}) ([]Event, error) {
	_, all := set[model.KindAll]
	var out []Event
	for _, k := range model.EntityKinds {
		if _, ok := set[k]; !ok && !all {
			continue
		}
		evt := Event{Kind: k, Change: model.ChangeUpdate, Replay: true}
		var err error
		switch k {
		case model.KindUser:
			evt.User, err = n.snap.CurrentUser(ctx)
		case model.KindRestaurant:
			evt.Restaurants, err = n.snap.CurrentRestaurants(ctx)
		case model.KindReview:
			if rs, ok := obs.(ReviewScoper); ok && rs.ReviewScope() != "" {
				evt.Reviews, err = n.snap.CurrentReviews(ctx, rs.ReviewScope())
			}
		case model.KindChat:
			evt.Chats, err = n.snap.CurrentChats(ctx)
		}
		if err != nil {
			return nil, &model.StoreError{Op: "replay " + string(k), Err: err}
		}
		out = append(out, evt)
	}
	return out, nil
}

// Close removes the subscription. Calling it more than once is a no-op.
// It is safe to call from within OnChange.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.n.remove(func(other *Subscription) bool { return other.id == s.id })
}

// Unsubscribe removes every subscription of obs. Observers whose dynamic
// value cannot be compared, such as a func or a struct holding one, can only
// be removed through their Subscription.
func (n *Notifier) Unsubscribe(obs Observer) {
	if obs == nil || !reflect.TypeOf(obs).Comparable() {
		return
	}
	n.remove(func(s *Subscription) bool { return sameObserver(s.obs, obs) })
}

// sameObserver reports a == b. A comparable static type can still hold an
// uncomparable value in an interface field, where == panics; such pairs are
// never equal.
func sameObserver(a, b Observer) (same bool) {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func (n *Notifier) remove(match func(*Subscription) bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.subs[:0]
	for _, s := range n.subs {
		if !match(s) {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(n.subs); i++ {
		n.subs[i] = nil
	}
	n.subs = kept
}

// Publish delivers evt to every observer interested in evt.Kind, in
// registration order, on the calling goroutine.
func (n *Notifier) Publish(evt Event) {
	n.deliver.Lock()
	defer n.deliver.Unlock()

	n.mu.Lock()
	targets := make([]*Subscription, 0, len(n.subs))
	for _, s := range n.subs {
		if s.wants(evt.Kind) {
			targets = append(targets, s)
		}
	}
	n.mu.Unlock()

	for _, s := range targets {
		if !n.active(s) {
			continue
		}
		n.dispatch(s, evt)
	}
}

// active reports whether s was not closed by an earlier observer in this round.
func (n *Notifier) active(s *Subscription) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, other := range n.subs {
		if other == s {
			return true
		}
	}
	return false
}

func (s *Subscription) wants(k model.Kind) bool {
	if _, ok := s.interests[model.KindAll]; ok {
		return true
	}
	_, ok := s.interests[k]
	return ok
}

func (n *Notifier) dispatch(s *Subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			observerPanicsTotal.Inc()
			n.log.Error().
				Str("kind", string(evt.Kind)).
				Str("change", string(evt.Change)).
				Interface("panic", r).
				Msg("observer panicked")
		}
	}()
	s.obs.OnChange(evt)
	deliveredTotal.WithLabelValues(string(evt.Kind), string(evt.Change)).Inc()
}

// Len returns the number of live subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
