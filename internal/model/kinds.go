package model

// Kind names an entity type. KindAll is only meaningful as a subscription interest.
type Kind string

const (
	KindUser       Kind = "user"
	KindRestaurant Kind = "restaurant"
	KindReview     Kind = "review"
	KindChat       Kind = "chat"
	KindAll        Kind = "all"
)

// ChangeKind describes what happened to the records carried by an event.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
)

// EntityKinds lists the concrete kinds in replay order.
var EntityKinds = []Kind{KindUser, KindRestaurant, KindReview, KindChat}

// Valid reports whether k is a concrete kind or KindAll.
func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindRestaurant, KindReview, KindChat, KindAll:
		return true
	}
	return false
}
