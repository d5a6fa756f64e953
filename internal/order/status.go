package order

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var forward = map[Status]Status{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusShipped,
	StatusShipped:   StatusDelivered,
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether stock is still reserved and may be released.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition allows one forward step, or cancellation before shipping.
func CanTransition(from, to Status) bool {
	if to == StatusCancelled {
		return from.Cancellable()
	}
	next, ok := forward[from]
	return ok && next == to
}
