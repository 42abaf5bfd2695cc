package engage

// Phase tracks where an entry's values came from. Reconciliation order only
// makes sense with this explicit: a server response always outranks a local
// hint, and a local hint only outranks nothing.
type Phase int

const (
	// PhaseUnknown means no cached value exists; render 0 / not liked.
	PhaseUnknown Phase = iota
	// PhaseLocalHint means liked was seeded from the durable local cache.
	// The hint cache never stores counts, so count is still 0.
	PhaseLocalHint
	// PhaseServerConfirmed means both values came from the Like Store and
	// are authoritative until the next mutation.
	PhaseServerConfirmed
)

func (p Phase) String() string {
	switch p {
	case PhaseLocalHint:
		return "local-hint"
	case PhaseServerConfirmed:
		return "server-confirmed"
	default:
		return "unknown"
	}
}

// Entry is the engagement state of one post as displayed by this client.
type Entry struct {
	Count int64
	Liked bool
	Phase Phase
	// Pending is set while a toggle request for this post is in flight.
	Pending bool
}
