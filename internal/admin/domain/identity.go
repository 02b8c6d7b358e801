package domain

// Identity is the caller resolved from a bearer credential. It is verified by
// the hosted identity backend per request and never persisted here.
type Identity struct {
	ID    string
	Email string
}
