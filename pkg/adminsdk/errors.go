package adminsdk

import "fmt"

// APIError is an error response from the admin service. Both error envelope
// shapes decode into it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: %s (status %d)", e.Message, e.Status)
}
