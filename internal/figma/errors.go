package figma

import "fmt"

// RemoteAPIError is returned when the images endpoint answers with a non-200 status.
type RemoteAPIError struct {
	StatusCode int
	Body       string
}

func (e *RemoteAPIError) Error() string {
	msg := fmt.Sprintf("failed to fetch images from Figma API: HTTP status %d, please provide correct figma user and project tokens", e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// TransportError wraps a network or decoding failure while talking to Figma.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("figma %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
