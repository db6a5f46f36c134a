package meta

import "fmt"

// APIError is any non-success HTTP response from the Graph API. The
// full response body is preserved for diagnosis.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Meta API %s %s failed with status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// ContainerError means a media container reached the terminal ERROR
// state during processing. Body carries the server's error payload.
type ContainerError struct {
	ContainerID string
	Body        string
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container %s failed: %s", e.ContainerID, e.Body)
}

// ContainerTimeoutError means a container never reached a terminal
// state within the poll budget.
type ContainerTimeoutError struct {
	ContainerID string
	Attempts    int
}

func (e *ContainerTimeoutError) Error() string {
	return fmt.Sprintf("container %s not ready after %d attempts", e.ContainerID, e.Attempts)
}
