package pipeline

import "fmt"

// MarkProcessedError means a message could not be labelled as processed even
// after re-resolving the label. It will be offered again next cycle.
type MarkProcessedError struct {
	MessageID string
	Err       error
}

func (e *MarkProcessedError) Error() string {
	return fmt.Sprintf("mark processed %s: %v", e.MessageID, e.Err)
}

func (e *MarkProcessedError) Unwrap() error {
	return e.Err
}
