package mailbox

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrConflict is returned when a label being created already exists remotely.
var ErrConflict = errors.New("label already exists")

// ErrNotFound is returned when a remote object does not exist.
var ErrNotFound = errors.New("not found")

// IsConflict reports whether err means the remote object already exists.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "409") || strings.Contains(msg, "exists")
}

// FetchError reports a failure to list or read the mailbox. A failed listing
// aborts the poll cycle; the next cycle retries naturally.
type FetchError struct {
	Op  string
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("fetch %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
