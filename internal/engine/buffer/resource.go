package buffer

import (
	"fmt"

	"go.uber.org/multierr"
)

// Resource is anything with an owner-controlled lifetime.
type Resource interface {
	Name() string
	Released() bool
}

// CheckReleased reports every resource that is still live, combined into one error.
// Nil entries are skipped.
func CheckReleased(resources ...Resource) error {
	var err error
	for _, r := range resources {
		if r == nil || r.Released() {
			continue
		}
		err = multierr.Append(err, fmt.Errorf("buffer %q still live after release", r.Name()))
	}
	return err
}
