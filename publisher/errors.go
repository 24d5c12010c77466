package publisher

import (
	"errors"
	"fmt"
)

// Publish steps, in order.
const (
	StepResolve = "resolve repository"
	StepPush    = "push content"
	StepPages   = "enable pages"
)

// ErrNameCollision means the repository name resolves to a repository owned by someone else.
var ErrNameCollision = errors.New("repository name is taken by a repository owned elsewhere")

// PublishError carries the failing step and the platform's error.
// Earlier steps are not rolled back.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed at %s: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
