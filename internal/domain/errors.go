package domain

import "github.com/pkg/errors"

var (
	ErrPersistence = errors.New("persistence failure")
	ErrGeneration  = errors.New("generation failure")
	ErrDelivery    = errors.New("delivery failure")
)

// Failure tags a cause with one of the failure kinds above.
// errors.Is matches both the kind and the cause.
type Failure struct {
	Kind  error
	Cause error
}

func (f *Failure) Error() string {
	return f.Kind.Error() + ": " + f.Cause.Error()
}

func (f *Failure) Unwrap() []error {
	return []error{f.Kind, f.Cause}
}

func PersistenceFailure(err error) error { return tag(ErrPersistence, err) }
func GenerationFailure(err error) error  { return tag(ErrGeneration, err) }
func DeliveryFailure(err error) error    { return tag(ErrDelivery, err) }

func tag(kind, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Kind: kind, Cause: err}
}
