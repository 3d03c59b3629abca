/*
resource.go - Tagged result for use-case boundaries

PURPOSE:
  Use cases report one of three outcomes: data, a failure, or nothing to
  report. Expected outcomes ("no record for this week") are Empty, not
  errors; only real faults are Error.

USAGE:
  res := svc.Decide(ctx, ...)
  switch res.State {
  case generic.ResourceSuccess:
      render(res.Data)
  case generic.ResourceError:
      showMessage(res.Message())
  case generic.ResourceEmpty:
      showPlaceholder()
  }
*/
package generic

type ResourceState int

const (
	ResourceEmpty ResourceState = iota
	ResourceSuccess
	ResourceError
)

func (s ResourceState) String() string {
	switch s {
	case ResourceSuccess:
		return "success"
	case ResourceError:
		return "error"
	default:
		return "empty"
	}
}

// Resource is a Success / Error / Empty discriminated result.
type Resource[T any] struct {
	State ResourceState
	Data  T
	Err   error
}

func Success[T any](data T) Resource[T] {
	return Resource[T]{State: ResourceSuccess, Data: data}
}

func Failure[T any](err error) Resource[T] {
	return Resource[T]{State: ResourceError, Err: err}
}

func Empty[T any]() Resource[T] {
	return Resource[T]{State: ResourceEmpty}
}

func (r Resource[T]) IsSuccess() bool { return r.State == ResourceSuccess }
func (r Resource[T]) IsError() bool   { return r.State == ResourceError }
func (r Resource[T]) IsEmpty() bool   { return r.State == ResourceEmpty }

// Message is the human-readable failure text, empty unless IsError.
func (r Resource[T]) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Unwrap converts back to Go's (value, error) convention. Empty yields
// the zero value and ErrNotFound.
func (r Resource[T]) Unwrap() (T, error) {
	switch r.State {
	case ResourceSuccess:
		return r.Data, nil
	case ResourceError:
		return r.Data, r.Err
	default:
		var zero T
		return zero, ErrNotFound
	}
}
