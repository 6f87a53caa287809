package writes

// The write path distinguishes two categories of fatal condition. Both are
// raised as panics because they mark states that are provably unreachable
// through a correctly used API; they are not meant to be caught and retried.

// ContractViolationError marks a caller defect: the caller constructed a
// request or drove the compiler in a way its contract forbids
type ContractViolationError struct {
	Msg string
}

func (e *ContractViolationError) Error() string {
	return "contract violation: " + e.Msg
}

// InternalInvariantError marks a defect inside the write path itself: an
// invariant the implementation is responsible for upholding was broken
type InternalInvariantError struct {
	Msg string
}

func (e *InternalInvariantError) Error() string {
	return "internal invariant violated: " + e.Msg
}

func invariantContract(cond bool, msg string) {
	if !cond {
		panic(&ContractViolationError{Msg: msg})
	}
}

func invariantInternal(cond bool, msg string) {
	if !cond {
		panic(&InternalInvariantError{Msg: msg})
	}
}
