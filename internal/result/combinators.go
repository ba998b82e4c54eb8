package result

// Map applies f to the success value of r.
func Map[A, B any](r Result[A], f func(A) B) Result[B] {
	if r.err != nil {
		return Result[B]{err: r.err}
	}
	return Ok(f(r.value))
}

// Bind chains a fallible step after r.
func Bind[A, B any](r Result[A], f func(A) Result[B]) Result[B] {
	if r.err != nil {
		return Result[B]{err: r.err}
	}
	return f(r.value)
}

// Flatten collapses a nested Result.
func Flatten[T any](r Result[Result[T]]) Result[T] {
	if r.err != nil {
		return Result[T]{err: r.err}
	}
	return r.value
}

// Sequence turns a list of Results into a Result of a list. The first
// failure, in list order, wins.
func Sequence[T any](rs []Result[T]) Result[[]T] {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		if r.err != nil {
			return Result[[]T]{err: r.err}
		}
		out = append(out, r.value)
	}
	return Ok(out)
}

// Traverse maps f over items and sequences the results. Items after the
// first failure are not visited.
func Traverse[A, B any](items []A, f func(A) Result[B]) Result[[]B] {
	out := make([]B, 0, len(items))
	for _, item := range items {
		r := f(item)
		if r.err != nil {
			return Result[[]B]{err: r.err}
		}
		out = append(out, r.value)
	}
	return Ok(out)
}

// Catch gives handler a chance to recover from a failure. Ok values pass
// through untouched.
func Catch[T any](r Result[T], handler func(*Error) Result[T]) Result[T] {
	if r.err == nil {
		return r
	}
	return handler(r.err)
}
