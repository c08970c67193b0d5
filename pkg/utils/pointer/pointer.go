package pointer

// Ref returns pointer of v.
func Ref[T any](v T) *T {
	return &v
}

// SafeDeref dereferences p, or returns zero-value of T when p is nil.
func SafeDeref[T any](p *T) T {
	if p == nil {
		return *new(T)
	}
	return *p
}
