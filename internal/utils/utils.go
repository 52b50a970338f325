package utils

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences v, returning the zero value when v is nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Coalesce returns the first non-nil pointer, or nil when both are nil.
func Coalesce[T any](a, b *T) *T {
	if a != nil {
		return a
	}
	return b
}
