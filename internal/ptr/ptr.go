// Package ptr provides generic pointer helpers for optional fields.
package ptr

// To returns a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// Deref dereferences p and returns the value it points to if not nil,
// or else returns def.
func Deref[T any](p *T, def T) T {
	if p != nil {
		return *p
	}
	return def
}

// NonZero returns a pointer to v, or nil when v is the zero value. It suits
// fields where zero means "unset", such as a missing fixed day of month.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
