// Package naming defines how simulation elements are named.
package naming

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// NameOf returns the name of v, or fallback if v has no name.
func NameOf(v any, fallback string) string {
	if named, ok := v.(Named); ok {
		return named.Name()
	}

	return fallback
}
