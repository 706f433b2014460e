package namespace

// Registry holds the static set of namespaces configured at process start.
// It is immutable after construction; every component that receives a
// namespace identifier from a caller validates it here before touching
// storage.
type Registry struct {
	names []string
	index map[string]struct{}
}

// NewRegistry creates a registry from the configured namespace list,
// preserving order and dropping duplicates.
func NewRegistry(names []string) *Registry {
	r := &Registry{
		names: make([]string, 0, len(names)),
		index: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		if _, ok := r.index[name]; ok {
			continue
		}
		r.index[name] = struct{}{}
		r.names = append(r.names, name)
	}
	return r
}

// IsValid reports whether name is a configured namespace.
func (r *Registry) IsValid(name string) bool {
	_, ok := r.index[name]
	return ok
}

// List returns the configured namespaces in configuration order. The caller
// must not mutate the returned slice.
func (r *Registry) List() []string {
	return r.names
}
