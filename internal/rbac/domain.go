package rbac

// Authorities is the flattened authority set resolved for a request.
// Membership is compared by exact name.
type Authorities []string

// Has reports whether the set contains the named authority.
func (a Authorities) Has(name string) bool {
	for _, granted := range a {
		if granted == name {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains at least one of the names.
func (a Authorities) HasAny(names ...string) bool {
	if len(names) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(a))
	for _, granted := range a {
		set[granted] = struct{}{}
	}
	for _, name := range names {
		if _, ok := set[name]; ok {
			return true
		}
	}
	return false
}
