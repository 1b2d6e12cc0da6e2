package metamodel

import (
	"reflect"
	"sort"
)

// TypeSet is an immutable set of runtime types.
type TypeSet map[reflect.Type]struct{}

func newTypeSet(types []ManagedType) TypeSet {
	set := make(TypeSet, len(types))
	for _, mt := range types {
		if mt == nil {
			continue
		}
		if t := mt.RuntimeType(); t != nil {
			set[t] = struct{}{}
		}
	}
	return set
}

// Contains reports whether t is a member of the set.
func (s TypeSet) Contains(t reflect.Type) bool {
	_, ok := s[t]
	return ok
}

func (s TypeSet) Len() int {
	return len(s)
}

// Types returns the members ordered by their string form.
func (s TypeSet) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}
