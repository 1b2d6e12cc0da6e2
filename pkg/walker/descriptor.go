package walker

import (
	"fmt"
	"sort"

	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/cespare/xxhash/v2"
)

// Descriptor identifies a context factory component by registry node and name.
type Descriptor struct {
	Registry component.Introspector
	Name     string
}

// Equal compares registry IDs and names.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Name == other.Name && registryID(d.Registry) == registryID(other.Registry)
}

// Hash is consistent with Equal.
func (d Descriptor) Hash() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(registryID(d.Registry))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(d.Name)
	return h.Sum64()
}

// Definition fetches the static definition from the descriptor's registry.
func (d Descriptor) Definition() (*component.Definition, error) {
	if d.Registry == nil {
		return nil, fmt.Errorf("%w: descriptor %s has no registry", ErrInvalidArgument, d.Name)
	}
	return d.Registry.Definition(d.Name)
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s@%s", d.Name, registryID(d.Registry))
}

func registryID(r component.Introspector) string {
	if r == nil {
		return ""
	}
	return r.ID()
}

// DescriptorSet is a set of descriptors deduplicated by Hash and Equal.
type DescriptorSet struct {
	buckets map[uint64][]Descriptor
	size    int
}

// NewDescriptorSet creates a set holding ds.
func NewDescriptorSet(ds ...Descriptor) *DescriptorSet {
	s := &DescriptorSet{buckets: make(map[uint64][]Descriptor)}
	for _, d := range ds {
		s.Add(d)
	}
	return s
}

// Add inserts d and reports whether it was not yet present.
func (s *DescriptorSet) Add(d Descriptor) bool {
	hash := d.Hash()
	for _, existing := range s.buckets[hash] {
		if existing.Equal(d) {
			return false
		}
	}
	s.buckets[hash] = append(s.buckets[hash], d)
	s.size++
	return true
}

func (s *DescriptorSet) Contains(d Descriptor) bool {
	for _, existing := range s.buckets[d.Hash()] {
		if existing.Equal(d) {
			return true
		}
	}
	return false
}

func (s *DescriptorSet) Len() int {
	return s.size
}

// Union adds every member of other.
func (s *DescriptorSet) Union(other *DescriptorSet) {
	if other == nil {
		return
	}
	for _, bucket := range other.buckets {
		for _, d := range bucket {
			s.Add(d)
		}
	}
}

// Slice returns the members ordered by name, then registry id.
func (s *DescriptorSet) Slice() []Descriptor {
	out := make([]Descriptor, 0, s.size)
	for _, bucket := range s.buckets {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return registryID(out[i].Registry) < registryID(out[j].Registry)
	})
	return out
}
