package pkg

import (
	sets "github.com/deckarep/golang-set"
)

// KeySet is a string set, backed by golang-set.
type KeySet struct {
	internal sets.Set
}

func NewKeySet() *KeySet {
	return &KeySet{
		internal: sets.NewThreadUnsafeSet(),
	}
}

// Add returns false when key was already present.
func (set *KeySet) Add(key string) bool {
	return set.internal.Add(key)
}

func (set *KeySet) Contains(key string) bool {
	return set.internal.Contains(key)
}

func (set *KeySet) Len() int {
	return set.internal.Cardinality()
}
