package ecs

import "sort"

// R1N is a 1-to-N relation between two stores sharing the entity space: one parent entity owns
// zero or more child entities. It is persisted as a single Store[Entity] mapping each child
// entity to its parent entity, plus an in-memory reverse index (parent -> children) rebuilt
// from that store — matching spec.md's "two stores sharing the entity space plus a
// parent->children index".
type R1N struct {
	childToParent *Store[Entity]
	parentToChild map[Entity][]Entity
}

// NewR1N creates an empty 1-to-N relation store named typeDescription on disk.
func NewR1N(typeDescription string) *R1N {
	return &R1N{
		childToParent: NewStore[Entity](typeDescription),
		parentToChild: make(map[Entity][]Entity),
	}
}

// LoadR1N restores a 1-to-N relation from its child->parent store.
func LoadR1N(storeRoot, typeDescription string) (*R1N, error) {
	cp, err := LoadStore[Entity](storeRoot, typeDescription)
	if err != nil {
		return nil, err
	}
	r := &R1N{childToParent: cp, parentToChild: make(map[Entity][]Entity)}
	r.rebuildIndex()
	return r, nil
}

func (r *R1N) rebuildIndex() {
	r.parentToChild = make(map[Entity][]Entity)
	for _, child := range r.childToParent.Entities() {
		parent, _ := r.childToParent.Get(child)
		r.parentToChild[parent] = append(r.parentToChild[parent], child)
	}
}

// Associate makes child a child of parent, replacing any previous parent for child.
func (r *R1N) Associate(parent, child Entity) {
	if old, ok := r.childToParent.Get(child); ok {
		r.detachLocked(old, child)
	}
	r.childToParent.Insert(child, parent)
	r.parentToChild[parent] = append(r.parentToChild[parent], child)
}

// Detach removes child from its parent, if any.
func (r *R1N) Detach(child Entity) {
	parent, ok := r.childToParent.Get(child)
	if !ok {
		return
	}
	r.childToParent.Remove(child)
	r.detachLocked(parent, child)
}

func (r *R1N) detachLocked(parent, child Entity) {
	children := r.parentToChild[parent]
	for i, c := range children {
		if c == child {
			r.parentToChild[parent] = append(children[:i], children[i+1:]...)
			break
		}
	}
	if len(r.parentToChild[parent]) == 0 {
		delete(r.parentToChild, parent)
	}
}

// Children returns parent's children, sorted for deterministic iteration.
func (r *R1N) Children(parent Entity) []Entity {
	out := append([]Entity(nil), r.parentToChild[parent]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Parent returns child's parent, if any.
func (r *R1N) Parent(child Entity) (Entity, bool) {
	return r.childToParent.Get(child)
}

// Save persists the underlying child->parent store.
func (r *R1N) Save(storeRoot string) error {
	return r.childToParent.Save(storeRoot)
}

// RMN is an N-to-M relation: two base stores of entities A and B connected through a third
// "pairing entity" store, where each pairing entity's component is an (a, b) pair — spec.md's
// "two stores plus a pairing-entity store". This lets a relation carry its own component data
// (e.g. a dependency edge annotated with a digest) rather than being a bare pair.
// P must be comparable because it ends up embedded in Pair[P], which Store keys its reverse
// index on; an unannotated relation instantiates P as struct{}.
type RMN[P comparable] struct {
	pairs *Store[Pair[P]]
}

// Pair is one entry in an N-to-M relation: the two related entities plus whatever payload the
// relation itself carries (may be struct{} for an unannotated relation).
type Pair[P comparable] struct {
	A       Entity
	B       Entity
	Payload P
}

// NewRMN creates an empty N-to-M relation store named typeDescription on disk. The pairing
// entity itself is allocated by the caller via a Generator, since it is a first-class entity
// that may carry further components of its own.
func NewRMN[P comparable](typeDescription string) *RMN[P] {
	return &RMN[P]{pairs: NewStore[Pair[P]](typeDescription)}
}

// LoadRMN restores an N-to-M relation from disk.
func LoadRMN[P comparable](storeRoot, typeDescription string) (*RMN[P], error) {
	s, err := LoadStore[Pair[P]](storeRoot, typeDescription)
	if err != nil {
		return nil, err
	}
	return &RMN[P]{pairs: s}, nil
}

// Associate records that pairingEntity relates a to b with the given payload.
func (r *RMN[P]) Associate(pairingEntity, a, b Entity, payload P) {
	r.pairs.Insert(pairingEntity, Pair[P]{A: a, B: b, Payload: payload})
}

// Detach removes a pairing entirely.
func (r *RMN[P]) Detach(pairingEntity Entity) {
	r.pairs.Remove(pairingEntity)
}

// PairsForA returns every pair whose A side is a.
func (r *RMN[P]) PairsForA(a Entity) []Pair[P] {
	var out []Pair[P]
	for _, e := range r.pairs.Entities() {
		p, _ := r.pairs.Get(e)
		if p.A == a {
			out = append(out, p)
		}
	}
	return out
}

// PairsForB returns every pair whose B side is b.
func (r *RMN[P]) PairsForB(b Entity) []Pair[P] {
	var out []Pair[P]
	for _, e := range r.pairs.Entities() {
		p, _ := r.pairs.Get(e)
		if p.B == b {
			out = append(out, p)
		}
	}
	return out
}

// Save persists the underlying pairing store.
func (r *RMN[P]) Save(storeRoot string) error {
	return r.pairs.Save(storeRoot)
}
