package catalog

// Op names the mutation that produced a Change.
type Op string

const (
	OpAdd        Op = "add"
	OpToggleLike Op = "toggle_like"
	OpDelete     Op = "delete"
)

const changeTopic = "catalog:changed"

// Change is published to subscribers after every mutation that altered the collection.
// Products is the collection as it stood right after the mutation; subscribers share it and must not modify it.
type Change struct {
	Op       Op
	ID       string
	Products []Product
	// Persisted is false when writing the collection failed.
	Persisted bool
}

// Subscribe registers fn to be called synchronously after each mutation, in the order the mutations
// were applied. fn may read the store but must not mutate it or call Subscribe.
func (s *ProductStore) Subscribe(fn func(Change)) error {
	return s.bus.Subscribe(changeTopic, fn)
}

func (s *ProductStore) publish(change Change) {
	s.bus.Publish(changeTopic, change)
}
