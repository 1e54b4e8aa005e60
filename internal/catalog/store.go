package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/asaskevich/EventBus"
)

// DefaultKey is the key the collection is stored under.
const DefaultKey = "products"

// maxIDAttempts bounds the redraws when a generated id collides with an existing one.
const maxIDAttempts = 16

// Persistence is the key-value collaborator the store reads from once and writes to on every mutation.
type Persistence interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// ProductStore is the single source of truth for the product collection.
// Each mutation re-serializes the whole collection and writes it before returning.
type ProductStore struct {
	mu       sync.Mutex
	pubMu    sync.Mutex
	kv       Persistence
	key      string
	ids      IDGenerator
	logger   *slog.Logger
	bus      EventBus.Bus
	products []Product
	loaded   bool
	dirty    bool
}

// Option configures a ProductStore.
type Option func(*ProductStore)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *ProductStore) {
		s.key = key
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *ProductStore) {
		s.logger = logger
	}
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(s *ProductStore) {
		s.ids = ids
	}
}

// NewProductStore creates an unloaded store backed by kv. Call Load before anything else.
func NewProductStore(kv Persistence, opts ...Option) (*ProductStore, error) {
	if kv == nil {
		return nil, errors.New("product store requires a persistence backend")
	}
	s := &ProductStore{
		kv:     kv,
		key:    DefaultKey,
		logger: slog.Default(),
		bus:    EventBus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.key == "" {
		return nil, errors.New("product store key must not be empty")
	}
	if s.ids == nil {
		ids, err := NewSnowflakeIDs(1)
		if err != nil {
			return nil, err
		}
		s.ids = ids
	}
	s.logger = s.logger.With("component", "catalog", "key", s.key)
	return s, nil
}

// Load reads the persisted collection. Missing or corrupt data leaves the store empty and is not
// reported as an error. A failed read is returned wrapped in ErrPersistenceRead and leaves the store
// unloaded, so the stored collection is never overwritten by one that was not read; Load may be retried.
func (s *ProductStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return ErrAlreadyLoaded
	}
	products, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.products = products
	s.loaded = true
	return nil
}

func (s *ProductStore) read(ctx context.Context) ([]Product, error) {
	blob, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read persisted products", "error", err)
		return nil, fmt.Errorf("%w under key %q: %w", ErrPersistenceRead, s.key, err)
	}
	if !found {
		s.logger.InfoContext(ctx, "No persisted products, starting empty")
		return []Product{}, nil
	}
	products, err := decodeProducts(blob)
	if err != nil {
		// Corrupt data resets the catalog; it is overwritten by the next successful write.
		s.logger.WarnContext(ctx, "Persisted products are invalid, resetting to empty", "error", err)
		return []Product{}, nil
	}
	s.logger.InfoContext(ctx, "Loaded persisted products", "count", len(products))
	return products, nil
}

// Add validates in and appends a new, unliked product.
// A *ValidationError leaves the collection untouched. A *PersistenceWriteError comes with a valid product:
// the product was added in memory but not written.
func (s *ProductStore) Add(ctx context.Context, in AddInput) (Product, error) {
	price, err := in.validate()
	if err != nil {
		return Product{}, err
	}

	var added Product
	_, err = s.mutate(ctx, OpAdd, func() (string, bool, error) {
		id, err := s.newIDLocked()
		if err != nil {
			return "", false, err
		}
		added = Product{
			ID:    id,
			Name:  in.Name,
			Img:   in.Img,
			Info:  in.Info,
			Price: price,
		}
		s.products = append(s.products, added)
		return id, true, nil
	})
	if err != nil && !errors.Is(err, ErrPersistenceWrite) {
		return Product{}, err
	}
	return added, err
}

// ToggleLike flips the liked flag of the product with id and returns the updated product.
// An unknown id is a no-op reported by found == false.
func (s *ProductStore) ToggleLike(ctx context.Context, id string) (product Product, found bool, err error) {
	found, err = s.mutate(ctx, OpToggleLike, func() (string, bool, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return id, false, nil
		}
		s.products[i].Liked = !s.products[i].Liked
		product = s.products[i]
		return id, true, nil
	})
	return product, found, err
}

// Delete removes the product with id. An unknown id is a no-op reported by deleted == false.
func (s *ProductStore) Delete(ctx context.Context, id string) (deleted bool, err error) {
	return s.mutate(ctx, OpDelete, func() (string, bool, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return id, false, nil
		}
		s.products = append(s.products[:i], s.products[i+1:]...)
		return id, true, nil
	})
}

// GetAll returns a copy of the collection in insertion order.
func (s *ProductStore) GetAll() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]Product, len(s.products))
	copy(products, s.products)
	return products
}

// Save writes the current collection, e.g. to retry after a failed write.
func (s *ProductStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	return s.persistLocked(ctx)
}

// Dirty reports whether the last write of the collection failed.
func (s *ProductStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// mutate applies fn under the lock and, when fn changed the collection, persists it and publishes the change.
// Subscribers run after the store lock is released but under pubMu, so changes reach them in commit order.
func (s *ProductStore) mutate(ctx context.Context, op Op, fn func() (id string, changed bool, err error)) (bool, error) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	change, changed, err := s.commit(ctx, op, fn)
	if changed {
		s.publish(change)
	}
	return changed, err
}

func (s *ProductStore) commit(ctx context.Context, op Op, fn func() (string, bool, error)) (Change, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return Change{}, false, ErrNotLoaded
	}
	id, changed, err := fn()
	if err != nil || !changed {
		return Change{}, false, err
	}

	writeErr := s.persistLocked(ctx)
	products := make([]Product, len(s.products))
	copy(products, s.products)
	s.logger.DebugContext(ctx, "Catalog changed", "op", op, "ID", id, "count", len(products))
	return Change{Op: op, ID: id, Products: products, Persisted: writeErr == nil}, true, writeErr
}

func (s *ProductStore) persistLocked(ctx context.Context) error {
	blob, err := encodeProducts(s.products)
	if err == nil {
		err = s.kv.Set(ctx, s.key, blob)
	}
	if err != nil {
		s.dirty = true
		s.logger.ErrorContext(ctx, "Failed to persist products, keeping in-memory state", "count", len(s.products), "error", err)
		return &PersistenceWriteError{Key: s.key, Err: err}
	}
	s.dirty = false
	return nil
}

func (s *ProductStore) indexLocked(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ProductStore) newIDLocked() (string, error) {
	for range maxIDAttempts {
		id := s.ids.NextID()
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
