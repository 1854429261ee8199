package account

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryStore is an in-process [Store]. Documents are kept as BSON maps and
// go through the same field mapping and projection rules as [MongoStore].
type MemoryStore[U any] struct {
	mu         sync.RWMutex
	fields     Fields
	projection Projection
	docs       map[string]bson.M
	byEmail    map[string]string
}

// NewMemoryStore validates the mapping and returns an empty store.
func NewMemoryStore[U any](fields Fields, projection Projection) (*MemoryStore[U], error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := projection.Validate(); err != nil {
		return nil, err
	}
	return &MemoryStore[U]{
		fields:     fields,
		projection: projection.Clone(),
		docs:       make(map[string]bson.M),
		byEmail:    make(map[string]string),
	}, nil
}

// Count returns the number of stored accounts.
func (s *MemoryStore[U]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *MemoryStore[U]) FindOne(ctx context.Context, filter Filter) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.fields.filterDocument(filter); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, doc, err := s.match(filter)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return s.fields.stateFromDocument(doc)
}

func (s *MemoryStore[U]) FindByID(ctx context.Context, id string) (*U, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeDocument[U](s.projection.apply(doc))
}

func (s *MemoryStore[U]) Create(ctx context.Context, state State, extra *U) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var base any
	if extra != nil {
		base = extra
	}
	doc, err := s.fields.newDocument(state, base)
	if err != nil {
		return "", err
	}
	if _, ok := doc[IDField]; !ok {
		doc[IDField] = bson.NewObjectID()
	}
	id := idString(doc[IDField])

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[state.Email]; ok {
		return "", ErrDuplicate
	}
	if _, ok := s.docs[id]; ok {
		return "", ErrDuplicate
	}
	s.docs[id] = doc
	s.byEmail[state.Email] = id
	return id, nil
}

func (s *MemoryStore[U]) FindOneAndUpdate(ctx context.Context, filter Filter, patch Patch, opts UpdateOptions) (*U, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.fields.filterDocument(filter); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, doc, err := s.match(filter)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if filter.guarded() {
			return nil, ErrConflict
		}
		return nil, ErrNotFound
	}
	return s.apply(doc, patch, opts)
}

func (s *MemoryStore[U]) FindByIDAndUpdate(ctx context.Context, id string, patch Patch, opts UpdateOptions) (*U, error) {
	return s.FindOneAndUpdate(ctx, Filter{ID: id}, patch, opts)
}

// Unblock clears the block flag and the attempt counter of the account with email.
func (s *MemoryStore[U]) Unblock(ctx context.Context, email string) error {
	blocked := false
	attempts := 0
	_, err := s.FindOneAndUpdate(ctx, Filter{Email: email}, Patch{Blocked: &blocked, Attempts: &attempts}, UpdateOptions{})
	return err
}

// match must be called with s.mu held.
func (s *MemoryStore[U]) match(filter Filter) (string, bson.M, error) {
	var candidates []string
	switch {
	case filter.ID != "":
		candidates = []string{filter.ID}
	case filter.Email != "":
		id, ok := s.byEmail[filter.Email]
		if !ok {
			return "", nil, nil
		}
		candidates = []string{id}
	default:
		candidates = make([]string, 0, len(s.docs))
		for id := range s.docs {
			candidates = append(candidates, id)
		}
	}

	for _, id := range candidates {
		doc, ok := s.docs[id]
		if !ok {
			continue
		}
		state, err := s.fields.stateFromDocument(doc)
		if err != nil {
			return "", nil, err
		}
		if filter.Email != "" && state.Email != filter.Email {
			continue
		}
		if filter.Code != nil && !codeEquals(doc[s.fields.Code], *filter.Code) {
			continue
		}
		if filter.Attempts != nil && state.Attempts != *filter.Attempts {
			continue
		}
		return id, doc, nil
	}
	return "", nil, nil
}

// apply must be called with s.mu held for writing.
func (s *MemoryStore[U]) apply(doc bson.M, patch Patch, opts UpdateOptions) (*U, error) {
	for _, e := range s.fields.setDocument(patch) {
		doc[e.Key] = e.Value
	}
	if !opts.ReturnDocument {
		return nil, nil
	}
	return decodeDocument[U](s.projection.apply(doc))
}
