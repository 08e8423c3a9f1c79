// Package storetest provides an in-memory stand-in for a MongoDB
// collection, for tests of code written against *mongo.Collection methods.
//
// Only equality filters and {$set: {...}} updates are understood. Unique
// indexes are enforced and violations are reported as the driver reports
// them, so mongo.IsDuplicateKeyError works on the returned errors.
package storetest

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Backend holds the documents of one collection.
type Backend struct {
	name   string
	unique map[string]string // field -> index name

	mu       sync.Mutex
	docs     []bson.D
	writeErr error
	readErr  error
}

// Collection is one handle onto a Backend. Handles sharing a backend model
// the same collection opened with different options, e.g. write concerns.
type Collection struct {
	*Backend
	Label string

	ops []string
}

// NewBackend creates an empty collection named name. unique maps a field
// to the name of the unique index enforcing it.
func NewBackend(name string, unique map[string]string) *Backend {
	return &Backend{name: name, unique: unique}
}

// Handle returns a new handle labelled label.
func (b *Backend) Handle(label string) *Collection {
	return &Collection{Backend: b, Label: label}
}

// Count returns the number of stored documents.
func (b *Backend) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.docs)
}

// FailWrites makes every write return err until called again with nil.
func (b *Backend) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// FailReads makes every read return err until called again with nil.
func (b *Backend) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// Find returns copies of the documents matching filter.
func (b *Backend) Find(filter bson.D) []bson.D {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []bson.D
	for _, d := range b.docs {
		if matches(d, filter) {
			out = append(out, append(bson.D{}, d...))
		}
	}
	return out
}

// Ops returns the operations issued through this handle, in order.
func (c *Collection) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ops...)
}

func (c *Collection) InsertOne(_ context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "insert")

	if c.writeErr != nil {
		return nil, c.writeErr
	}
	doc, err := toDoc(document)
	if err != nil {
		return nil, err
	}
	if err := c.checkUnique(doc, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, doc)
	return &mongo.InsertOneResult{InsertedID: len(c.docs)}, nil
}

func (c *Collection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "find")

	if c.readErr != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, c.readErr, nil)
	}
	for _, d := range c.docs {
		if matches(d, filter.(bson.D)) {
			return mongo.NewSingleResultFromDocument(d, nil, nil)
		}
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (c *Collection) UpdateOne(_ context.Context, filter any, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "update")

	if c.writeErr != nil {
		return nil, c.writeErr
	}

	var uo options.UpdateOneOptions
	for _, l := range opts {
		for _, fn := range l.List() {
			if err := fn(&uo); err != nil {
				return nil, err
			}
		}
	}
	upsert := uo.Upsert != nil && *uo.Upsert

	fd := filter.(bson.D)
	set, err := setFields(update.(bson.D))
	if err != nil {
		return nil, err
	}

	for i, d := range c.docs {
		if !matches(d, fd) {
			continue
		}
		next := apply(d, set)
		if err := c.checkUnique(next, i); err != nil {
			return nil, err
		}
		c.docs[i] = next
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}

	if !upsert {
		return &mongo.UpdateResult{}, nil
	}
	doc := apply(append(bson.D{}, fd...), set)
	if err := c.checkUnique(doc, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, doc)
	return &mongo.UpdateResult{UpsertedCount: 1, UpsertedID: len(c.docs)}, nil
}

func (c *Collection) DeleteOne(_ context.Context, filter any, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	return c.delete(filter.(bson.D), 1)
}

func (c *Collection) DeleteMany(_ context.Context, filter any, _ ...options.Lister[options.DeleteManyOptions]) (*mongo.DeleteResult, error) {
	return c.delete(filter.(bson.D), -1)
}

func (c *Collection) delete(filter bson.D, limit int64) (*mongo.DeleteResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, "delete")

	if c.writeErr != nil {
		return nil, c.writeErr
	}
	kept := c.docs[:0]
	var deleted int64
	for _, d := range c.docs {
		if matches(d, filter) && (limit < 0 || deleted < limit) {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	c.docs = kept
	return &mongo.DeleteResult{DeletedCount: deleted}, nil
}

func (b *Backend) checkUnique(doc bson.D, skip int) error {
	for field, index := range b.unique {
		v, ok := lookup(doc, field)
		if !ok {
			continue
		}
		for i, other := range b.docs {
			if i == skip {
				continue
			}
			if ov, ok := lookup(other, field); ok && reflect.DeepEqual(ov, v) {
				return DuplicateKeyError(b.name, index, field, v)
			}
		}
	}
	return nil
}

// DuplicateKeyError builds the error the server returns for a unique index
// violation.
func DuplicateKeyError(collection, index, field string, value any) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Code: 11000,
			Message: fmt.Sprintf("E11000 duplicate key error collection: test.%s index: %s dup key: { %s: %q }",
				collection, index, field, fmt.Sprint(value)),
		}},
	}
}

func toDoc(v any) (bson.D, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func lookup(d bson.D, key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func matches(d bson.D, filter bson.D) bool {
	for _, e := range filter {
		v, ok := lookup(d, e.Key)
		if !ok || !reflect.DeepEqual(v, e.Value) {
			return false
		}
	}
	return true
}

func setFields(update bson.D) (bson.D, error) {
	v, ok := lookup(update, "$set")
	if !ok || len(update) != 1 {
		return nil, fmt.Errorf("storetest: unsupported update %v", update)
	}
	set, ok := v.(bson.D)
	if !ok {
		return nil, fmt.Errorf("storetest: $set must be a bson.D, got %T", v)
	}
	return set, nil
}

func apply(d bson.D, set bson.D) bson.D {
	out := append(bson.D{}, d...)
	for _, e := range set {
		replaced := false
		for i := range out {
			if out[i].Key == e.Key {
				out[i].Value = e.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}
