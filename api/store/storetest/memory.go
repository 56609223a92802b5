// Package storetest provides an in-memory store.Store for handler tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/onestay/MarathonRegistry-API/api/models"
	"github.com/onestay/MarathonRegistry-API/api/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory keeps both collections in process. It follows the Mongo store's
// semantics: generated object ids, ErrNotFound on unmatched ids and a parse
// error for malformed ones.
type Memory struct {
	mu           sync.Mutex
	marathons    *collection
	applications *collection
	failures     map[string]error
	calls        map[string]int
}

var _ store.Store = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		marathons:    newCollection(store.MarathonCollection),
		applications: newCollection(store.ApplicationCollection),
		failures:     make(map[string]error),
		calls:        make(map[string]int),
	}
}

// Fail makes every later call of the named method return err. A nil err clears it.
func (m *Memory) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// Calls returns how many times the named method was invoked.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// TotalCalls returns the number of store calls of any kind.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// PutMarathon stores doc as is, bypassing the handlers. It returns the id.
func (m *Memory) PutMarathon(doc models.Document) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marathons.insert(doc).Hex()
}

// RawMarathon returns the stored marathon without recording a call.
func (m *Memory) RawMarathon(id string) (models.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	doc, ok := m.marathons.docs[oid]
	if !ok {
		return nil, false
	}
	return clone(doc), true
}

// enter locks the store and records the call. Callers defer the unlock
// before calling it so the lock is released on every return path.
func (m *Memory) enter(method string) error {
	m.mu.Lock()
	m.calls[method]++
	return m.failures[method]
}

func (m *Memory) Ping(context.Context) error {
	defer m.mu.Unlock()
	return m.enter("Ping")
}

func (m *Memory) ListMarathons(_ context.Context, limit int64) ([]models.Document, error) {
	defer m.mu.Unlock()
	if err := m.enter("ListMarathons"); err != nil {
		return nil, err
	}

	return m.marathons.filter(limit, func(models.Document) bool { return true }), nil
}

func (m *Memory) FindMarathon(_ context.Context, id string) (models.Document, error) {
	defer m.mu.Unlock()
	if err := m.enter("FindMarathon"); err != nil {
		return nil, err
	}

	return m.marathons.find(id)
}

func (m *Memory) MarathonsByEmail(_ context.Context, email string) ([]models.Document, error) {
	defer m.mu.Unlock()
	if err := m.enter("MarathonsByEmail"); err != nil {
		return nil, err
	}

	return m.marathons.filter(0, byEmail(email)), nil
}

func (m *Memory) InsertMarathon(_ context.Context, doc models.Document) (*store.InsertResult, error) {
	defer m.mu.Unlock()
	if err := m.enter("InsertMarathon"); err != nil {
		return nil, err
	}

	return &store.InsertResult{Acknowledged: true, InsertedID: m.marathons.insert(doc)}, nil
}

func (m *Memory) UpdateMarathon(_ context.Context, id string, fields models.Document) (models.Document, error) {
	defer m.mu.Unlock()
	if err := m.enter("UpdateMarathon"); err != nil {
		return nil, err
	}

	return m.marathons.set(id, fields)
}

func (m *Memory) BackfillRegistrationCount(_ context.Context, id string) error {
	defer m.mu.Unlock()
	if err := m.enter("BackfillRegistrationCount"); err != nil {
		return err
	}

	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if doc, ok := m.marathons.docs[oid]; ok {
		models.BackfillRegistrationCount(doc)
	}

	return nil
}

func (m *Memory) IncrementRegistrationCount(_ context.Context, id string) error {
	defer m.mu.Unlock()
	if err := m.enter("IncrementRegistrationCount"); err != nil {
		return err
	}

	oid, err := parseID(id)
	if err != nil {
		return err
	}
	doc, ok := m.marathons.docs[oid]
	if !ok {
		return fmt.Errorf("%s %s: %w", m.marathons.name, id, store.ErrNotFound)
	}

	cur, present := doc[models.RegistrationCountField]
	if !present {
		doc[models.RegistrationCountField] = int64(1)
		return nil
	}
	n, ok := models.ToInt64(cur)
	if !ok {
		return fmt.Errorf("cannot apply $inc to non-numeric %s of %s", models.RegistrationCountField, id)
	}
	doc[models.RegistrationCountField] = n + 1

	return nil
}

func (m *Memory) DeleteMarathon(_ context.Context, id string) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteMarathon"); err != nil {
		return err
	}

	return m.marathons.delete(id)
}

func (m *Memory) ApplicationsByEmail(_ context.Context, email string) ([]models.Document, error) {
	defer m.mu.Unlock()
	if err := m.enter("ApplicationsByEmail"); err != nil {
		return nil, err
	}

	return m.applications.filter(0, byEmail(email)), nil
}

func (m *Memory) InsertApplication(_ context.Context, doc models.Document) (*store.InsertResult, error) {
	defer m.mu.Unlock()
	if err := m.enter("InsertApplication"); err != nil {
		return nil, err
	}

	return &store.InsertResult{Acknowledged: true, InsertedID: m.applications.insert(doc)}, nil
}

func (m *Memory) UpdateApplication(_ context.Context, id string, fields models.Document) error {
	defer m.mu.Unlock()
	if err := m.enter("UpdateApplication"); err != nil {
		return err
	}

	_, err := m.applications.set(id, fields)
	return err
}

func (m *Memory) DeleteApplication(_ context.Context, id string) error {
	defer m.mu.Unlock()
	if err := m.enter("DeleteApplication"); err != nil {
		return err
	}

	return m.applications.delete(id)
}

type collection struct {
	name  string
	order []primitive.ObjectID
	docs  map[primitive.ObjectID]models.Document
}

func newCollection(name string) *collection {
	return &collection{name: name, docs: make(map[primitive.ObjectID]models.Document)}
}

func (c *collection) insert(doc models.Document) primitive.ObjectID {
	oid := primitive.NewObjectID()
	stored := models.WithoutID(doc)
	stored[models.IDField] = oid
	c.docs[oid] = stored
	c.order = append(c.order, oid)

	return oid
}

func (c *collection) find(id string) (models.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	doc, ok := c.docs[oid]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, store.ErrNotFound)
	}

	return clone(doc), nil
}

func (c *collection) filter(limit int64, keep func(models.Document) bool) []models.Document {
	out := []models.Document{}
	for _, oid := range c.order {
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		if doc := c.docs[oid]; keep(doc) {
			out = append(out, clone(doc))
		}
	}

	return out
}

func (c *collection) set(id string, fields models.Document) (models.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	doc, ok := c.docs[oid]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", c.name, id, store.ErrNotFound)
	}
	for k, v := range models.WithoutID(fields) {
		doc[k] = v
	}

	return clone(doc), nil
}

func (c *collection) delete(id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if _, ok := c.docs[oid]; !ok {
		return fmt.Errorf("%s %s: %w", c.name, id, store.ErrNotFound)
	}
	delete(c.docs, oid)
	for i, o := range c.order {
		if o == oid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("parse id %q: %w", id, err)
	}

	return oid, nil
}

func byEmail(email string) func(models.Document) bool {
	return func(d models.Document) bool {
		v, ok := d[models.EmailField].(string)
		return ok && v == email
	}
}

func clone(d models.Document) models.Document {
	out := make(models.Document, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}
