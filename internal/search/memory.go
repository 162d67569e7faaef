/*
Copyright 2026 Searchsync Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package search

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is an IndexClient that keeps documents in a map. It backs the
// memory backend used by automated tests and local development: only the
// engine call boundary is faked, all queue logic runs for real.
type MemoryIndex struct {
	mu        sync.Mutex
	documents map[int64]Document
}

// NewMemoryIndex returns an empty in-process index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{documents: make(map[int64]Document)}
}

// AddDocuments upserts the documents by object id.
func (m *MemoryIndex) AddDocuments(_ context.Context, documents []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, document := range documents {
		m.documents[document.ObjectID] = document
	}
	return nil
}

// DeleteDocuments removes the documents; missing ids are ignored.
func (m *MemoryIndex) DeleteDocuments(_ context.Context, objectIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range objectIDs {
		delete(m.documents, id)
	}
	return nil
}

// Clear empties the index.
func (m *MemoryIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = make(map[int64]Document)
	return nil
}

// Len returns the number of indexed documents.
func (m *MemoryIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents)
}

// Document returns the indexed document for the given object id, if any.
func (m *MemoryIndex) Document(objectID int64) (Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	document, ok := m.documents[objectID]
	return document, ok
}

// ObjectIDs returns the indexed object ids in ascending order.
func (m *MemoryIndex) ObjectIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.documents))
	for id := range m.documents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
