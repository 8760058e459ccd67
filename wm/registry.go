// Copyright © 2026 Tilewm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: wm/registry.go
// Summary: The shared key-value registry clients read and write over
//          IPC, with read-only protection for server-owned keys.

package wm

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Access says what clients may do with a registry key. The server can
// always write; ReadOnly guards server-owned keys from clients.
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
)

// RegistryEntry is the wire shape of one key lookup.
type RegistryEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Registry is the shared key-value store. Values are JSON documents;
// the engine loop serializes access, so there is no locking here.
type Registry struct {
	values map[string]json.RawMessage
	access map[string]Access
}

func NewRegistry() *Registry {
	return &Registry{
		values: make(map[string]json.RawMessage),
		access: make(map[string]Access),
	}
}

// Get returns the value stored under key.
func (r *Registry) Get(key string) (json.RawMessage, error) {
	v, ok := r.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: registry key %q", ErrNotFound, key)
	}
	return v, nil
}

// Set stores a client-writable value. The raw text is kept as-is when
// it already parses as JSON, and wrapped into a JSON string otherwise.
func (r *Registry) Set(key, value string) error {
	if r.access[key] == ReadOnly {
		return fmt.Errorf("%w: registry key %q is read-only", ErrInvalidTarget, key)
	}
	r.values[key] = encodeRegistryValue(value)
	return nil
}

// SetReadOnly stores a server-owned value clients may read but not
// overwrite.
func (r *Registry) SetReadOnly(key, value string) {
	r.values[key] = encodeRegistryValue(value)
	r.access[key] = ReadOnly
}

// Keys lists the stored keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeRegistryValue(value string) json.RawMessage {
	if json.Valid([]byte(value)) {
		return json.RawMessage(value)
	}
	quoted, _ := json.Marshal(value)
	return json.RawMessage(quoted)
}
