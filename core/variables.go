package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// InputKey is the conventional variable name carrying the primary input of
// a function. ExecuteSequence writes each successful step's output here so
// the next step can consume it.
const InputKey = "input"

// Variables is the ordered, mutable context bag passed into and returned
// from every invocation. Keys are unique; iteration follows insertion order
// while lookup is independent of it. Re-setting an existing key keeps its
// original position.
//
// Variables is safe for concurrent use. Values are stored as-is; Clone copies
// the bag (not the values it points to). The zero value is an empty bag
// ready to use.
type Variables struct {
	mu     sync.RWMutex
	values *orderedmap.OrderedMap[string, any]
}

// NewVariables returns an empty bag.
func NewVariables() *Variables {
	return &Variables{values: orderedmap.New[string, any]()}
}

// NewVariablesWithInput returns a bag holding input under InputKey.
func NewVariablesWithInput(input string) *Variables {
	v := NewVariables()
	v.Set(InputKey, input)
	return v
}

// VariablesFromMap builds a bag from a plain map. Map iteration order is
// random in Go, so keys are inserted in lexical order to keep the result
// deterministic.
func VariablesFromMap(m map[string]any) *Variables {
	v := NewVariables()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.values.Set(k, m[k])
	}
	return v
}

// Set stores value under key.
func (v *Variables) Set(key string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lazyInit()
	v.values.Set(key, value)
}

// Get returns the value stored under key.
func (v *Variables) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.values == nil {
		return nil, false
	}
	return v.values.Get(key)
}

// GetString returns the string form of the value under key, or "" when the
// key is absent or holds nil.
func (v *Variables) GetString(key string) string {
	val, ok := v.Get(key)
	if !ok {
		return ""
	}
	return Stringify(val)
}

// Input is shorthand for GetString(InputKey).
func (v *Variables) Input() string { return v.GetString(InputKey) }

// Has reports whether key is present.
func (v *Variables) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (v *Variables) Delete(key string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.values == nil {
		return false
	}
	_, present := v.values.Delete(key)
	return present
}

// Len returns the number of stored keys.
func (v *Variables) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.values == nil {
		return 0
	}
	return v.values.Len()
}

// Keys returns the keys in insertion order.
func (v *Variables) Keys() []string {
	entries := v.snapshot()
	keys := make([]string, 0, len(entries))
	for _, kv := range entries {
		keys = append(keys, kv.key)
	}
	return keys
}

// Range calls fn for every entry in insertion order until fn returns false.
// fn runs on a snapshot, so it may mutate v.
func (v *Variables) Range(fn func(key string, value any) bool) {
	for _, kv := range v.snapshot() {
		if !fn(kv.key, kv.value) {
			return
		}
	}
}

// Clone returns an independent copy preserving order.
func (v *Variables) Clone() *Variables {
	c := NewVariables()
	for _, kv := range v.snapshot() {
		c.values.Set(kv.key, kv.value)
	}
	return c
}

// Merge copies every entry of other into v, overwriting existing keys.
func (v *Variables) Merge(other *Variables) {
	if other == nil || other == v {
		return
	}
	entries := other.snapshot()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lazyInit()
	for _, kv := range entries {
		v.values.Set(kv.key, kv.value)
	}
}

// ToMap returns a shallow copy as a plain map.
func (v *Variables) ToMap() map[string]any {
	entries := v.snapshot()
	m := make(map[string]any, len(entries))
	for _, kv := range entries {
		m[kv.key] = kv.value
	}
	return m
}

// MarshalJSON encodes the bag as a JSON object preserving key order.
func (v *Variables) MarshalJSON() ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v.values)
}

// String renders the bag as key=value pairs in insertion order.
func (v *Variables) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, kv := range v.snapshot() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", kv.key, kv.value)
	}
	b.WriteString("}")
	return b.String()
}

type entry struct {
	key   string
	value any
}

// lazyInit allocates the backing map; callers hold the write lock.
func (v *Variables) lazyInit() {
	if v.values == nil {
		v.values = orderedmap.New[string, any]()
	}
}

func (v *Variables) snapshot() []entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.values == nil {
		return nil
	}
	out := make([]entry, 0, v.values.Len())
	for pair := v.values.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, entry{key: pair.Key, value: pair.Value})
	}
	return out
}

// Stringify converts an arbitrary value into the text form used for
// template substitution and Result output. nil becomes "".
func Stringify(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
