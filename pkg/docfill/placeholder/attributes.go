package placeholder

// Attributes is the ordered attribute map of a placeholder. Values are
// string, int64, float64, bool, nil, []any or *Attributes.
type Attributes struct {
	keys   []string
	values map[string]any
}

func NewAttributes() *Attributes {
	return &Attributes{values: map[string]any{}}
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (a *Attributes) Set(key string, value any) *Attributes {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	return a
}

func (a *Attributes) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

func (a *Attributes) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

func (a *Attributes) Delete(key string) {
	if _, ok := a.values[key]; !ok {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i:i], a.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// First returns the first key and its value.
func (a *Attributes) First() (string, any, bool) {
	if a.Len() == 0 {
		return "", nil, false
	}
	return a.keys[0], a.values[a.keys[0]], true
}

// Clone copies a recursively.
func (a *Attributes) Clone() *Attributes {
	c := NewAttributes()
	for _, k := range a.Keys() {
		c.Set(k, cloneValue(a.values[k]))
	}
	return c
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case *Attributes:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return x
	}
}

// ToMap converts a into plain maps and slices.
func (a *Attributes) ToMap() map[string]any {
	out := make(map[string]any, a.Len())
	for _, k := range a.Keys() {
		out[k] = plainValue(a.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case *Attributes:
		return x.ToMap()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plainValue(item)
		}
		return out
	default:
		return x
	}
}
