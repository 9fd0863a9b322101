package merge

import "strconv"

// UnitTable is an ordered, name-keyed mapping of units. Insertion order is
// output order.
type UnitTable struct {
	keys  []string
	units map[string]*Unit
	anon  int
}

// NewUnitTable creates an empty table.
func NewUnitTable() *UnitTable {
	return &UnitTable{units: make(map[string]*Unit)}
}

// Len returns the number of units.
func (t *UnitTable) Len() int {
	return len(t.keys)
}

// Get returns the unit stored under name.
func (t *UnitTable) Get(name string) (*Unit, bool) {
	u, ok := t.units[name]
	return u, ok
}

// Has reports whether name is present.
func (t *UnitTable) Has(name string) bool {
	_, ok := t.units[name]
	return ok
}

// Set stores u under name. An existing key keeps its position.
func (t *UnitTable) Set(name string, u *Unit) {
	if _, ok := t.units[name]; !ok {
		t.keys = append(t.keys, name)
	}
	t.units[name] = u
}

// Delete removes name and reports whether it was present.
func (t *UnitTable) Delete(name string) bool {
	if _, ok := t.units[name]; !ok {
		return false
	}
	delete(t.units, name)
	for i, k := range t.keys {
		if k == name {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in order.
func (t *UnitTable) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Units returns the units in order.
func (t *UnitTable) Units() []*Unit {
	out := make([]*Unit, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.units[k])
	}
	return out
}

// Named returns the units that can be matched by name, in order.
func (t *UnitTable) Named() []*Unit {
	var out []*Unit
	for _, k := range t.keys {
		if u := t.units[k]; !u.Anonymous {
			out = append(out, u)
		}
	}
	return out
}

// Index returns the position of name, or -1.
func (t *UnitTable) Index(name string) int {
	for i, k := range t.keys {
		if k == name {
			return i
		}
	}
	return -1
}

// Clone copies the table. Units are shared, not copied.
func (t *UnitTable) Clone() *UnitTable {
	c := &UnitTable{
		keys:  append([]string(nil), t.keys...),
		units: make(map[string]*Unit, len(t.units)),
		anon:  t.anon,
	}
	for k, u := range t.units {
		c.units[k] = u
	}
	return c
}

func (t *UnitTable) deepClone() *UnitTable {
	c := t.Clone()
	for k, u := range c.units {
		c.units[k] = u.Clone()
	}
	return c
}

// addAnonymous appends a unit that has no derivable name.
func (t *UnitTable) addAnonymous(u *Unit) {
	u.Anonymous = true
	t.anon++
	t.Set("\x00"+strconv.Itoa(t.anon), u)
}

// insert adds a named unit during extraction. A repeated name resolves to
// the later declaration; the shadowed one stays in place as an anonymous
// unit so source order and text are preserved.
func (t *UnitTable) insert(u *Unit) {
	prev, ok := t.units[u.Name]
	if !ok {
		t.Set(u.Name, u)
		return
	}

	at := t.Index(u.Name)
	t.anon++
	key := "\x00" + strconv.Itoa(t.anon)
	prev.Anonymous = true
	t.units[key] = prev
	t.keys[at] = key
	t.keys = append(t.keys, u.Name)
	t.units[u.Name] = u
}
