package compound

import "github.com/turtacn/compoundrank/pkg/errors"

// Selection is the ordered, duplicate-free list of catalog attributes to
// collect for every compound.
type Selection struct {
	catalog *Catalog
	names   []string
	dropped int64
}

// NewSelection builds a Selection.  With all set, every catalog entry is
// selected in catalog order and names is ignored.  Otherwise each name is
// appended; invalid names are counted as dropped and returned together in
// the error, which callers treat as a warning.
func NewSelection(catalog *Catalog, names []string, all bool) (*Selection, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &Selection{catalog: catalog}
	if all {
		s.names = catalog.Names()
		return s, nil
	}

	var invalid []string
	for _, n := range names {
		if err := s.Append(n); err != nil {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) > 0 {
		return s, errors.Newf(errors.ErrCodePropertyInvalid, "%d requested properties are not in the catalog", len(invalid)).
			WithDetail(joinQuoted(invalid))
	}
	return s, nil
}

// Append adds name in its catalog spelling.  Re-adding a selected name is a
// no-op.  An unknown name leaves the selection unchanged, increments the
// dropped counter and returns an ErrCodePropertyInvalid error.
func (s *Selection) Append(name string) error {
	canonical, ok := s.catalog.Match(name)
	if !ok {
		s.dropped++
		return errors.New(errors.ErrCodePropertyInvalid, "property is not in the catalog").WithDetail(name)
	}
	for _, n := range s.names {
		if n == canonical {
			return nil
		}
	}
	s.names = append(s.names, canonical)
	return nil
}

// Names returns a copy of the current selection.
func (s *Selection) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of selected attributes.
func (s *Selection) Len() int { return len(s.names) }

// Dropped returns how many Append calls were rejected.
func (s *Selection) Dropped() int64 { return s.dropped }

// Iter returns a fresh iterator over a snapshot of the selection.
func (s *Selection) Iter() *Iterator {
	return &Iterator{names: s.Names()}
}

// Iterator yields each selected name once, in order.  Once exhausted it stays
// exhausted; call Selection.Iter for a new pass.
type Iterator struct {
	names []string
	pos   int
}

// Next returns the next name, or ok=false when the iterator is exhausted.
func (it *Iterator) Next() (name string, ok bool) {
	if it.pos >= len(it.names) {
		return "", false
	}
	name = it.names[it.pos]
	it.pos++
	return name, true
}

func joinQuoted(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += `"` + n + `"`
	}
	return out
}
