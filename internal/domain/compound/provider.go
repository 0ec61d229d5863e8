package compound

import "context"

// PropertyHandle is an opaque bag of named compound attributes.  Get uses
// catalog spelling; ok is false when the provider has no value for the
// attribute.
type PropertyHandle interface {
	CID() int64
	Get(property string) (value any, ok bool)
}

// Match is one candidate returned by a name lookup.  Synonyms are ordered as
// the provider ranks them, most common name first.
type Match struct {
	CID      int64
	Synonyms []string
	Handle   PropertyHandle
}

// Provider is the remote chemical database.
type Provider interface {
	// LookupByName returns every compound matching name.  No match is an
	// empty slice and a nil error.
	LookupByName(ctx context.Context, name string) ([]Match, error)

	// FetchProperties retrieves properties for every resolved handle in one
	// request and returns one populated handle per input handle, keyed by
	// CID.
	FetchProperties(ctx context.Context, handles []PropertyHandle, properties []string) ([]PropertyHandle, error)
}

// MapHandle is a PropertyHandle backed by a map keyed by catalog name.
type MapHandle struct {
	ID     int64
	Values map[string]any
}

// CID implements PropertyHandle.
func (h *MapHandle) CID() int64 { return h.ID }

// Get implements PropertyHandle.  "cid" always resolves to the identifier.
func (h *MapHandle) Get(property string) (any, bool) {
	if property == IdentifierColumn {
		return h.ID, true
	}
	v, ok := h.Values[property]
	return v, ok
}

// CIDs returns the identifier of every handle, in order.
func CIDs(handles []PropertyHandle) []int64 {
	out := make([]int64, len(handles))
	for i, h := range handles {
		out[i] = h.CID()
	}
	return out
}
