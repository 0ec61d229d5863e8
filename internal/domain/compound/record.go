package compound

// Record is one successfully resolved input name.
type Record struct {
	// QueryName is the name exactly as it appeared in the input.
	QueryName string
	// CID is the PubChem compound identifier.
	CID int64
	// DisplayName is the first synonym in title case.
	DisplayName string
	// Handle carries whatever the lookup returned for this compound and is
	// what Provider.FetchProperties is asked to fill.  Never nil.
	Handle PropertyHandle
}
