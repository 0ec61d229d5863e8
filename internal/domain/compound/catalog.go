// Package compound turns free-text compound names into a keyed property
// table: property selection against the attribute catalog, name resolution
// through a Provider and batched property collection.
package compound

import "strings"

// catalogNames is the fixed, ordered set of recognized compound attributes.
var catalogNames = [...]string{
	"atom_stereo_count",
	"atoms",
	"bond_stereo_count",
	"bonds",
	"cactvs_fingerprint",
	"canonical_smiles",
	"charge",
	"cid",
	"complexity",
	"conformer_id_3d",
	"conformer_rmsd_3d",
	"coordinate_type",
	"covalent_unit_count",
	"defined_atom_stereo_count",
	"defined_bond_stereo_count",
	"effective_rotor_count_3d",
	"elements",
	"exact_mass",
	"feature_selfoverlap_3d",
	"fingerprint",
	"h_bond_acceptor_count",
	"h_bond_donor_count",
	"heavy_atom_count",
	"inchi",
	"inchikey",
	"isomeric_smiles",
	"isotope_atom_count",
	"iupac_name",
	"mmff94_energy_3d",
	"mmff94_partial_charges_3d",
	"molecular_formula",
	"molecular_weight",
	"monoisotopic_mass",
	"multipoles_3d",
	"pharmacophore_features_3d",
	"rotatable_bond_count",
	"shape_fingerprint_3d",
	"shape_selfoverlap_3d",
	"tpsa",
	"undefined_atom_stereo_count",
	"undefined_bond_stereo_count",
	"volume_3d",
	"xlogp",
}

// IdentifierColumn is the catalog entry that doubles as the table key.
const IdentifierColumn = "cid"

// Catalog is a read-only view over an ordered list of attribute names.
type Catalog struct {
	names  []string
	lookup map[string]string
}

// DefaultCatalog returns the process-wide attribute catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

var defaultCatalog = NewCatalog(catalogNames[:])

// NewCatalog builds a catalog over names.  Later duplicates (compared
// case-insensitively) are ignored.
func NewCatalog(names []string) *Catalog {
	c := &Catalog{lookup: make(map[string]string, len(names))}
	for _, n := range names {
		key := normalizeKey(n)
		if _, dup := c.lookup[key]; dup || key == "" {
			continue
		}
		c.lookup[key] = n
		c.names = append(c.names, n)
	}
	return c
}

// Names returns the catalog entries in order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.names) }

// Match returns the catalog spelling of name, compared case-insensitively
// after trimming surrounding whitespace.
func (c *Catalog) Match(name string) (string, bool) {
	canonical, ok := c.lookup[normalizeKey(name)]
	return canonical, ok
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
