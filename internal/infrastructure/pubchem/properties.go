package pubchem

import (
	"encoding/json"
	"strconv"
)

// property describes how a catalog attribute is served by PUG-REST.
type property struct {
	// name is requested in the URL.
	name string
	// aliases are other response keys carrying the same value.
	aliases []string
	// numeric values arriving as strings are parsed.
	numeric bool
}

// propertyMap maps catalog names to PUG-REST property names.  Catalog
// entries absent here (atoms, bonds, 3-D conformer data, ...) are not served
// by the property endpoint and stay empty.
var propertyMap = map[string]property{
	"atom_stereo_count":           {name: "AtomStereoCount"},
	"bond_stereo_count":           {name: "BondStereoCount"},
	"canonical_smiles":            {name: "CanonicalSMILES", aliases: []string{"ConnectivitySMILES"}},
	"charge":                      {name: "Charge"},
	"complexity":                  {name: "Complexity", numeric: true},
	"covalent_unit_count":         {name: "CovalentUnitCount"},
	"defined_atom_stereo_count":   {name: "DefinedAtomStereoCount"},
	"defined_bond_stereo_count":   {name: "DefinedBondStereoCount"},
	"effective_rotor_count_3d":    {name: "EffectiveRotorCount3D", numeric: true},
	"exact_mass":                  {name: "ExactMass", numeric: true},
	"fingerprint":                 {name: "Fingerprint2D"},
	"h_bond_acceptor_count":       {name: "HBondAcceptorCount"},
	"h_bond_donor_count":          {name: "HBondDonorCount"},
	"heavy_atom_count":            {name: "HeavyAtomCount"},
	"inchi":                       {name: "InChI"},
	"inchikey":                    {name: "InChIKey"},
	"isomeric_smiles":             {name: "IsomericSMILES", aliases: []string{"SMILES"}},
	"isotope_atom_count":          {name: "IsotopeAtomCount"},
	"iupac_name":                  {name: "IUPACName"},
	"molecular_formula":           {name: "MolecularFormula"},
	"molecular_weight":            {name: "MolecularWeight", numeric: true},
	"monoisotopic_mass":           {name: "MonoisotopicMass", numeric: true},
	"rotatable_bond_count":        {name: "RotatableBondCount"},
	"tpsa":                        {name: "TPSA", numeric: true},
	"undefined_atom_stereo_count": {name: "UndefinedAtomStereoCount"},
	"undefined_bond_stereo_count": {name: "UndefinedBondStereoCount"},
	"volume_3d":                   {name: "Volume3D", numeric: true},
	"xlogp":                       {name: "XLogP", numeric: true},
}

// Supported reports whether PUG-REST can serve the catalog attribute.
func Supported(catalogName string) bool {
	_, ok := propertyMap[catalogName]
	return ok
}

// lookup finds p's value in a decoded property row.
func (p property) lookup(row map[string]interface{}) (interface{}, bool) {
	if v, ok := row[p.name]; ok {
		return v, true
	}
	for _, a := range p.aliases {
		if v, ok := row[a]; ok {
			return v, true
		}
	}
	return nil, false
}

// toCell converts a JSON value decoded with UseNumber into a table cell.
func (p property) toCell(v interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil {
			return f, true
		}
		return x.String(), true
	case string:
		if p.numeric {
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f, true
			}
		}
		return x, true
	case bool:
		return x, true
	default:
		// Arrays and objects are not part of the property endpoint; keep
		// their JSON text rather than dropping them.
		b, err := json.Marshal(x)
		if err != nil {
			return nil, false
		}
		return string(b), true
	}
}
