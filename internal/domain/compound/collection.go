package compound

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/compoundrank/internal/domain/table"
	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// Name table columns, in order.
const (
	ColumnCID            = IdentifierColumn
	ColumnOriginalName   = "original_name"
	ColumnNormalizedName = "normalized_name"
)

// UnresolvedPolicy decides what happens to names the provider cannot match.
type UnresolvedPolicy string

const (
	// UnresolvedAbort fails the whole batch on the first unmatched name.
	UnresolvedAbort UnresolvedPolicy = "abort"
	// UnresolvedSkip logs the name, records it in the Result and continues.
	UnresolvedSkip UnresolvedPolicy = "skip"
)

// ParseUnresolvedPolicy validates s.  An empty string yields UnresolvedAbort.
func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch p := UnresolvedPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return UnresolvedAbort, nil
	case UnresolvedAbort, UnresolvedSkip:
		return p, nil
	default:
		return "", errors.InvalidConfig("unknown unresolved policy").WithDetail(s)
	}
}

// OriginalNameSeparator joins the query names folded into one table row.
const OriginalNameSeparator = "; "

// Result is the outcome of one Build.
type Result struct {
	// Records holds one entry per resolved input name, in input order.
	Records    []Record
	Table      *table.Table
	Unresolved []string
	// Duplicates are input names whose compound was already produced by an
	// earlier name.  They are folded into that compound's original_name.
	Duplicates []string
}

// group is one table row: a compound and every query name that resolved to
// it, in input order.
type group struct {
	record Record
	names  []string
}

// Collector resolves a batch of names and assembles their property table.
type Collector struct {
	resolver *Resolver
	provider Provider
	policy   UnresolvedPolicy
	logger   logging.Logger
}

// NewCollector creates a Collector.
func NewCollector(resolver *Resolver, provider Provider, policy UnresolvedPolicy, logger logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if policy == "" {
		policy = UnresolvedAbort
	}
	return &Collector{resolver: resolver, provider: provider, policy: policy, logger: logger}
}

// Build resolves every name, fetches the selected properties for all
// resolved compounds in a single provider call and joins them with the name
// table on cid.  The table's columns are cid, original_name,
// normalized_name, then the selection in order with cid left out.
//
// The table holds one row per compound.  When several input names resolve
// to the same cid, the row keeps the first name's position and its
// original_name lists every such name joined by OriginalNameSeparator.
func (c *Collector) Build(ctx context.Context, names []string, sel *Selection) (*Result, error) {
	start := time.Now()
	res := &Result{}

	var groups []*group
	byCID := make(map[int64]*group, len(names))
	for _, name := range names {
		rec, err := c.resolver.Resolve(ctx, name)
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeCompoundNotFound) && c.policy == UnresolvedSkip {
				c.logger.Warn("skipping unresolved compound", logging.String("query", name), logging.Err(err))
				res.Unresolved = append(res.Unresolved, name)
				continue
			}
			return nil, err
		}
		res.Records = append(res.Records, *rec)
		if g, dup := byCID[rec.CID]; dup {
			c.logger.Warn("compound already collected under another name",
				logging.String("query", name),
				logging.String("first_query", g.names[0]),
				logging.Int64("cid", rec.CID))
			res.Duplicates = append(res.Duplicates, name)
			g.add(name)
			continue
		}
		g := &group{record: *rec, names: []string{name}}
		byCID[rec.CID] = g
		groups = append(groups, g)
	}

	properties := propertyColumns(sel)

	nameTbl, err := c.nameTable(groups)
	if err != nil {
		return nil, err
	}
	props, err := c.propertyTable(ctx, groups, properties)
	if err != nil {
		return nil, err
	}
	joined, err := table.JoinByKey(nameTbl, props, ColumnCID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCompoundKeyMismatch, "provider properties do not line up with resolved compounds")
	}
	res.Table = joined

	c.logger.Debug("assembled compound table", logging.String("table", "\n"+joined.String()))
	c.logger.Info("compound collection complete",
		logging.Int("requested", len(names)),
		logging.Int("resolved", len(res.Records)),
		logging.Int("compounds", len(groups)),
		logging.Int("unresolved", len(res.Unresolved)),
		logging.Int("duplicates", len(res.Duplicates)),
		logging.Int("properties", len(properties)),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

// propertyColumns drains a fresh iterator over sel, leaving out cid.
func propertyColumns(sel *Selection) []string {
	var out []string
	if sel == nil {
		return out
	}
	it := sel.Iter()
	for name, ok := it.Next(); ok; name, ok = it.Next() {
		if name == IdentifierColumn {
			continue
		}
		out = append(out, name)
	}
	return out
}

// add records another query name for the compound.  Exact repeats of a
// name already in the group are not listed twice.
func (g *group) add(name string) {
	for _, n := range g.names {
		if n == name {
			return
		}
	}
	g.names = append(g.names, name)
}

func (c *Collector) nameTable(groups []*group) (*table.Table, error) {
	t, err := table.New(ColumnCID, ColumnOriginalName, ColumnNormalizedName)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		original := strings.Join(g.names, OriginalNameSeparator)
		if err := t.AppendRow(g.record.CID, original, g.record.DisplayName); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (c *Collector) propertyTable(ctx context.Context, groups []*group, properties []string) (*table.Table, error) {
	t, err := table.New(append([]string{ColumnCID}, properties...)...)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return t, nil
	}

	resolved := make([]PropertyHandle, len(groups))
	for i, g := range groups {
		resolved[i] = g.record.Handle
	}
	handles, err := c.provider.FetchProperties(ctx, resolved, properties)
	if err != nil {
		return nil, err
	}

	for _, h := range handles {
		row := make([]any, 0, len(properties)+1)
		row = append(row, h.CID())
		for _, p := range properties {
			v, _ := h.Get(p)
			row = append(row, v)
		}
		if err := t.AppendRow(row...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "provider returned an unusable property value")
		}
	}
	return t, nil
}
