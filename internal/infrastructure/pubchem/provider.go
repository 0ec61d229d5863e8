package pubchem

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/compoundrank/internal/domain/compound"
	"github.com/turtacn/compoundrank/pkg/errors"
)

var _ compound.Provider = (*Client)(nil)

type synonymsResponse struct {
	InformationList struct {
		Information []struct {
			CID     int64    `json:"CID"`
			Synonym []string `json:"Synonym"`
		} `json:"Information"`
	} `json:"InformationList"`
}

type propertiesResponse struct {
	PropertyTable struct {
		Properties []map[string]interface{} `json:"Properties"`
	} `json:"PropertyTable"`
}

// LookupByName implements compound.Provider.  Every CID PubChem associates
// with name is returned in PubChem's order; a PUGREST.NotFound fault is an
// empty result.
func (c *Client) LookupByName(ctx context.Context, name string) ([]compound.Match, error) {
	path := "/compound/name/" + url.PathEscape(name) + "/synonyms/JSON"

	var resp synonymsResponse
	if err := c.do(ctx, "lookup", http.MethodGet, path, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return []compound.Match{}, nil
		}
		return nil, err
	}

	info := resp.InformationList.Information
	matches := make([]compound.Match, 0, len(info))
	for _, in := range info {
		if in.CID <= 0 {
			continue
		}
		matches = append(matches, compound.Match{
			CID:      in.CID,
			Synonyms: in.Synonym,
			Handle: &compound.MapHandle{
				ID:     in.CID,
				Values: map[string]any{"synonyms": strings.Join(in.Synonym, "; ")},
			},
		})
	}
	return matches, nil
}

// FetchProperties implements compound.Provider with one POST for the CIDs of
// all resolved handles.  Attributes PUG-REST does not serve are left out of
// every returned handle.
func (c *Client) FetchProperties(ctx context.Context, resolved []compound.PropertyHandle, properties []string) ([]compound.PropertyHandle, error) {
	cids := compound.CIDs(resolved)
	handles := make([]compound.PropertyHandle, 0, len(cids))
	if len(cids) == 0 {
		return handles, nil
	}

	requested := make(map[string]property)
	names := make([]string, 0, len(properties))
	for _, p := range properties {
		prop, ok := propertyMap[p]
		if !ok {
			continue
		}
		if _, dup := requested[p]; !dup {
			names = append(names, prop.name)
		}
		requested[p] = prop
	}

	if len(names) == 0 {
		for _, cid := range cids {
			handles = append(handles, &compound.MapHandle{ID: cid, Values: map[string]any{}})
		}
		return handles, nil
	}

	ids := make([]string, len(cids))
	for i, cid := range cids {
		ids[i] = strconv.FormatInt(cid, 10)
	}
	form := url.Values{"cid": {strings.Join(ids, ",")}}
	path := "/compound/cid/property/" + strings.Join(names, ",") + "/JSON"

	var resp propertiesResponse
	if err := c.do(ctx, "properties", http.MethodPost, path, form, &resp); err != nil {
		return nil, err
	}

	byCID := make(map[int64]*compound.MapHandle, len(resp.PropertyTable.Properties))
	for _, row := range resp.PropertyTable.Properties {
		cid, err := rowCID(row)
		if err != nil {
			return nil, err
		}
		h := &compound.MapHandle{ID: cid, Values: make(map[string]any, len(requested))}
		for catalogName, prop := range requested {
			raw, ok := prop.lookup(row)
			if !ok {
				continue
			}
			if cell, ok := prop.toCell(raw); ok {
				h.Values[catalogName] = cell
			}
		}
		byCID[cid] = h
	}

	missing := make([]int64, 0)
	for _, cid := range cids {
		h, ok := byCID[cid]
		if !ok {
			missing = append(missing, cid)
			continue
		}
		handles = append(handles, h)
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, errors.Newf(errors.ErrCodeProviderParseError, "pubchem returned no properties for %d compounds", len(missing)).
			WithDetail(joinInts(missing))
	}
	return handles, nil
}

func rowCID(row map[string]interface{}) (int64, error) {
	raw, ok := row["CID"]
	if !ok {
		return 0, errors.New(errors.ErrCodeProviderParseError, "property row has no CID")
	}
	cell, _ := property{name: "CID"}.toCell(raw)
	cid, ok := cell.(int64)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeProviderParseError, "property row CID %v is not an integer", raw)
	}
	return cid, nil
}

func joinInts(v []int64) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.FormatInt(n, 10)
	}
	return strings.Join(s, ",")
}
