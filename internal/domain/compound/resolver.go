package compound

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/turtacn/compoundrank/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/compoundrank/pkg/errors"
)

// MatchPolicy picks one compound when a name lookup returns several.
type MatchPolicy string

const (
	// MatchLast takes the final match in provider order.
	MatchLast MatchPolicy = "last"
	// MatchFirst takes the provider's top-ranked match.
	MatchFirst MatchPolicy = "first"
	// MatchLowestCID takes the match with the smallest identifier.
	MatchLowestCID MatchPolicy = "lowest_cid"
)

// ParseMatchPolicy validates s.  An empty string yields MatchLast.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MatchLast, nil
	case MatchLast, MatchFirst, MatchLowestCID:
		return p, nil
	default:
		return "", errors.InvalidConfig("unknown match policy").WithDetail(s)
	}
}

func (p MatchPolicy) choose(matches []Match) int {
	switch p {
	case MatchFirst:
		return 0
	case MatchLowestCID:
		best := 0
		for i, m := range matches {
			if m.CID < matches[best].CID {
				best = i
			}
		}
		return best
	default:
		return len(matches) - 1
	}
}

// Resolver maps a free-text name to exactly one Record.
type Resolver struct {
	provider Provider
	policy   MatchPolicy
	logger   logging.Logger
}

// NewResolver creates a Resolver.  A nil logger discards output.
func NewResolver(provider Provider, policy MatchPolicy, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if policy == "" {
		policy = MatchLast
	}
	return &Resolver{provider: provider, policy: policy, logger: logger}
}

// Policy returns the configured match policy.
func (r *Resolver) Policy() MatchPolicy { return r.policy }

// Resolve looks name up and applies the match policy.  Zero matches yield an
// ErrCodeCompoundNotFound error; provider failures are passed through.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Record, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, errors.New(errors.ErrCodeCompoundNotFound, "empty compound name")
	}

	matches, err := r.provider.LookupByName(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New(errors.ErrCodeCompoundNotFound, "no compound matches name").WithDetail(name)
	}

	chosen := r.policy.choose(matches)
	m := matches[chosen]
	if len(matches) > 1 {
		discarded := make([]int64, 0, len(matches)-1)
		for i, other := range matches {
			if i != chosen {
				discarded = append(discarded, other.CID)
			}
		}
		r.logger.Warn("name matched several compounds",
			logging.String("query", name),
			logging.String("policy", string(r.policy)),
			logging.Int64("cid", m.CID),
			logging.Int64s("discarded_cids", discarded))
	}

	display := query
	if len(m.Synonyms) > 0 && strings.TrimSpace(m.Synonyms[0]) != "" {
		display = m.Synonyms[0]
	} else {
		r.logger.Warn("compound has no synonyms, using query name",
			logging.String("query", name),
			logging.Int64("cid", m.CID))
	}

	h := m.Handle
	if h == nil || h.CID() != m.CID {
		h = &MapHandle{ID: m.CID, Values: map[string]any{}}
	}
	return &Record{
		QueryName:   name,
		CID:         m.CID,
		DisplayName: TitleCase(display),
		Handle:      h,
	}, nil
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest, e.g. "ADENOSINE" → "Adenosine".
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
