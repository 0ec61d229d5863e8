package pubchem

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/compoundrank/internal/domain/compound"
	"github.com/turtacn/compoundrank/pkg/errors"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) ObserveRequest(operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, operation+":"+status)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRateLimit(1000, 10)}, opts...)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func resolved(cids ...int64) []compound.PropertyHandle {
	out := make([]compound.PropertyHandle, len(cids))
	for i, cid := range cids {
		out[i] = &compound.MapHandle{ID: cid}
	}
	return out
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("ftp://example.org")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestLookupByName(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/compound/name/PC-32765/synonyms/JSON", r.URL.Path)
		assert.Equal(t, "compoundrank-test", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		fmt.Fprint(w, `{"InformationList":{"Information":[
			{"CID":24821094,"Synonym":["ibrutinib","PCI-32765"]},
			{"CID":11,"Synonym":[]}
		]}}`)
	}, WithUserAgent("compoundrank-test"), WithObserver(obs))

	matches, err := c.LookupByName(context.Background(), "PC-32765")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int64(24821094), matches[0].CID)
	assert.Equal(t, []string{"ibrutinib", "PCI-32765"}, matches[0].Synonyms)
	assert.Equal(t, int64(24821094), matches[0].Handle.CID())
	syn, ok := matches[0].Handle.Get("synonyms")
	assert.True(t, ok)
	assert.Equal(t, "ibrutinib; PCI-32765", syn)
	assert.Equal(t, []string{"lookup:200"}, obs.calls)
}

func TestLookupByName_EscapesName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compound/name/acetylsalicylic%20acid/synonyms/JSON", r.URL.EscapedPath())
		fmt.Fprint(w, `{"InformationList":{"Information":[{"CID":2244,"Synonym":["aspirin"]}]}}`)
	})
	matches, err := c.LookupByName(context.Background(), "acetylsalicylic acid")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestLookupByName_NotFoundIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"Fault":{"Code":"PUGREST.NotFound","Message":"No CID found","Details":["No CID found that matches the given name"]}}`)
	})
	matches, err := c.LookupByName(context.Background(), "BG8967")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestLookupByName_Failures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		code   errors.ErrorCode
	}{
		{"server busy", http.StatusServiceUnavailable, `{"Fault":{"Code":"PUGREST.ServerBusy","Message":"Too many requests"}}`, errors.ErrCodeProviderRateLimited},
		{"too many", http.StatusTooManyRequests, `slow down`, errors.ErrCodeProviderRateLimited},
		{"bad request", http.StatusBadRequest, `{"Fault":{"Code":"PUGREST.BadRequest","Message":"bad"}}`, errors.ErrCodeProviderBadStatus},
		{"server error", http.StatusInternalServerError, `<html>oops</html>`, errors.ErrCodeProviderBadStatus},
		{"garbage", http.StatusOK, `{not json`, errors.ErrCodeProviderParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := c.LookupByName(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), err.Error())
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestLookupByName_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c, err := NewClient(addr, WithObserver(obs), WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = c.LookupByName(context.Background(), "x")
	assert.True(t, errors.IsCode(err, errors.ErrCodeProviderUnavailable))
	assert.Equal(t, []string{"lookup:error"}, obs.calls)
}

func TestFetchProperties(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/compound/cid/property/MolecularWeight,XLogP,CanonicalSMILES,HBondDonorCount/JSON", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		assert.NoError(t, err)
		assert.Equal(t, "60961,3365", form.Get("cid"))
		fmt.Fprint(w, `{"PropertyTable":{"Properties":[
			{"CID":3365,"MolecularWeight":"306.27","XLogP":0.4,"ConnectivitySMILES":"C1=NC=NN1","HBondDonorCount":1},
			{"CID":60961,"MolecularWeight":"267.24","XLogP":-1.1,"ConnectivitySMILES":"C1=NC2","HBondDonorCount":4}
		]}}`)
	})

	props := []string{"molecular_weight", "xlogp", "atoms", "canonical_smiles", "h_bond_donor_count", "xlogp"}
	handles, err := c.FetchProperties(context.Background(), resolved(60961, 3365), props)
	require.NoError(t, err)
	require.Len(t, handles, 2)

	h := handles[0]
	assert.Equal(t, int64(60961), h.CID())
	v, ok := h.Get("molecular_weight")
	assert.True(t, ok)
	assert.Equal(t, 267.24, v)
	v, _ = h.Get("xlogp")
	assert.Equal(t, -1.1, v)
	v, _ = h.Get("h_bond_donor_count")
	assert.Equal(t, int64(4), v)
	v, _ = h.Get("canonical_smiles")
	assert.Equal(t, "C1=NC2", v)
	_, ok = h.Get("atoms")
	assert.False(t, ok)
	v, _ = h.Get("cid")
	assert.Equal(t, int64(60961), v)
}

func TestFetchProperties_OnlyUnsupportedSkipsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	handles, err := c.FetchProperties(context.Background(), resolved(1, 2), []string{"atoms", "bonds", "cid"})
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, int64(2), handles[1].CID())

	handles, err = c.FetchProperties(context.Background(), nil, []string{"xlogp"})
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestFetchProperties_MissingRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"PropertyTable":{"Properties":[{"CID":1,"XLogP":1.0}]}}`)
	})
	_, err := c.FetchProperties(context.Background(), resolved(1, 7), []string{"xlogp"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProviderParseError))
	assert.True(t, strings.HasSuffix(err.Error(), ": 7"), err.Error())
}

func TestClient_ImplementsProvider(t *testing.T) {
	var _ compound.Provider = &Client{}
	assert.True(t, Supported("xlogp"))
	assert.False(t, Supported("multipoles_3d"))
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LookupByName(ctx, "x")
	assert.True(t, errors.IsCode(err, errors.ErrCodeProviderUnavailable))
}
