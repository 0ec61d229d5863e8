package compound

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) LookupByName(ctx context.Context, name string) ([]Match, error) {
	args := m.Called(ctx, name)
	matches, _ := args.Get(0).([]Match)
	return matches, args.Error(1)
}

// FetchProperties is matched on the requested CIDs.
func (m *mockProvider) FetchProperties(ctx context.Context, handles []PropertyHandle, properties []string) ([]PropertyHandle, error) {
	args := m.Called(ctx, CIDs(handles), properties)
	handles, _ = args.Get(0).([]PropertyHandle)
	return handles, args.Error(1)
}

func match(cid int64, synonyms ...string) Match {
	return Match{CID: cid, Synonyms: synonyms, Handle: &MapHandle{ID: cid}}
}

func handle(cid int64, values map[string]any) PropertyHandle {
	return &MapHandle{ID: cid, Values: values}
}
