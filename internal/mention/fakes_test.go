package mention

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/mentions/pkg/types"
)

// memStore is an in-memory BlockGetter keyed by CID.
type memStore struct {
	blocks map[string]types.StoredBlock
	calls  int
	err    error
}

func newMemStore() *memStore {
	return &memStore{blocks: map[string]types.StoredBlock{}}
}

func (s *memStore) Get(ctx context.Context, cid, address string, timeout time.Duration) (types.StoredBlock, error) {
	s.calls++
	if s.err != nil {
		return types.StoredBlock{}, s.err
	}
	b, ok := s.blocks[cid]
	if !ok {
		return types.StoredBlock{}, types.NewTransitionError(types.KindStoreUnavailable, types.ReasonStoreUnavailable, fmt.Errorf("%s not found", cid))
	}
	return b, nil
}

// put stores content under cid, the way a committed mutation would land.
func (s *memStore) put(t *testing.T, cid string, content string) {
	t.Helper()
	require.True(t, json.Valid([]byte(content)), "content must be JSON")
	s.blocks[cid] = types.StoredBlock{
		Timestamp:   1,
		Content:     json.RawMessage(content),
		Previous:    json.RawMessage("null"),
		Transaction: json.RawMessage("null"),
	}
}

// fakeAuthority answers FirstOwner with a fixed owner.
type fakeAuthority struct {
	owner   string
	found   bool
	err     error
	calls   int
	filters map[string]string
}

func (a *fakeAuthority) FirstOwner(ctx context.Context, filters map[string]string) (string, bool, error) {
	a.calls++
	a.filters = filters
	return a.owner, a.found, a.err
}

// fixedClock returns a clock pinned at ms unix milliseconds.
func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func proposalData(cid string, mentionable *bool, owner string) string {
	m := map[string]any{"cid": cid, "owner": owner}
	if mentionable != nil {
		m["mentionable"] = *mentionable
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func boolPtr(b bool) *bool { return &b }

// mentionsMutation returns the single mentions mutation in res.
func mentionsMutation(t *testing.T, res types.TransitionResult) types.MetadataMutation {
	t.Helper()
	require.True(t, res.Success, "expected success, got error %q", res.Error)
	var found []types.MetadataMutation
	for _, m := range res.Mutations {
		if m.Alias == types.AliasMentions {
			found = append(found, m)
		}
	}
	require.Len(t, found, 1)
	return found[0]
}
