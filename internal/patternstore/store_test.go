package patternstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportlib/titleparser/internal/observability"
)

type fakeSource struct {
	records []Record
	err     error
}

func (f fakeSource) FetchAll(ctx context.Context) ([]Record, error) {
	return f.records, f.err
}

func boundaryMarker() Record {
	return Record{Type: TypeReportType, Term: BoundaryMarkerTerm, Subtype: string(SubtypeBoundaryMarker), Active: true}
}

func TestStore_LoadFailsClosedWithoutBoundaryMarker(t *testing.T) {
	store := New(observability.DefaultLogger())
	err := store.Load(context.Background(), fakeSource{records: []Record{
		{Type: TypeReportType, Term: "Analysis", Subtype: string(SubtypePrimaryKeyword), Active: true},
	}})

	require.ErrorIs(t, err, ErrNoBoundaryMarker)
	assert.False(t, store.Loaded())
}

func TestStore_LoadFailsClosedWhenSourceUnreachable(t *testing.T) {
	store := New(observability.DefaultLogger())
	err := store.Load(context.Background(), fakeSource{err: errors.New("connection refused")})

	require.ErrorIs(t, err, ErrStoreUnreachable)
	assert.False(t, store.Loaded())
}

func TestStore_LoadSkipsInactiveAndDuplicateRecords(t *testing.T) {
	store := New(observability.DefaultLogger())
	err := store.Load(context.Background(), fakeSource{records: []Record{
		boundaryMarker(),
		{Type: TypeReportType, Term: "Analysis", Subtype: string(SubtypePrimaryKeyword), Active: true},
		{Type: TypeReportType, Term: "Analysis", Subtype: string(SubtypePrimaryKeyword), Active: true}, // duplicate
		{Type: TypeReportType, Term: "Retired", Subtype: string(SubtypePrimaryKeyword), Active: false},
	}})
	require.NoError(t, err)

	got := store.PatternsFor(TypeReportType, string(SubtypePrimaryKeyword))
	require.Len(t, got, 1)
	assert.Equal(t, "Analysis", got[0].Term)
}

func TestStore_PatternsForOrdersByPriorityThenLongestTermFirst(t *testing.T) {
	store := New(observability.DefaultLogger())
	err := store.Load(context.Background(), fakeSource{records: []Record{
		boundaryMarker(),
		{Type: TypeGeographic, Term: "North America", Priority: 0, Active: true},
		{Type: TypeGeographic, Term: "Asia Pacific", Priority: 0, Active: true},
		{Type: TypeGeographic, Term: "Idaho", Priority: 1, Active: true},
	}})
	require.NoError(t, err)

	got := store.PatternsFor(TypeGeographic, "")
	require.Len(t, got, 3)
	assert.Equal(t, "North America", got[0].Term) // priority 0, longer term
	assert.Equal(t, "Asia Pacific", got[1].Term)   // priority 0, shorter term
	assert.Equal(t, "Idaho", got[2].Term)          // priority 1
}

func TestStore_ResolveAliasIgnoresArchivedAliases(t *testing.T) {
	store := New(observability.DefaultLogger())
	err := store.Load(context.Background(), fakeSource{records: []Record{
		boundaryMarker(),
		{Type: TypeGeographic, Term: "Idaho", Aliases: []string{"ID"}, ArchivedAliases: []string{"ID"}, Active: true},
	}})
	require.NoError(t, err)

	_, ok := store.ResolveAlias(TypeGeographic, "ID")
	assert.False(t, ok)

	term, ok := store.ResolveAlias(TypeGeographic, "idaho")
	assert.True(t, ok)
	assert.Equal(t, "Idaho", term)
}

func TestStore_ReloadSwapsSnapshotAtomically(t *testing.T) {
	store := New(observability.DefaultLogger())
	require.NoError(t, store.Load(context.Background(), fakeSource{records: []Record{
		boundaryMarker(),
		{Type: TypeGeographic, Term: "Idaho", Active: true},
	}}))

	require.NoError(t, store.Reload(context.Background(), fakeSource{records: []Record{
		boundaryMarker(),
		{Type: TypeGeographic, Term: "Texas", Active: true},
	}}))

	got := store.PatternsFor(TypeGeographic, "")
	require.Len(t, got, 1)
	assert.Equal(t, "Texas", got[0].Term)
}
