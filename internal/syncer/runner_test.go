package syncer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sdpower/ccpet-go/internal/pet"
	"github.com/sdpower/ccpet-go/internal/types"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	lastDate      string
	lastDateErr   error
	petRecord     types.PetRecord
	missing       []types.UsageRow
	uploaded      []types.UsageRow
	uploadCalled  bool
	resolveCalled bool
}

func (f *fakeClient) LastSyncedDate(ctx context.Context, petID string) (string, error) {
	return f.lastDate, f.lastDateErr
}

func (f *fakeClient) SyncPetRecord(ctx context.Context, record types.PetRecord) (string, error) {
	f.petRecord = record
	return record.ID, nil
}

func (f *fakeClient) ResolveMissingRows(ctx context.Context, petID string, rows []types.UsageRow) ([]types.UsageRow, error) {
	f.resolveCalled = true
	return f.missing, nil
}

func (f *fakeClient) UploadRows(ctx context.Context, rows []types.UsageRow) types.SyncResult {
	f.uploadCalled = true
	f.uploaded = rows
	return types.SyncResult{
		Success: true,
		Status:  types.SyncStatus{Total: len(rows), Processed: len(rows)},
		Message: "ok",
	}
}

type fakeReader struct {
	rows  []types.UsageRow
	start string
	end   string
}

func (f *fakeReader) ReadTokenUsage(ctx context.Context, startDate, endDate string) ([]types.UsageRow, error) {
	f.start, f.end = startDate, endDate
	return f.rows, nil
}

func newTestRunner(t *testing.T, state pet.State, client *fakeClient, reader *fakeReader) (*Runner, *bytes.Buffer) {
	t.Helper()
	store := pet.NewStorage(t.TempDir())
	require.NoError(t, store.Save(state))

	var out bytes.Buffer
	return &Runner{
		Reader: reader,
		Client: client,
		Pets:   store,
		Out:    &out,
		Now:    func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) },
	}, &out
}

func alivePet() pet.State {
	return pet.State{
		UUID:       "pet-uuid-1",
		PetName:    "Fluffy",
		AnimalType: "cat",
		Emoji:      "🐱",
		BirthTime:  time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Energy:     80,
	}
}

func TestRunUploadsMissingRows(t *testing.T) {
	rows := []types.UsageRow{
		{UsageDate: "2024-01-18", TotalTokens: 100},
		{UsageDate: "2024-01-19", TotalTokens: 200},
	}
	client := &fakeClient{lastDate: "2024-01-17", missing: rows}
	reader := &fakeReader{rows: rows}

	runner, _ := newTestRunner(t, alivePet(), client, reader)
	result, err := runner.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Equal(t, "2024-01-18", reader.start, "incremental window from last synced date")
	require.Equal(t, "2024-01-20", reader.end)
	require.Len(t, client.uploaded, 2)
	require.Nil(t, client.petRecord.DeathTime, "living pet carries no death fields")
}

func TestRunAllRecordsSynced(t *testing.T) {
	client := &fakeClient{missing: nil}
	reader := &fakeReader{rows: []types.UsageRow{{UsageDate: "2024-01-18", TotalTokens: 100}}}

	runner, _ := newTestRunner(t, alivePet(), client, reader)
	result, err := runner.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "All records are already synced", result.Message)
	require.False(t, client.uploadCalled)
}

func TestRunDryRunSkipsRemoteWrites(t *testing.T) {
	client := &fakeClient{}
	reader := &fakeReader{rows: []types.UsageRow{{UsageDate: "2024-01-18", TotalTokens: 100, CostUSD: 0.01}}}

	runner, out := newTestRunner(t, alivePet(), client, reader)
	result, err := runner.Run(context.Background(), Options{DryRun: true, StartDate: "2024-01-18"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.False(t, client.resolveCalled)
	require.False(t, client.uploadCalled)
	require.Empty(t, client.petRecord.ID, "dry run must not upsert the pet record")
	require.Contains(t, out.String(), "DRY RUN MODE")
}

func TestRunDeadPetGetsTerminalFields(t *testing.T) {
	state := alivePet()
	state.Energy = 0

	client := &fakeClient{}
	reader := &fakeReader{}
	runner, _ := newTestRunner(t, state, client, reader)

	_, err := runner.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.NotNil(t, client.petRecord.DeathTime)
	require.NotNil(t, client.petRecord.SurvivalDays)
	require.Equal(t, 19, *client.petRecord.SurvivalDays)
}

func TestRunNoPetState(t *testing.T) {
	runner := &Runner{
		Reader: &fakeReader{},
		Client: &fakeClient{},
		Pets:   pet.NewStorage(t.TempDir()),
	}

	_, err := runner.Run(context.Background(), Options{})
	require.ErrorIs(t, err, types.ErrNoPetState)
}
