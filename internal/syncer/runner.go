// Package syncer orchestrates one reconciliation run: resolve the date
// window, read local usage, upsert the pet record, diff against the remote
// rows and upload what is missing.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sdpower/ccpet-go/internal/pet"
	"github.com/sdpower/ccpet-go/internal/types"
)

// UsageReader produces validated usage rows for a date range.
type UsageReader interface {
	ReadTokenUsage(ctx context.Context, startDate, endDate string) ([]types.UsageRow, error)
}

// SyncClient is the remote side of a reconciliation run.
type SyncClient interface {
	LastDateQuerier
	SyncPetRecord(ctx context.Context, record types.PetRecord) (string, error)
	ResolveMissingRows(ctx context.Context, petID string, rows []types.UsageRow) ([]types.UsageRow, error)
	UploadRows(ctx context.Context, rows []types.UsageRow) types.SyncResult
}

// Options control one run.
type Options struct {
	StartDate string
	EndDate   string
	DryRun    bool
	Verbose   bool
}

// Runner wires the pipeline's collaborators.
type Runner struct {
	Reader UsageReader
	Client SyncClient
	Pets   *pet.Storage
	Out    io.Writer
	Now    func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) printf(opts Options, format string, args ...any) {
	if opts.Verbose && r.Out != nil {
		fmt.Fprintf(r.Out, format+"\n", args...)
	}
}

// Run executes the pipeline. Partial progress is not rolled back; a rerun
// resumes where the failed run left off because already-uploaded rows fall
// out of the diff.
func (r *Runner) Run(ctx context.Context, opts Options) (*types.SyncResult, error) {
	state, err := r.Pets.Load()
	if err != nil {
		if errors.Is(err, types.ErrNoPetState) {
			return nil, fmt.Errorf("no pet data found, create a pet first: %w", err)
		}
		return nil, err
	}
	r.printf(opts, "Loaded pet data: %s (%s)", state.PetName, state.AnimalType)

	record := r.buildPetRecord(state)

	start, end := ResolveRange(ctx, r.Client, opts.StartDate, opts.EndDate, record.ID, record.BirthTime, r.now())
	r.printf(opts, "Sync date range: %s to %s", start, end)

	rows, err := r.Reader.ReadTokenUsage(ctx, start, end)
	if err != nil {
		return nil, err
	}
	r.printf(opts, "Found %d token usage records", len(rows))

	if opts.DryRun {
		r.previewDryRun(state, rows)
		return &types.SyncResult{
			Success: true,
			Status:  types.SyncStatus{Total: len(rows)},
			Message: "Dry run, no data synced",
		}, nil
	}

	r.printf(opts, "Syncing pet record...")
	petID, err := r.Client.SyncPetRecord(ctx, record)
	if err != nil {
		return nil, err
	}
	r.printf(opts, "Pet record synced with ID: %s", petID)

	missing, err := r.Client.ResolveMissingRows(ctx, petID, rows)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return &types.SyncResult{
			Success: true,
			Status:  types.SyncStatus{Total: len(rows)},
			Message: "All records are already synced",
		}, nil
	}
	r.printf(opts, "Syncing %d new token usage records...", len(missing))

	result := r.Client.UploadRows(ctx, missing)
	return &result, nil
}

// buildPetRecord maps the local pet state onto the remote record shape.
// Death fields are populated only once the pet has run out of energy.
func (r *Runner) buildPetRecord(state pet.State) types.PetRecord {
	record := types.PetRecord{
		ID:         state.UUID,
		PetName:    state.PetName,
		AnimalType: state.AnimalType,
		Emoji:      state.Emoji,
		BirthTime:  state.BirthTime,
	}
	if !state.IsAlive() {
		died := r.now()
		days := int(died.Sub(state.BirthTime).Hours() / 24)
		record.DeathTime = &died
		record.SurvivalDays = &days
	}
	return record
}

func (r *Runner) previewDryRun(state pet.State, rows []types.UsageRow) {
	if r.Out == nil {
		return
	}
	fmt.Fprintln(r.Out, "DRY RUN MODE - No data will be synced")
	fmt.Fprintf(r.Out, "Pet: %s (%s)\n", state.PetName, state.AnimalType)
	fmt.Fprintf(r.Out, "Records to sync: %d\n", len(rows))
	if len(rows) > 0 {
		fmt.Fprintln(r.Out, "Sample records:")
		for i, row := range rows {
			if i == 3 {
				break
			}
			fmt.Fprintf(r.Out, "  %s: %d tokens ($%.4f)\n", row.UsageDate, row.TotalTokens, row.CostUSD)
		}
	}
}
