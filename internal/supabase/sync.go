package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sdpower/ccpet-go/internal/types"
)

const uploadBatchSize = 100

// SyncPetRecord upserts the pet record and returns its id. When the remote
// copy already matches field for field, no write is issued; this keeps the
// hot sync path from rewriting an unchanged row on every run.
func (c *Client) SyncPetRecord(ctx context.Context, record types.PetRecord) (string, error) {
	existing, found, err := c.fetchPetRecord(ctx, record.ID)
	if err != nil {
		return "", types.SyncError{Op: fmt.Sprintf("pet record %s", record.ID), Err: err}
	}
	if found && existing.Equal(record) {
		return record.ID, nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", types.SyncError{Op: fmt.Sprintf("pet record %s", record.ID), Err: err}
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/rest/v1/pet_records", "resolution=merge-duplicates", payload)
	if err != nil {
		return "", types.SyncError{Op: fmt.Sprintf("pet record %s", record.ID), Err: err}
	}
	if !isSuccess(status) {
		return "", types.SyncError{
			Op:  fmt.Sprintf("pet record %s", record.ID),
			Err: types.HTTPError{StatusCode: status, Body: string(body)},
		}
	}
	return record.ID, nil
}

func (c *Client) fetchPetRecord(ctx context.Context, id string) (types.PetRecord, bool, error) {
	path := fmt.Sprintf("/rest/v1/pet_records?id=eq.%s&limit=1", url.QueryEscape(id))
	status, body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return types.PetRecord{}, false, err
	}
	if status != http.StatusOK {
		return types.PetRecord{}, false, types.HTTPError{StatusCode: status, Body: string(body)}
	}

	var records []types.PetRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return types.PetRecord{}, false, fmt.Errorf("parse pet record: %w", err)
	}
	if len(records) == 0 {
		return types.PetRecord{}, false, nil
	}
	return records[0], true, nil
}

// ResolveMissingRows returns the subset of rows not yet present remotely
// for the pet, each tagged with the pet id. Presence is judged by the full
// content key, so a corrected row uploads as a new record rather than
// silently matching on date alone.
func (c *Client) ResolveMissingRows(ctx context.Context, petID string, rows []types.UsageRow) ([]types.UsageRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	minDate, maxDate := rows[0].UsageDate, rows[0].UsageDate
	for _, row := range rows[1:] {
		if row.UsageDate < minDate {
			minDate = row.UsageDate
		}
		if row.UsageDate > maxDate {
			maxDate = row.UsageDate
		}
	}

	path := fmt.Sprintf(
		"/rest/v1/token_usage?pet_id=eq.%s&usage_date=gte.%s&usage_date=lte.%s&select=usage_date,total_tokens,input_tokens,output_tokens,cost_usd",
		url.QueryEscape(petID), minDate, maxDate,
	)
	status, body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, types.SyncError{Op: fmt.Sprintf("existing rows for pet %s", petID), Err: err}
	}
	if status != http.StatusOK {
		return nil, types.SyncError{
			Op:  fmt.Sprintf("existing rows for pet %s", petID),
			Err: types.HTTPError{StatusCode: status, Body: string(body)},
		}
	}

	var remote []types.UsageRow
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, types.SyncError{Op: fmt.Sprintf("existing rows for pet %s", petID), Err: err}
	}

	existing := make(map[types.UsageRowKey]struct{}, len(remote))
	for _, row := range remote {
		existing[row.Key()] = struct{}{}
	}

	var missing []types.UsageRow
	for _, row := range rows {
		if _, ok := existing[row.Key()]; ok {
			continue
		}
		row.PetID = petID
		missing = append(missing, row)
	}
	return missing, nil
}

// UploadRows uploads rows in batches of at most 100, merge-on-conflict. A
// failed batch counts all of its rows as failed and the upload moves on to
// the next batch; the result reports per-batch errors.
func (c *Client) UploadRows(ctx context.Context, rows []types.UsageRow) types.SyncResult {
	status := types.SyncStatus{Total: len(rows)}

	if len(rows) == 0 {
		return types.SyncResult{Success: true, Status: status, Message: "No records to sync"}
	}

	for start := 0; start < len(rows); start += uploadBatchSize {
		end := start + uploadBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		c.uploadBatch(ctx, rows[start:end], &status)
	}

	success := status.Failed == 0
	message := fmt.Sprintf("Successfully synced %d records", status.Processed)
	if !success {
		message = fmt.Sprintf("Synced %d records with %d failures", status.Processed, status.Failed)
	}
	return types.SyncResult{Success: success, Status: status, Message: message}
}

func (c *Client) uploadBatch(ctx context.Context, batch []types.UsageRow, status *types.SyncStatus) {
	payload, err := json.Marshal(batch)
	if err != nil {
		status.Failed += len(batch)
		status.Errors = append(status.Errors, fmt.Sprintf("batch encode error: %v", err))
		return
	}

	code, body, err := c.doRequest(ctx, http.MethodPost, "/rest/v1/token_usage", "resolution=merge-duplicates", payload)
	if err != nil {
		status.Failed += len(batch)
		status.Errors = append(status.Errors, fmt.Sprintf("batch sync error: %v", err))
		return
	}
	if !isSuccess(code) {
		status.Failed += len(batch)
		status.Errors = append(status.Errors, fmt.Sprintf("batch sync failed with status %d: %s", code, body))
		return
	}
	status.Processed += len(batch)
}

// LastSyncedDate returns the most recent usage_date stored for the pet, or
// the empty string when the pet has never synced. Transient failures
// surface as SyncError so "never synced" is never inferred from an outage.
func (c *Client) LastSyncedDate(ctx context.Context, petID string) (string, error) {
	path := fmt.Sprintf("/rest/v1/token_usage?pet_id=eq.%s&select=usage_date&order=usage_date.desc&limit=1", url.QueryEscape(petID))
	status, body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return "", types.SyncError{Op: fmt.Sprintf("last synced date for pet %s", petID), Err: err}
	}
	if status != http.StatusOK {
		return "", types.SyncError{
			Op:  fmt.Sprintf("last synced date for pet %s", petID),
			Err: types.HTTPError{StatusCode: status, Body: string(body)},
		}
	}

	var records []struct {
		UsageDate string `json:"usage_date"`
	}
	if err := json.Unmarshal(body, &records); err != nil {
		return "", types.SyncError{Op: fmt.Sprintf("last synced date for pet %s", petID), Err: err}
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0].UsageDate, nil
}
