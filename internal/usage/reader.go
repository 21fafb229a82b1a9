// Package usage reads daily token usage by invoking the ccusage CLI and
// normalizing its JSON output into token_usage rows.
package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/sdpower/ccpet-go/internal/types"
)

// DefaultModelName is attributed to rows whose source reports no model.
const DefaultModelName = "claude-sonnet-4-20250514"

var (
	dateFormatRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// npx prints install/cache notices on stderr; they are not errors.
	benignStderrRe = regexp.MustCompile(`^npx:\s+(installed|cached)\s+\d+\s+in\s+[\d.]+s?$`)
)

// RunCommand executes the external tool and returns its stdout and stderr.
type RunCommand func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func defaultRunCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Reader invokes ccusage and parses its daily report.
type Reader struct {
	run RunCommand
}

func NewReader() *Reader {
	return &Reader{run: defaultRunCommand}
}

// SetRunCommand replaces the subprocess runner, for tests.
func (r *Reader) SetRunCommand(run RunCommand) {
	r.run = run
}

// ReadTokenUsage runs ccusage for the given date range (either bound may be
// empty) and returns validated, normalized usage rows. All failures are
// types.ValidationError.
func (r *Reader) ReadTokenUsage(ctx context.Context, startDate, endDate string) ([]types.UsageRow, error) {
	args := []string{"ccusage@latest", "daily", "--json"}
	if startDate != "" {
		args = append(args, "--since", strings.ReplaceAll(startDate, "-", ""))
	}
	if endDate != "" {
		args = append(args, "--until", strings.ReplaceAll(endDate, "-", ""))
	}

	stdout, stderr, err := r.run(ctx, "npx", args...)
	if err != nil {
		return nil, types.ValidationError{Message: fmt.Sprintf("ccusage command failed: %v", err)}
	}
	if msg := strings.TrimSpace(string(stderr)); msg != "" && !benignStderrRe.MatchString(msg) {
		return nil, types.ValidationError{Message: fmt.Sprintf("ccusage command stderr: %s", msg)}
	}

	raw, err := parseOutput(stdout)
	if err != nil {
		return nil, err
	}

	rows := make([]types.UsageRow, 0, len(raw))
	for i, item := range raw {
		row, err := validateRecord(item, i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseOutput accepts the current {daily:[...]} shape and, for backward
// compatibility, a bare array.
func parseOutput(stdout []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var wrapper struct {
		Daily json.RawMessage `json:"daily"`
	}
	payload := trimmed
	if err := json.Unmarshal(trimmed, &wrapper); err == nil && wrapper.Daily != nil {
		payload = wrapper.Daily
	}

	var records []map[string]any
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, types.ValidationError{
			Message: fmt.Sprintf("ccusage output format is not recognized: %v", err),
			Data:    string(trimmed),
		}
	}
	return records, nil
}

func validateRecord(item map[string]any, index int) (types.UsageRow, error) {
	for _, field := range []string{"date", "inputTokens", "outputTokens", "totalTokens", "totalCost"} {
		if _, ok := item[field]; !ok {
			return types.UsageRow{}, types.ValidationError{
				Message: fmt.Sprintf("record at index %d missing required field %s", index, field),
				Data:    item,
			}
		}
	}

	date, ok := item["date"].(string)
	if !ok || !isValidDate(strings.TrimSpace(date)) {
		return types.UsageRow{}, types.ValidationError{
			Message: fmt.Sprintf("record at index %d has invalid date: %v", index, item["date"]),
			Data:    item,
		}
	}

	numbers := map[string]float64{}
	for _, field := range []string{"inputTokens", "outputTokens", "totalTokens", "totalCost"} {
		n, ok := item[field].(float64)
		if !ok || n < 0 {
			return types.UsageRow{}, types.ValidationError{
				Message: fmt.Sprintf("record at index %d has invalid %s: %v", index, field, item[field]),
				Data:    item,
			}
		}
		numbers[field] = n
	}

	var cacheTokens float64
	for _, field := range []string{"cacheCreationTokens", "cacheReadTokens"} {
		v, present := item[field]
		if !present || v == nil {
			continue
		}
		n, ok := v.(float64)
		if !ok || n < 0 {
			return types.UsageRow{}, types.ValidationError{
				Message: fmt.Sprintf("record at index %d has invalid %s: %v", index, field, v),
				Data:    item,
			}
		}
		cacheTokens += n
	}

	model := DefaultModelName
	if used, ok := item["modelsUsed"].([]any); ok && len(used) > 0 {
		if name, ok := used[0].(string); ok && name != "" {
			model = strings.TrimSpace(name)
		}
	}

	// Token counts truncate; cost rounds to 4 decimal places.
	return types.UsageRow{
		UsageDate:    strings.TrimSpace(date),
		InputTokens:  int(numbers["inputTokens"]),
		OutputTokens: int(numbers["outputTokens"]),
		CacheTokens:  int(cacheTokens),
		TotalTokens:  int(numbers["totalTokens"]),
		CostUSD:      math.Round(numbers["totalCost"]*1e4) / 1e4,
		ModelName:    model,
	}, nil
}

func isValidDate(s string) bool {
	if !dateFormatRe.MatchString(s) {
		return false
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return false
	}
	return d.Format("2006-01-02") == s
}
