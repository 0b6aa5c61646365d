package http_server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danthegoodman1/cirecord/partitioner"
	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/gojsonutils"
)

var (
	ErrNotFlatMap = errors.New("not a flat map")
	ErrNotObject  = errors.New("line was not a JSON object")
	ErrNoRows     = errors.New("no rows found")
)

const maxLineBytes = 10 << 20

type partitionedRows struct {
	// partition paths in first-seen order
	order []string
	rows  map[string][]*record.Record
}

// flattenRow turns a nested JSON object into a record keyed by dotted paths, e.g.
// `{"a":{"b":1}}` becomes `a.b`. Keys that differ only by case are rejected.
func flattenRow(raw map[string]any) (*record.Record, error) {
	flat, err := gojsonutils.Flatten(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("error in gojsonutils.Flatten: %w", err)
	}
	flatMap, ok := flat.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("got %T: %w", flat, ErrNotFlatMap)
	}
	rec, err := record.FromMap(flatMap)
	if err != nil {
		return nil, fmt.Errorf("error in record.FromMap: %w", err)
	}
	return rec, nil
}

// parseRows reads NDJSON from rowsString when set, otherwise the JSON array rows.
func parseRows(rowsString *string, rows []map[string]any) ([]*record.Record, error) {
	var records []*record.Record
	if rowsString != nil {
		scanner := bufio.NewScanner(strings.NewReader(*rowsString))
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			var raw any
			if err := json.Unmarshal([]byte(text), &raw); err != nil {
				return nil, fmt.Errorf("line %d: error in json.Unmarshal: %w", line, err)
			}
			jsonMap, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line %d: %w", line, ErrNotObject)
			}
			rec, err := flattenRow(jsonMap)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			records = append(records, rec)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error in scanner.Scan: %w", err)
		}
	} else {
		for i, raw := range rows {
			rec, err := flattenRow(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return nil, ErrNoRows
	}
	return records, nil
}

func partitionRows(records []*record.Record, plans []partitioner.PartitionPlan) (*partitionedRows, error) {
	parts := &partitionedRows{
		rows: make(map[string][]*record.Record),
	}
	for i, rec := range records {
		part, err := partitioner.GetRowPartition(rec, plans)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, exists := parts.rows[part]; !exists {
			parts.order = append(parts.order, part)
		}
		parts.rows[part] = append(parts.rows[part], rec)
	}
	return parts, nil
}
