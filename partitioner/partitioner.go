package partitioner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/cirecord/record"
)

type (
	PartitionPlan struct {
		Func string `validate:"required"`
		Args []string
		As   string `validate:"required"`
	}

	// PartitionFunc derives one path segment value from a row. Column arguments
	// are looked up ignoring case.
	PartitionFunc func(row *record.Record, args []string) (string, error)
)

var (
	Functions = make(map[string]PartitionFunc)

	ErrFuncNotFound = errors.New("partition function not found")

	ErrMissingArgs       = errors.New("missing args")
	ErrMissingColumns    = errors.New("missing one or more columns specified in args")
	ErrInvalidColumnType = errors.New("invalid column type")
)

func RegisterFunctions() {
	Functions["col"] = func(row *record.Record, args []string) (string, error) {
		if len(args) == 0 {
			return "", ErrMissingArgs
		}
		value, exists := row.TryGet(args[0])
		if !exists {
			return "", ErrMissingColumns
		}
		return fmt.Sprint(value), nil
	}
	registerTimeFunc("toDay", func(t time.Time) string {
		return fmt.Sprint(t.Day())
	})
	registerTimeFunc("toMonth", func(t time.Time) string {
		return fmt.Sprint(int(t.Month()))
	})
	registerTimeFunc("toYear", func(t time.Time) string {
		return fmt.Sprint(t.Year())
	})
	registerTimeFunc("toYearDay", func(t time.Time) string {
		return fmt.Sprint(t.YearDay())
	})
	registerTimeFunc("toYearWeek", func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-%02d", year, week)
	})
	registerTimeFunc("toWeekDay", func(t time.Time) string {
		return fmt.Sprint(t.Weekday())
	})
}

func registerTimeFunc(name string, format func(t time.Time) string) {
	Functions[name] = func(row *record.Record, args []string) (string, error) {
		t, err := parseTimeFunc(row, args)
		if err != nil {
			return "", fmt.Errorf("error in parseTimeFunc: %w", err)
		}
		return format(t), nil
	}
}

// GetRowPartition joins the output of each plan into a path such as
// `y=2022/m=12/d=30`. No plans yields the empty path.
func GetRowPartition(row *record.Record, partitioners []PartitionPlan) (string, error) {
	var finalParts []string
	for _, partFunc := range partitioners {
		f, ok := Functions[partFunc.Func]
		if !ok {
			return "", fmt.Errorf("%s: %w", partFunc.Func, ErrFuncNotFound)
		}

		s, err := f(row, partFunc.Args)
		if err != nil {
			return "", fmt.Errorf("error processing partition function %s: %w", partFunc.Func, err)
		}
		finalParts = append(finalParts, fmt.Sprintf("%s=%s", partFunc.As, s))
	}
	return strings.Join(finalParts, "/"), nil
}

func parseTimeFunc(row *record.Record, args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Time{}, ErrMissingArgs
	}

	key := args[0]
	if key == "now()" {
		return time.Now().UTC(), nil
	}

	value, exists := row.TryGet(key)
	if !exists {
		return time.Time{}, ErrMissingColumns
	}

	switch v := value.(type) {
	case string:
		// We have a datetime like YYYY-MM-DDTHH:mm:ss.sssZ
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("error in time.Parse for string: %w", err)
		}
		return t.UTC(), nil
	case float64:
		// JSON numbers are unix milliseconds
		return time.UnixMilli(int64(v)).UTC(), nil
	case time.Time:
		return v.UTC(), nil
	default:
		return time.Time{}, ErrInvalidColumnType
	}
}
