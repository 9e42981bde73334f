package sqlite

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	sqlite3 "modernc.org/sqlite"
)

// printToConsole mirrors sqlite3_logica.py's PrintToConsole: prints its
// argument and always returns 1, matching the Logica library
// predicate's `1 == SqlExpr("PrintToConsole({message})", ...)` shape.
func printToConsole(_ *sqlite3.FunctionContext, args []driver.Value) (driver.Value, error) {
	fmt.Println(stringArg(args[0]))
	return int64(1), nil
}

// readFile mirrors sqlite3_logica.py's ReadFile: returns the file's
// contents, or nil if it could not be read.
func readFile(_ *sqlite3.FunctionContext, args []driver.Value) (driver.Value, error) {
	data, err := os.ReadFile(stringArg(args[0]))
	if err != nil {
		return nil, nil
	}
	return string(data), nil
}

// writeFile mirrors sqlite3_logica.py's WriteFile: writes content to
// filename, returning "OK" on success or the error text on failure.
func writeFile(_ *sqlite3.FunctionContext, args []driver.Value) (driver.Value, error) {
	if err := os.WriteFile(stringArg(args[0]), []byte(stringArg(args[1])), 0o644); err != nil {
		return err.Error(), nil
	}
	return "OK", nil
}

// joinStrings mirrors sqlite3_logica.py's Join: separator.join over a
// JSON-encoded array, backing the dialect's `Join` built-in
// (`JOIN_STRINGS({0}, {1})`).
func joinStrings(_ *sqlite3.FunctionContext, args []driver.Value) (driver.Value, error) {
	var elems []interface{}
	if err := json.Unmarshal([]byte(stringArg(args[0])), &elems); err != nil {
		return nil, err
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, stringArg(args[1])), nil
}

func stringArg(v driver.Value) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

// argPair is one (sortValue, arg) observation passed to ArgMin/ArgMax.
type argPair struct {
	value driver.Value
	arg   driver.Value
}

// argAggregate implements ArgMin and ArgMax, which both reduce to: keep
// the limit most extreme (value, arg) pairs seen so far, ordered by
// less, and on finalize emit a JSON array of the corresponding args.
// sqlite3_logica.py's ArgMin/ArgMax classes keep this bound with a
// Python heapq max-heap; limit is small in every use this dialect's
// library program makes of it, so this re-sorts and trims on every
// Step instead.
type argAggregate struct {
	less  func(a, b driver.Value) bool
	pairs []argPair
	limit int64
}

func newArgAggregate(less func(a, b driver.Value) bool) sqlite3.NewAggregateFunction {
	return func() sqlite3.AggregateFunction {
		return &argAggregate{less: less}
	}
}

func (a *argAggregate) Step(_ *sqlite3.FunctionContext, args []driver.Value) error {
	arg, value, limit := args[0], args[1], args[2]
	n, ok := toInt64(limit)
	if !ok || n <= 0 {
		return fmt.Errorf("ArgMin/ArgMax's limit must be a positive integer")
	}
	a.limit = n
	a.pairs = append(a.pairs, argPair{value: value, arg: arg})
	sort.Slice(a.pairs, func(i, j int) bool { return a.less(a.pairs[i].value, a.pairs[j].value) })
	if int64(len(a.pairs)) > a.limit {
		a.pairs = a.pairs[:a.limit]
	}
	return nil
}

func (a *argAggregate) WindowValue(_ *sqlite3.FunctionContext) (driver.Value, error) {
	out := make([]interface{}, len(a.pairs))
	for i, p := range a.pairs {
		out[i] = jsonValue(p.arg)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func argMinLess(a, b driver.Value) bool { return compareValues(a, b) < 0 }
func argMaxLess(a, b driver.Value) bool { return compareValues(a, b) > 0 }

// compareValues orders two SQLite scalar values the way ArgMin/ArgMax's
// Python implementation does: numerically if both sides are numbers,
// lexicographically on their text representation otherwise.
func compareValues(a, b driver.Value) int {
	af, aIsNum := toFloat64(a)
	bf, bIsNum := toFloat64(b)
	if aIsNum && bIsNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := stringArg(a), stringArg(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat64(v driver.Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func toInt64(v driver.Value) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func jsonValue(v driver.Value) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
