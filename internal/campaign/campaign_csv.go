package campaign

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sbancuz/fit/internal/fiterr"
)

// LoadCSV reads the injector CSV (header: where, operation,
// operation_probability, value, value_probability) and accumulates it
// into per-(where, operation) buckets, the way
// original_source/main.py's row loop builds its nested defaultdict: the
// first row seen for a (where, operation) pair fixes that bucket's
// operation_probability; every row appends one (value, value_probability)
// alternative.
func LoadCSV(r io.Reader) (*Data, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fiterr.ConfigWrap("load_csv", err, "reading CSV header")
	}
	col, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	d := newData()
	rowNum := 1
	for {
		rowNum++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fiterr.ConfigWrap("load_csv", err, "reading CSV row %d", rowNum)
		}

		where := row[col["where"]]
		operation := row[col["operation"]]
		if where == "" || operation == "" {
			return nil, fiterr.Config("load_csv", "row %d missing where/operation", rowNum)
		}
		if !Operation(operation).Valid() {
			return nil, fiterr.Config("load_csv", "row %d: unknown operation %q", rowNum, operation)
		}

		opProb, err := strconv.ParseFloat(row[col["operation_probability"]], 64)
		if err != nil {
			return nil, fiterr.ConfigWrap("load_csv", err, "row %d: operation_probability", rowNum)
		}
		value, err := strconv.ParseInt(row[col["value"]], 10, 64)
		if err != nil {
			return nil, fiterr.ConfigWrap("load_csv", err, "row %d: value", rowNum)
		}
		valProb, err := strconv.ParseFloat(row[col["value_probability"]], 64)
		if err != nil {
			return nil, fiterr.ConfigWrap("load_csv", err, "row %d: value_probability", rowNum)
		}

		key := bucketKey{where: where, operation: operation}
		b, ok := d.buckets[key]
		if !ok {
			b = &OperationBucket{Where: where, Operation: operation, OperationProbability: opProb}
			d.buckets[key] = b
			d.order = append(d.order, key)
		} else if b.OperationProbability != opProb {
			return nil, fiterr.Config("load_csv", "row %d: operation_probability %v conflicts with earlier value %v for %s/%s",
				rowNum, opProb, b.OperationProbability, where, operation)
		}
		b.Values = append(b.Values, ValueEntry{Value: value, Probability: valProb})

		if !d.seenT[where] {
			d.seenT[where] = true
			d.targets = append(d.targets, where)
		}
	}

	if len(d.order) == 0 {
		return nil, fiterr.Config("load_csv", "CSV has no data rows")
	}
	return d, nil
}

func columnIndex(header []string) (map[string]int, error) {
	want := []string{"where", "operation", "operation_probability", "value", "value_probability"}
	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}
	for _, w := range want {
		if _, ok := idx[w]; !ok {
			return nil, fiterr.Config("load_csv", "CSV missing required column %q", w)
		}
	}
	return idx, nil
}
