// Package export writes admin listings as CSV or XLSX files.
package export

import (
	"database/sql/driver"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	TimeLayout = "2006-01-02 15:04:05"

	CSVContentType  = "text/csv"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "Sheet1"
)

// Column is a header Name and the json tag (Attr) of the record field rendered under it.
type Column struct {
	Name string
	Attr string
}

// WriteCSV writes records, a slice of structs (or pointers to structs), as CSV with a header row.
func WriteCSV(w io.Writer, records interface{}, cols []Column) error {
	rows, err := Rows(records, cols)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err = cw.Write(header(cols)); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	if err = cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "writing csv rows")
	}
	return nil
}

// WriteXLSX writes records as a single sheet workbook with a header row.
func WriteXLSX(w io.Writer, records interface{}, cols []Column) error {
	rows, err := Rows(records, cols)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	write := func(rowIdx int, values []string) error {
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err = f.SetCellStr(sheetName, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err = write(1, header(cols)); err != nil {
		return errors.Wrap(err, "writing xlsx header")
	}
	for i, row := range rows {
		if err = write(i+2, row); err != nil {
			return errors.Wrapf(err, "writing xlsx row %d", i+1)
		}
	}
	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing xlsx")
	}
	return nil
}

// Filename is "<name>.<format>".
func Filename(name, format string) string {
	return name + "." + strings.ToLower(format)
}

func header(cols []Column) []string {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	return names
}

// Rows renders every record as a row of cells, one per column.
func Rows(records interface{}, cols []Column) ([][]string, error) {
	rv := reflect.ValueOf(records)
	if rv.Kind() != reflect.Slice {
		return nil, errors.Errorf("export: records must be a slice, got %T", records)
	}

	rows := make([][]string, 0, rv.Len())
	var fields map[string][]int
	for i := 0; i < rv.Len(); i++ {
		rec := reflect.Indirect(rv.Index(i))
		if rec.Kind() != reflect.Struct {
			return nil, errors.Errorf("export: records must be structs, got %s", rec.Kind())
		}
		if fields == nil {
			fields = jsonFields(rec.Type())
		}

		row := make([]string, len(cols))
		for j, col := range cols {
			idx, ok := fields[col.Attr]
			if !ok {
				return nil, errors.Errorf("export: %s has no attribute %q", rec.Type(), col.Attr)
			}
			row[j] = Cell(rec.FieldByIndex(idx).Interface())
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func jsonFields(t reflect.Type) map[string][]int {
	fields := make(map[string][]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		fld := t.Field(i)
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = fld.Name
		}
		fields[name] = fld.Index
	}
	return fields
}

// Cell renders a single value.
func Cell(v interface{}) string {
	if val, ok := v.(driver.Valuer); ok {
		dv, err := val.Value()
		if err != nil || dv == nil {
			return ""
		}
		v = dv
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(TimeLayout)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return val.Format(TimeLayout)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		return Cell(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}
