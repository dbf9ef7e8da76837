package marketdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v2"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/errs"
	"github.com/meenmo/bondlib/utils"
)

var validate = config.NewValidator()

// QuoteSet is a curve date with the par quotes observed on it.
type QuoteSet struct {
	CurveDate utils.Date       `json:"curve_date" yaml:"curve_date"`
	Quotes    []curve.ParQuote `json:"quotes" yaml:"quotes" validate:"required,min=1,dive"`
}

// BondSet is a list of bond specs priced together.
type BondSet struct {
	Bonds []bond.Spec `json:"bonds" yaml:"bonds" validate:"required,min=1,dive"`
}

// QuoteSheet is the worksheet LoadParQuotes reads from a workbook; the first sheet is used when it
// is absent.
const QuoteSheet = "quotes"

// LoadParQuotes reads par quotes from a .yaml/.yml, .json or .xlsx file.
//
// A workbook holds one quote per row under a header row naming the columns curve_date, tenor, cpn,
// cpn_freq, price and yield_to_maturity (any order, case-insensitive). Blank price or yield cells
// leave the field unset. curve_date must be the same on every row.
func LoadParQuotes(path string) (*QuoteSet, error) {
	var qs QuoteSet
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		set, err := readQuoteWorkbook(path)
		if err != nil {
			return nil, err
		}
		qs = *set
	} else if err := decodeFile(path, &qs); err != nil {
		return nil, err
	}
	if qs.CurveDate.IsZero() {
		return nil, errs.Consistency("LoadParQuotes: %s: curve_date is required", path)
	}
	if err := validate.Struct(qs); err != nil {
		return nil, errs.Domain("LoadParQuotes: %s: %v", path, err)
	}
	return &qs, nil
}

// LoadBonds reads bond specs from a yaml or json file. Each entry starts from bond.DefaultSpec, so
// omitted conventions keep the library defaults.
func LoadBonds(path string) ([]bond.Spec, error) {
	var raw struct {
		Bonds []json.RawMessage `json:"bonds"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if isYAML(path) {
		if data, err = yamlToJSON(data); err != nil {
			return nil, errs.Domain("LoadBonds: %s: %v", path, err)
		}
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Domain("LoadBonds: %s: %v", path, err)
	}
	set := BondSet{Bonds: make([]bond.Spec, len(raw.Bonds))}
	for i, msg := range raw.Bonds {
		set.Bonds[i] = bond.DefaultSpec()
		if err := json.Unmarshal(msg, &set.Bonds[i]); err != nil {
			return nil, errs.Domain("LoadBonds: %s: bond %d: %v", path, i, err)
		}
	}
	if err := validate.Struct(set); err != nil {
		return nil, errs.Domain("LoadBonds: %s: %v", path, err)
	}
	return set.Bonds, nil
}

func readQuoteWorkbook(path string) (*QuoteSet, error) {
	const fn = "LoadParQuotes"
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheet := QuoteSheet
	rows, err := f.GetRows(sheet)
	if err != nil {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errs.Consistency("%s: %s has no sheets", fn, path)
		}
		sheet = sheets[0]
		if rows, err = f.GetRows(sheet); err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
	}
	if len(rows) < 2 {
		return nil, errs.Consistency("%s: sheet %s has no quote rows", fn, sheet)
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"curve_date", "tenor"} {
		if _, ok := col[name]; !ok {
			return nil, errs.Consistency("%s: sheet %s has no %s column", fn, sheet, name)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	set := &QuoteSet{}
	for n, row := range rows[1:] {
		line := n + 2
		tenor := cell(row, "tenor")
		if tenor == "" {
			continue
		}
		d, err := utils.ParseDate(cell(row, "curve_date"))
		if err != nil {
			return nil, errs.Domain("%s: sheet %s row %d: %v", fn, sheet, line, err)
		}
		if set.CurveDate.IsZero() {
			set.CurveDate = utils.NewDate(d)
		} else if !set.CurveDate.Equal(d) {
			return nil, errs.Consistency("%s: sheet %s row %d: curve date %s differs from %s", fn, sheet, line,
				d.Format(utils.DateLayout), set.CurveDate)
		}

		q := curve.ParQuote{Tenor: tenor}
		if q.Coupon, err = parseFloat(cell(row, "cpn")); err != nil {
			return nil, errs.Domain("%s: sheet %s row %d: cpn: %v", fn, sheet, line, err)
		}
		freq, err := parseFloat(cell(row, "cpn_freq"))
		if err != nil {
			return nil, errs.Domain("%s: sheet %s row %d: cpn_freq: %v", fn, sheet, line, err)
		}
		q.Frequency = int(freq)
		if q.Price, err = parseOptional(cell(row, "price")); err != nil {
			return nil, errs.Domain("%s: sheet %s row %d: price: %v", fn, sheet, line, err)
		}
		if q.Yield, err = parseOptional(cell(row, "yield_to_maturity")); err != nil {
			return nil, errs.Domain("%s: sheet %s row %d: yield_to_maturity: %v", fn, sheet, line, err)
		}
		set.Quotes = append(set.Quotes, q)
	}
	return set, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseOptional(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// decodeFile unmarshals a yaml or json file into v.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return errs.Domain("failed to decode %s: %v", path, err)
	}
	return nil
}

// yamlToJSON re-encodes a yaml document as json so that defaults can be layered per entry.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(jsonCompatible(doc))
}

// jsonCompatible converts yaml.v2's map[interface{}]interface{} into string-keyed maps.
func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []interface{}:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	}
	return v
}
