package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// document is the shape of YAML and TOML workbooks:
//
//	sheets:
//	  - name: Sheet1
//	    cells:
//	      A1: 1
//	      A2: "=A1*2"
type document struct {
	Sheets []sheetDocument `yaml:"sheets" toml:"sheets"`
}

type sheetDocument struct {
	Name  string         `yaml:"name" toml:"name"`
	Cells map[string]any `yaml:"cells" toml:"cells"`
}

// encodings are the CSV source encodings accepted by name
var encodings = map[string]encoding.Encoding{
	"utf-8":        nil,
	"utf8":         nil,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp437":        charmap.CodePage437,
}

// Encodings lists the accepted encoding names
func Encodings() []string {
	return []string{"utf-8", "latin1", "iso-8859-15", "windows-1252", "cp437"}
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, ok := encodings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Load reads a workbook file, choosing the format from the extension: .yaml,
// .yml, .toml or .csv. encoding only applies to CSV files.
//
// If the default sheet is still empty after loading and the file added other
// sheets, it is dropped and the first sheet of the file becomes the default.
func Load(path, encodingName string, opts ...Option) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	w := New(opts...)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		err = w.LoadYAML(f)
	case ".toml":
		err = w.LoadTOML(f)
	case ".csv":
		err = w.LoadCSV(f, SheetNameFromPath(path), encodingName)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	w.promoteFirstSheet()
	w.logger.Debug("workbook loaded", "path", path, "sheets", w.Sheets(), "default", w.DefaultSheet())
	return w, nil
}

// promoteFirstSheet drops an empty default sheet the file never mentioned
func (w *Workbook) promoteFirstSheet() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.order) < 2 {
		return
	}
	key := sheetKey(w.defaultSheet)
	if w.order[0] != key || len(w.sheets[key].cells) > 0 {
		return
	}
	delete(w.sheets, key)
	w.order = w.order[1:]
	w.defaultSheet = w.sheets[w.order[0]].name
}

// LoadYAML adds the sheets of a YAML document to the workbook
func (w *Workbook) LoadYAML(r io.Reader) error {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	return w.loadDocument(doc)
}

// LoadTOML adds the sheets of a TOML document to the workbook
func (w *Workbook) LoadTOML(r io.Reader) error {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	return w.loadDocument(doc)
}

func (w *Workbook) loadDocument(doc document) error {
	seen := make(map[string]struct{}, len(doc.Sheets))
	for i, sd := range doc.Sheets {
		if _, dup := seen[sheetKey(sd.Name)]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSheetName, sd.Name)
		}
		seen[sheetKey(sd.Name)] = struct{}{}

		if _, err := w.AddSheet(sd.Name); err != nil {
			return fmt.Errorf("sheet %d: %w", i+1, err)
		}
		for address, raw := range sd.Cells {
			ref := sd.Name + "!" + address
			if err := w.setDocumentCell(ref, raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// setDocumentCell stores a decoded YAML or TOML scalar. strings starting with
// '=' are formulas, other strings stay text even when they look numeric.
func (w *Workbook) setDocumentCell(ref string, raw any) error {
	var err error
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if strings.HasPrefix(v, "=") {
			err = w.Set(ref, v)
		} else {
			err = w.SetValue(ref, formula.Text(v))
		}
	case bool:
		err = w.SetValue(ref, formula.Boolean(v))
	case int:
		err = w.SetValue(ref, formula.Number(v))
	case int64:
		err = w.SetValue(ref, formula.Number(v))
	case uint64:
		err = w.SetValue(ref, formula.Number(v))
	case float64:
		err = w.SetValue(ref, formula.Number(v))
	default:
		return fmt.Errorf("%w: cell %s has unsupported value %v (%T)", ErrMalformedWorkbook, ref, raw, raw)
	}
	if err != nil {
		return fmt.Errorf("cell %s: %w", ref, err)
	}
	return nil
}

// LoadCSV reads rows of comma separated values into one sheet, row i and
// field j landing in the cell at row i column j. empty fields are skipped and
// the rest are stored as if typed in with Set.
func (w *Workbook) LoadCSV(r io.Reader, sheet, encodingName string) error {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return err
	}
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}
	if _, err := w.AddSheet(sheet); err != nil {
		return err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
		}
		for col, field := range record {
			if strings.TrimSpace(field) == "" {
				continue
			}
			ref := sheet + "!" + formula.Address{Row: row, Column: col}.String()
			if err := w.Set(ref, field); err != nil {
				return fmt.Errorf("cell %s: %w", ref, err)
			}
		}
	}
}

// SheetNameFromPath turns a file name into a usable sheet name: the stem with
// every character a sheet name can not hold replaced by '_', and a leading
// '_' when the stem reads as a cell address
func SheetNameFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for i, ch := range stem {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_':
			b.WriteRune(ch)
		case ch >= '0' && ch <= '9', ch == '.':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(ch)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	switch {
	case name == "":
		return DefaultSheetName
	case formula.IsCellReference(name):
		return "_" + name
	}
	return name
}
