package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/hausmates/hcal/internal/contract"
)

type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeJSON  Mode = "json"
	ModeJSONL Mode = "jsonl"
	ModePlain Mode = "plain"
)

type Printer struct {
	Mode          Mode
	Command       string
	Fields        []string
	Quiet         bool
	SchemaVersion string
	Out           io.Writer
	Err           io.Writer
}

func (p Printer) Success(data any, meta map[string]any, warnings []string) error {
	switch p.Mode {
	case ModeJSON:
		env := contract.SuccessEnvelope{
			SchemaVersion: p.schemaVersion(),
			Command:       p.Command,
			GeneratedAt:   time.Now().UTC(),
			Data:          data,
			Meta:          meta,
			Warnings:      warnings,
		}
		enc := json.NewEncoder(p.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	case ModeJSONL:
		v := reflect.ValueOf(data)
		if v.IsValid() && v.Kind() == reflect.Slice {
			enc := json.NewEncoder(p.Out)
			for i := 0; i < v.Len(); i++ {
				if err := enc.Encode(v.Index(i).Interface()); err != nil {
					return err
				}
			}
			return nil
		}
		return json.NewEncoder(p.Out).Encode(data)
	default:
		return p.printPlain(data)
	}
}

func (p Printer) Error(code contract.ErrorCode, message, hint string) error {
	if p.Mode == ModeJSON || p.Mode == ModeJSONL {
		env := contract.ErrorEnvelope{
			SchemaVersion: p.schemaVersion(),
			Error:         contract.ErrorBody{Code: code, Message: message, Hint: hint},
		}
		enc := json.NewEncoder(p.Err)
		enc.SetIndent("", "  ")
		return enc.Encode(env)
	}
	if hint != "" {
		_, _ = fmt.Fprintf(p.Err, "error: %s\nhint: %s\n", message, hint)
		return nil
	}
	_, _ = fmt.Fprintf(p.Err, "error: %s\n", message)
	return nil
}

func (p Printer) schemaVersion() string {
	if p.SchemaVersion == "" {
		return contract.SchemaVersion
	}
	return p.SchemaVersion
}

func (p Printer) printPlain(data any) error {
	v := reflect.ValueOf(data)
	if !v.IsValid() || (v.Kind() == reflect.Slice && v.Len() == 0) {
		if !p.Quiet {
			_, _ = fmt.Fprintln(p.Out, "no results")
		}
		return nil
	}
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if _, err := fmt.Fprintln(p.Out, flatten(v.Index(i).Interface(), p.Fields)); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := fmt.Fprintln(p.Out, flatten(data, p.Fields))
	return err
}

func flatten(v any, fields []string) string {
	if len(fields) == 0 {
		b, _ := json.Marshal(v)
		return string(b)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		b, _ := json.Marshal(v)
		return string(b)
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		fv := rv.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, strings.ReplaceAll(f, "_", "")) || strings.EqualFold(name, f)
		})
		if !fv.IsValid() {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fmt.Sprint(fv.Interface()))
	}
	return strings.Join(parts, "\t")
}

// Table writes rows as aligned plain-text columns. Widths are computed
// with display width rather than byte length so multi-width characters
// keep the columns straight.
func (p Printer) Table(header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}
	writeRow := func(cells []string) error {
		var b strings.Builder
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		_, err := fmt.Fprintln(p.Out, strings.TrimRight(b.String(), " "))
		return err
	}
	if err := writeRow(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	return nil
}
