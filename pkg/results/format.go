package results

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dd0wney/adapnet/pkg/strategy"
)

// Format is a result file encoding.
type Format string

const (
	// FormatOctave writes Octave/MATLAB vector assignments
	FormatOctave Format = "octave"
	// FormatJSON writes the full Series as one JSON document
	FormatJSON Format = "json"
	// FormatCSV writes long-form rows: series,index,value
	FormatCSV Format = "csv"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown result format")

// ParseFormat converts a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatOctave, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// Extension returns the conventional file extension.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	default:
		return ".txt"
	}
}

// Encode writes s to w in format f.
func Encode(w io.Writer, f Format, s *Series) error {
	switch f {
	case FormatOctave:
		return encodeOctave(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatCSV:
		return encodeCSV(w, s)
	default:
		return fmt.Errorf("%q: %w", f, ErrUnknownFormat)
	}
}

// DecodeJSON reads a Series written with FormatJSON.
func DecodeJSON(r io.Reader) (*Series, error) {
	var s Series
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	return &s, nil
}

// encodeOctave writes I (prevalence), s0..s4 (strategy shares), t
// (generation indices) and t again (step indices), one assignment per line.
func encodeOctave(w io.Writer, s *Series) error {
	bw := bufio.NewWriter(w)

	writeFloats(bw, "I", s.Prevalence)
	for k := range s.Strategies {
		writeFloats(bw, "s"+strconv.Itoa(k), s.Strategies[k])
	}
	writeInts(bw, "t", s.Generations)
	writeInts(bw, "t", s.Steps)

	return bw.Flush()
}

func writeFloats(w *bufio.Writer, name string, v []float64) {
	w.WriteString(name)
	w.WriteString("=[")
	for i, x := range v {
		if i > 0 {
			w.WriteString("; ")
		}
		w.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	w.WriteString("];\n")
}

func writeInts(w *bufio.Writer, name string, v []int) {
	w.WriteString(name)
	w.WriteString("=[")
	for i, x := range v {
		if i > 0 {
			w.WriteString("; ")
		}
		w.WriteString(strconv.Itoa(x))
	}
	w.WriteString("];\n")
}

func encodeCSV(w io.Writer, s *Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"series", "index", "value"}); err != nil {
		return err
	}

	row := func(series string, index int, value float64) error {
		return cw.Write([]string{series, strconv.Itoa(index), strconv.FormatFloat(value, 'g', -1, 64)})
	}
	for i, v := range s.Prevalence {
		if err := row("prevalence", s.Steps[i], v); err != nil {
			return err
		}
	}
	for k, values := range s.Strategies {
		name := strategy.Strategy(k).String()
		for g, v := range values {
			if err := row(name, s.Generations[g], v); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
