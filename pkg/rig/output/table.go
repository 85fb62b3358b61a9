package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// TSVFormatter lists every planned item as tab-separated values.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("KIND\tSIZE\tSHA1\tPATH\tURL\n")
	for _, it := range r.Items {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", it.Kind, it.Size, it.SHA1, it.Path, it.URL)
	}
	return nil
}

// CSVFormatter lists every planned item as comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"kind", "size", "sha1", "path", "url"}); err != nil {
		return err
	}
	for _, it := range r.Items {
		row := []string{it.Kind.String(), strconv.FormatInt(it.Size, 10), it.SHA1, it.Path, it.URL}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
)
