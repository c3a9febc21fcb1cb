package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/tinytelemetry/prognosticator/internal/export"
	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatXLSX  = "xlsx"
)

// errSubmissionFailed is returned after a failed outcome has been reported.
var errSubmissionFailed = errors.New("prediction failed")

// headlessOptions drives a single submission without the terminal UI.
type headlessOptions struct {
	File      string
	Interval  string
	Format    string
	OutputDir string
}

// runHeadless submits one file through the same form transitions the
// terminal UI uses and prints the outcome to out.
func runHeadless(ctx context.Context, predictor model.Predictor, history model.HistoryWriter, opts headlessOptions, out io.Writer) error {
	switch opts.Format {
	case "", formatTable, formatCSV, formatJSON, formatYAML, formatXLSX:
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}

	var state form.State
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.File, err)
	}
	state = form.Reduce(state, form.FileSelected{
		File: form.SelectedFile{Name: filepath.Base(opts.File), Data: data},
	})
	state = form.Reduce(state, form.IntervalChanged{Text: opts.Interval})

	state, up, err := state.SubmitStart()
	if err != nil {
		fmt.Fprintln(out, state.Outcome.DisplayMessage())
		return errSubmissionFailed
	}

	rows, err := predictor.Predict(ctx, up)
	state = form.Reduce(state, form.ResultEvent(rows, err))

	if history != nil {
		if _, err := history.RecordSubmission(form.SubmissionOf(up, state.Outcome)); err != nil {
			log.Printf("headless: record submission: %v", err)
		}
	}

	switch state.Outcome.Kind {
	case form.KindServer:
		fmt.Fprintf(out, "Response Status: %d\n%s\n", state.Outcome.Status, state.Outcome.DisplayMessage())
		return errSubmissionFailed
	case form.KindOK:
	default:
		fmt.Fprintln(out, state.Outcome.DisplayMessage())
		return errSubmissionFailed
	}

	return writeResult(out, state.Result(), opts)
}

func writeResult(out io.Writer, rs model.ResultSet, opts headlessOptions) error {
	switch opts.Format {
	case formatCSV:
		text, err := export.CSV(rs)
		if errors.Is(err, export.ErrNoResult) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	case formatJSON:
		b, err := export.JSON(rs)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	case formatYAML:
		b, err := export.YAML(rs)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	case formatXLSX:
		path, err := export.WriteXLSX(opts.OutputDir, rs)
		if errors.Is(err, export.ErrNoResult) {
			fmt.Fprintln(out, "No rows returned")
			return nil
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, path)
		return err
	default:
		if len(rs) == 0 {
			_, err := fmt.Fprintln(out, "No rows returned")
			return err
		}
		_, err := fmt.Fprintln(out, export.Table(rs))
		return err
	}
}
