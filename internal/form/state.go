// Package form models the upload form as an explicit state value with pure
// transitions. Front-ends hold one State and replace it on every event.
package form

import (
	"errors"
	"strings"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

var (
	// ErrBusy is returned by SubmitStart while a request is already in flight.
	ErrBusy = errors.New("form: submission already in progress")
	// ErrMissingInput is returned by SubmitStart when the file or interval is absent.
	ErrMissingInput = errors.New(model.MsgMissingInput)
)

// Status is the submission lifecycle.
type Status int

const (
	Idle Status = iota
	Loading
)

func (s Status) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle", "":
		*s = Idle
	case "loading":
		*s = Loading
	default:
		return errors.New("form: unknown status " + string(b))
	}
	return nil
}

// SelectedFile is the chosen CSV file.
type SelectedFile struct {
	Name string `json:"name"`
	Data []byte `json:"data,omitempty"`
}

// State is the complete form state for one session.
type State struct {
	File         *SelectedFile `json:"file,omitempty"`
	TimeInterval string        `json:"timeInterval"`
	Status       Status        `json:"status"`
	Outcome      Outcome       `json:"outcome"`
}

// SelectFile stores the file and clears any error being displayed.
func (s State) SelectFile(f SelectedFile) State {
	s.File = &f
	if s.Outcome.IsError() {
		s.Outcome = Outcome{}
	}
	return s
}

// SetTimeInterval stores the raw interval text.
func (s State) SetTimeInterval(text string) State {
	s.TimeInterval = text
	return s
}

// SubmitStart validates the inputs. On success the state moves to Loading
// with the previous result cleared, and the upload to send is returned.
// On a validation failure the state carries the error and ErrMissingInput
// is returned; no request may be sent.
func (s State) SubmitStart() (State, model.Upload, error) {
	if s.Status == Loading {
		return s, model.Upload{}, ErrBusy
	}
	if s.File == nil || s.TimeInterval == "" {
		s.Outcome = Invalid(model.MsgMissingInput)
		return s, model.Upload{}, ErrMissingInput
	}

	s.Status = Loading
	s.Outcome = Outcome{}
	up := model.Upload{
		FileName:     s.File.Name,
		Data:         s.File.Data,
		TimeInterval: s.TimeInterval,
	}
	return s, up, nil
}

// SubmitSuccess stores a fresh result set and returns to Idle.
func (s State) SubmitSuccess(rows model.ResultSet) State {
	s.Status = Idle
	s.Outcome = Ok(rows)
	return s
}

// SubmitFailure stores a failure outcome and returns to Idle.
func (s State) SubmitFailure(o Outcome) State {
	s.Status = Idle
	s.Outcome = o
	return s
}

// Resolve applies the prediction client's result.
func (s State) Resolve(rows model.ResultSet, err error) State {
	o := OutcomeOf(rows, err)
	if o.Kind == KindOK {
		return s.SubmitSuccess(o.Result)
	}
	return s.SubmitFailure(o)
}

// Result returns the displayed result set, nil when there is none.
func (s State) Result() model.ResultSet {
	return s.Outcome.Rows()
}

// FileLabel returns the name shown on the file selector.
func (s State) FileLabel() string {
	if s.File == nil || strings.TrimSpace(s.File.Name) == "" {
		return "Choose file"
	}
	return s.File.Name
}

// SubmitLabel returns the caption of the submit control.
func (s State) SubmitLabel() string {
	if s.Status == Loading {
		return "Processing..."
	}
	return "Predict"
}
