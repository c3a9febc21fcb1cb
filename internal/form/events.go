package form

import "github.com/tinytelemetry/prognosticator/internal/model"

// Event is one input to Reduce.
type Event interface{ isEvent() }

// FileSelected is emitted when the user picks a file.
type FileSelected struct{ File SelectedFile }

// IntervalChanged is emitted on every edit of the interval field.
type IntervalChanged struct{ Text string }

// SubmitStarted is emitted when the form is submitted.
type SubmitStarted struct{}

// SubmitSucceeded carries the rows of a 200 response.
type SubmitSucceeded struct{ Rows model.ResultSet }

// SubmitFailed carries any failure outcome.
type SubmitFailed struct{ Outcome Outcome }

func (FileSelected) isEvent()    {}
func (IntervalChanged) isEvent() {}
func (SubmitStarted) isEvent()   {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// ResultEvent turns a prediction client result into the event that
// completes a submission.
func ResultEvent(rows model.ResultSet, err error) Event {
	o := OutcomeOf(rows, err)
	if o.Kind == KindOK {
		return SubmitSucceeded{Rows: o.Result}
	}
	return SubmitFailed{Outcome: o}
}

// Reduce is the transition table. SubmitStarted discards the upload; callers
// that need it use State.SubmitStart directly.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case FileSelected:
		return s.SelectFile(ev.File)
	case IntervalChanged:
		return s.SetTimeInterval(ev.Text)
	case SubmitStarted:
		next, _, _ := s.SubmitStart()
		return next
	case SubmitSucceeded:
		if s.Status != Loading {
			return s
		}
		return s.SubmitSuccess(ev.Rows)
	case SubmitFailed:
		if s.Status != Loading && ev.Outcome.Kind != KindValidation {
			return s
		}
		return s.SubmitFailure(ev.Outcome)
	}
	return s
}
