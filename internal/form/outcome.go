package form

import (
	"encoding/json"
	"errors"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// Kind discriminates the Outcome union.
type Kind int

const (
	KindNone Kind = iota
	KindOK
	KindValidation
	KindServer
	KindConnectivity
)

var kindNames = map[Kind]string{
	KindNone:         "none",
	KindOK:           "ok",
	KindValidation:   "validation",
	KindServer:       "server",
	KindConnectivity: "connectivity",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return errors.New("form: unknown outcome kind " + string(b))
}

// Outcome is the result of the last submission: either Ok(rows) or one of
// the three error kinds. The rendering layer only ever looks at this value.
type Outcome struct {
	Kind    Kind            `json:"kind"`
	Result  model.ResultSet `json:"rows,omitempty"`
	Status  int             `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Ok wraps a successful result set.
func Ok(rows model.ResultSet) Outcome {
	return Outcome{Kind: KindOK, Status: 200, Result: rows}
}

// Invalid builds a client-side validation failure.
func Invalid(msg string) Outcome {
	return Outcome{Kind: KindValidation, Message: msg}
}

// ServerFailure builds a failure for a non-200 response.
func ServerFailure(status int, msg string) Outcome {
	return Outcome{Kind: KindServer, Status: status, Message: msg}
}

// Unreachable builds the generic connectivity failure.
func Unreachable() Outcome {
	return Outcome{Kind: KindConnectivity, Message: model.MsgConnectivity}
}

// OutcomeOf maps a prediction client result onto the union.
func OutcomeOf(rows model.ResultSet, err error) Outcome {
	if err == nil {
		return Ok(rows)
	}
	var se *model.ServerError
	if errors.As(err, &se) {
		return ServerFailure(se.Status, se.Message)
	}
	return Unreachable()
}

// IsError reports whether the outcome is one of the failure kinds.
func (o Outcome) IsError() bool {
	return o.Kind == KindValidation || o.Kind == KindServer || o.Kind == KindConnectivity
}

// Rows returns the result set, or nil unless the outcome is Ok.
func (o Outcome) Rows() model.ResultSet {
	if o.Kind != KindOK {
		return nil
	}
	return o.Result
}

// DisplayMessage returns the text to show in the error panel.
func (o Outcome) DisplayMessage() string {
	if o.Kind == KindServer && o.Message == "" {
		return model.MsgUnexpectedFailure
	}
	return o.Message
}

// String renders a short log-friendly summary.
func (o Outcome) String() string {
	b, _ := json.Marshal(struct {
		Kind    Kind   `json:"kind"`
		Status  int    `json:"status,omitempty"`
		Rows    int    `json:"rows,omitempty"`
		Message string `json:"message,omitempty"`
	}{o.Kind, o.Status, len(o.Result), o.Message})
	return string(b)
}

// SubmissionOf builds the history record for one resolved attempt.
func SubmissionOf(up model.Upload, o Outcome) model.Submission {
	return model.Submission{
		FileName:     up.FileName,
		TimeInterval: up.TimeInterval,
		Outcome:      o.Kind.String(),
		Status:       o.Status,
		Message:      o.Message,
		RowCount:     len(o.Rows()),
		Rows:         o.Rows(),
	}
}
