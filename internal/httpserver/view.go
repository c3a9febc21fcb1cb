package httpserver

import (
	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

// pageView is the template data derived from one form state.
type pageView struct {
	FileLabel    string
	TimeInterval string
	SubmitLabel  string
	Loading      bool

	// Inline client-side error (validation or connectivity).
	Notice string

	// Server failure panel.
	ServerFailure bool
	Status        int
	Message       string

	HasResult bool
	Columns   []string
	Rows      [][]string
}

func newPageView(st form.State) pageView {
	v := pageView{
		FileLabel:    st.FileLabel(),
		TimeInterval: st.TimeInterval,
		SubmitLabel:  st.SubmitLabel(),
		Loading:      st.Status == form.Loading,
	}

	switch st.Outcome.Kind {
	case form.KindValidation, form.KindConnectivity:
		v.Notice = st.Outcome.DisplayMessage()
	case form.KindServer:
		v.ServerFailure = true
		v.Status = st.Outcome.Status
		v.Message = st.Outcome.DisplayMessage()
	case form.KindOK:
		rs := st.Result()
		v.HasResult = true
		v.Columns = rs.Columns()
		v.Rows = make([][]string, 0, len(rs))
		for _, row := range rs {
			cells := make([]string, 0, row.Len())
			for _, val := range row.Values() {
				cells = append(cells, model.FormatValue(val))
			}
			v.Rows = append(v.Rows, cells)
		}
	}
	return v
}
