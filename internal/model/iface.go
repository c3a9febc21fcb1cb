package model

import "context"

// Predictor submits one upload to the prediction service.
type Predictor interface {
	Predict(ctx context.Context, up Upload) (ResultSet, error)
}

// HistoryWriter records submission attempts and returns the stored ID.
type HistoryWriter interface {
	RecordSubmission(s Submission) (string, error)
}

// HistoryReader lists previously recorded submissions.
type HistoryReader interface {
	RecentSubmissions(limit int) ([]Submission, error)
	SubmissionRows(id string) (ResultSet, error)
}

// HistoryStore is the unified history contract used by the front-ends.
type HistoryStore interface {
	HistoryWriter
	HistoryReader
}
