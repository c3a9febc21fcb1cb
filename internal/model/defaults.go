package model

import "time"

// Shared defaults used by both the terminal and web binaries.
const (
	DefaultEndpoint         = "http://localhost:5000/predict"
	DefaultExportName       = "predictions.csv"
	DefaultWorkbookName     = "predictions.xlsx"
	DefaultHistoryLimit     = 50
	DefaultHistoryRetention = 30 // days, 0 = disabled
	DefaultListenAddr       = "127.0.0.1:8080"
	DefaultRetentionSweep   = time.Hour
)

// User-facing messages.
const (
	MsgMissingInput      = "Please provide both a CSV file and time interval"
	MsgConnectivity      = "Failed to connect to the server"
	MsgUnexpectedFailure = "An unexpected error occurred"
	MsgUnreadableFile    = "The selected file could not be read"
)

// Multipart field names understood by the prediction service.
const (
	FieldFile         = "file"
	FieldTimeInterval = "timeInterval"
)
