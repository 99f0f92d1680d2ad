package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsImported int `json:"sessions_imported"`
	SessionsSkipped  int `json:"sessions_skipped"`
	SessionsEmpty    int `json:"sessions_empty,omitempty"`

	ExercisesCreated int `json:"exercises_created"`

	SetsReceived int `json:"sets_received"`
	SetsInserted int `json:"sets_inserted"`
	SetsSkipped  int `json:"sets_skipped"`

	DryRun  bool   `json:"dry_run,omitempty"`
	Message string `json:"message,omitempty"`
}
