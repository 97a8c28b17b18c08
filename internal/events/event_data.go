package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// SearchStartedData contains data for SearchStarted events
type SearchStartedData struct {
	RunID       string `json:"run_id"`
	Assets      int    `json:"assets"`
	Budget      int    `json:"budget"`
	Depth       int    `json:"depth"`
	Grid        int    `json:"grid"`
	Shots       int    `json:"shots"`
	Evaluations int    `json:"evaluations"`
}

// EventType returns the event type for SearchStartedData
func (d *SearchStartedData) EventType() EventType {
	return SearchStarted
}

// SearchProgressData contains data for SearchProgress events
type SearchProgressData struct {
	RunID string `json:"run_id"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// EventType returns the event type for SearchProgressData
func (d *SearchProgressData) EventType() EventType {
	return SearchProgress
}

// SearchCompletedData contains data for SearchCompleted events
type SearchCompletedData struct {
	RunID       string   `json:"run_id"`
	Picks       []string `json:"picks"`
	Source      string   `json:"source"`
	BestScore   *float64 `json:"best_score,omitempty"`
	Evaluations int      `json:"evaluations"`
	DurationMs  int64    `json:"duration_ms"`
}

// EventType returns the event type for SearchCompletedData
func (d *SearchCompletedData) EventType() EventType {
	return SearchCompleted
}

// SearchFailedData contains data for SearchFailed events
type SearchFailedData struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// EventType returns the event type for SearchFailedData
func (d *SearchFailedData) EventType() EventType {
	return SearchFailed
}

// HistoryImportedData contains data for HistoryImported events
type HistoryImportedData struct {
	Tickers int `json:"tickers"`
	Rows    int `json:"rows"`
}

// EventType returns the event type for HistoryImportedData
func (d *HistoryImportedData) EventType() EventType {
	return HistoryImported
}
