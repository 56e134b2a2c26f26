package scorehandlers

import "net/http"

// Handlers serves the score REST endpoints.
type Handlers interface {
	RecordScore(w http.ResponseWriter, r *http.Request)
	ListScores(w http.ResponseWriter, r *http.Request)
	ImportScores(w http.ResponseWriter, r *http.Request)
}
