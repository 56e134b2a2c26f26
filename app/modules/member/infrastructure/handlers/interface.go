package memberhandlers

import "net/http"

// Handlers serves the member REST endpoints.
type Handlers interface {
	ListMembers(w http.ResponseWriter, r *http.Request)
	CurrentMember(w http.ResponseWriter, r *http.Request)
	CreateMember(w http.ResponseWriter, r *http.Request)
	GetMember(w http.ResponseWriter, r *http.Request)
}
