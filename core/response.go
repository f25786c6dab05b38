package core

import "net/http"

// Response renders itself onto an http.ResponseWriter. Handlers return
// Response values instead of writing to w directly, keeping status code
// and encoding decisions in one place.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}
