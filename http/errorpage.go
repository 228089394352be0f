package http

import (
	"html"
	"io"
	"net/http"
)

func notFoundPage(key string) string {
	return `<html><body>Object "<b>` + html.EscapeString(key) + `</b>" not found</body></html>`
}

// writeNotFound writes the 404 page naming key. HEAD requests get the headers only.
func writeNotFound(w http.ResponseWriter, r *http.Request, key string) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, notFoundPage(key))
}
