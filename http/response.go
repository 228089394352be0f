package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/cache"
)

// WriteText writes a plain text response.
func WriteText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

// WriteFailure writes the generic failure response carrying err's message.
func WriteFailure(w http.ResponseWriter, err error) {
	WriteText(w, http.StatusInternalServerError, "Error thrown: "+err.Error())
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, stowgate.ErrRangeNotSatisfiable) {
		LoggerFromContext(r.Context()).Info("range not satisfiable", "range", r.Header.Get("Range"), "err", err)
		WriteText(w, http.StatusRequestedRangeNotSatisfiable, "Requested range not satisfiable")
		return
	}

	LoggerFromContext(r.Context()).Error("request error", "err", err)
	WriteFailure(w, err)
}

// writeEntry replays a cached response. HEAD requests get the headers only.
func writeEntry(w http.ResponseWriter, r *http.Request, e *cache.Entry) {
	copyHeader(w.Header(), e.Header)
	if e.Status != http.StatusNotModified {
		w.Header().Set("Content-Length", strconv.Itoa(len(e.Body)))
	}
	w.WriteHeader(e.Status)

	if r.Method == http.MethodHead || len(e.Body) == 0 {
		return
	}
	_, _ = w.Write(e.Body)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
