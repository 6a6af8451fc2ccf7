package utils

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
)

// NewRouter constructs the top-level router with panic recovery attached.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware)
	return r
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[http] panic serving %s %s: %v\n%s", req.Method, req.URL.Path, rec, debug.Stack())
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}
