package swaggerkit

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var openapi []byte

// serveDocJSON serves the embedded OpenAPI document
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(openapi)
	}
}
