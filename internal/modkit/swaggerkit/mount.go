// Package swaggerkit serves the embedded OpenAPI document of the analytics
// api and a Swagger UI over it
package swaggerkit

import (
	"net/http"

	phttp "insightsdb/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	base    = "/api/docs"
	specURL = base + "/doc.json"
)

// Mount serves the UI under /api/docs and the document at /api/docs/doc.json.
// Disabled mounts nothing
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(base, http.RedirectHandler(base+"/", http.StatusPermanentRedirect).ServeHTTP)
	r.Get(specURL, serveDocJSON())
	r.Handle(base+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("analytics"),
		httpSwagger.URL(specURL),
		httpSwagger.DocExpansion("list"),
	))
}
