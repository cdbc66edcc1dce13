package api

import (
	"net/http"

	"github.com/mattjoyce/pushbridge/internal/auth"
)

// handleOpenAPI handles GET /openapi.json (no auth).
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc())
}

type route struct {
	path    string
	summary string
	scope   string
	params  []map[string]any
}

var (
	feedIDParam = map[string]any{
		"name": "feedID", "in": "path", "required": true,
		"schema": map[string]any{"type": "string"},
	}
	limitParam = map[string]any{
		"name": "limit", "in": "query", "required": false,
		"schema": map[string]any{"type": "integer", "minimum": 1, "maximum": maxListLimit},
	}
)

var apiRoutes = []route{
	{path: "/feeds", summary: "List registered feeds", scope: auth.ScopeFeedsRead},
	{path: "/feeds/{feedID}", summary: "Show one feed", scope: auth.ScopeFeedsRead, params: []map[string]any{feedIDParam}},
	{path: "/feeds/{feedID}/notifications", summary: "Stored notifications, newest first", scope: auth.ScopeFeedsRead, params: []map[string]any{feedIDParam, limitParam}},
	{path: "/deliveries", summary: "Delivery log, newest first", scope: auth.ScopeDeliveriesRead, params: []map[string]any{limitParam}},
	{path: "/events", summary: "Server-sent delivery events", scope: auth.ScopeEventsRead},
}

// buildOpenAPIDoc returns an OpenAPI 3.1 document for the admin API.
func buildOpenAPIDoc() map[string]any {
	paths := map[string]any{
		"/healthz": map[string]any{
			"get": map[string]any{
				"operationId": "healthz",
				"summary":     "Liveness and feed count",
				"responses":   map[string]any{"200": map[string]any{"description": "OK"}},
			},
		},
	}

	for _, rt := range apiRoutes {
		op := map[string]any{
			"operationId": rt.path,
			"summary":     rt.summary,
			"responses": map[string]any{
				"200": map[string]any{"description": "OK"},
				"401": map[string]any{"description": "Missing or invalid token"},
				"403": map[string]any{"description": "Insufficient scope (needs " + rt.scope + ")"},
			},
			"security": []any{map[string]any{"BearerAuth": []string{rt.scope}}},
		}
		if len(rt.params) > 0 {
			op["parameters"] = rt.params
		}
		paths[rt.path] = map[string]any{"get": op}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "pushbridge admin API",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}
