// Package server provides HTTP routing, middleware, and the handlers of the web dashboard.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
//   - [RequestLogger] logs method, path, status and duration of every request
//   - [Recoverer] turns handler panics into 500 responses
//
// # Dashboard Handler
//
// [DashboardHandler] drives a [dashboard.Session] from query parameters and serves:
//
//	GET /                       → HTML dashboard (?playlist=, ?feature=)
//	GET /api/playlists          → enumerated playlists
//	GET /api/snapshot           → table, correlation matrix and histograms of the selection
//	GET /charts/heatmap.png     → lower-triangle correlation heatmap
//	GET /charts/histogram.png   → histogram of ?feature= or the selected feature
//	GET /healthz                → liveness probe
//
// Selection errors map to statuses: unknown playlist 400, superseded selection 409,
// catalog timeout 504, any other upstream failure 502.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
