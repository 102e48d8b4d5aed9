// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: a unique request id (RayID) stored in the context locals under
//     "ray_id" and echoed in the X-Ray-ID response header, so handler logs can
//     be correlated with a request.
//
// Both are registered globally in the start command.
package middleware
