// Package thingiverse provides an HTTP client for the Thingiverse REST API.
//
// # Overview
//
// The package covers the read-only surface a model browser needs: paginated
// listing queries (search, curated feeds, user-scoped listings), thing
// details, thing file listings, collection listings, raw file downloads,
// and the dynamic announcement banner.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Attach "Authorization: Bearer <token>" using the configured token
//   - Set Accept: application/json and a thingscout User-Agent header
//   - Have a 30-second timeout via http.Client
//
// # Normalization
//
// List and detail payloads decode into small value records (Thing,
// ThingFile, Collection, Message). Missing optional fields degrade to zero
// values rather than failing the decode. When a payload carries both a
// "public_url" and a "url" field, the public-facing URL wins.
//
// # Error Handling
//
// A non-2xx status produces an *APIError carrying the status code and the
// best-effort message extracted from the body: the JSON "error" field when
// present, otherwise the body text, otherwise "Unknown". Transport and
// decode failures are wrapped with fmt.Errorf context.
//
// # Thread Safety
//
// The Client is stateless apart from its configuration and is safe for
// concurrent use.
package thingiverse
