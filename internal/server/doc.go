// Package server provides HTTP routing, middleware, and the OAuth callback
// flow used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. [BasicRouter] uses [http.ServeMux]
// internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback. The
// handler validates the state parameter (CSRF protection), hands the code to
// the credential manager, which exchanges it and persists the resulting
// credential, and sends the outcome through a one-shot channel.
//
// It processes exactly one callback to prevent replay.
//
// # Usage
//
// When the user runs `tunemerge auth <provider>`, a temporary HTTP server
// starts on the configured host/port, handles the provider's redirect, and
// shuts down once the token is stored.
package server
