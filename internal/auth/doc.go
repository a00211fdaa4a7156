// Package auth manages the OAuth2 credential used to talk to Google Calendar.
//
// A Manager first looks for a cached authorized_user record on disk. When none is usable it
// runs the installed-application consent flow (a loopback redirect to a local listener),
// then caches the resulting refresh token for later runs. Caching is best-effort: a grant
// that cannot be written is still returned to the caller.
//
// The record format is the one used by Google client libraries for user credentials:
//
//	{"type":"authorized_user","client_id":"...","client_secret":"...","refresh_token":"..."}
package auth
