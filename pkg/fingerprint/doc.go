// Package fingerprint derives the session key that binds CSRF tokens and
// rate-limit counters to a caller.
//
// Authenticated callers are keyed on their identity. Anonymous callers are
// keyed on the normalized client address joined with a truncated user agent,
// so two browsers behind one NAT do not share a key while a single browser
// keeps a stable one.
//
//	key := fingerprint.SessionKey(r, "")          // "anon:1.2.3.4|Mozilla/5.0 ..."
//	key = fingerprint.SessionKey(r, "user:42")    // "id:user:42"
package fingerprint
