// Package clientip extracts the originating client address from HTTP requests.
//
// Headers are consulted in this order, and the first valid address wins:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP
//  5. RemoteAddr
//
// Every address is normalized: IPv4-mapped IPv6 addresses such as
// ::ffff:1.2.3.4 become 1.2.3.4, zones are dropped, and the unspecified
// address is rejected. When nothing valid is found GetIP returns RemoteAddr
// unchanged.
//
// The headers are client controlled unless a trusted proxy overwrites them.
// Deploy behind a proxy that sets them, or treat the result as a hint.
package clientip
