// Package auth provides bearer-token authorisation for the capture API.
//
// It implements a 3-tier role model (viewer → operator → admin) with:
//   - HS256 JWT access tokens carrying the caller's role
//   - Static role-permission mapping (compile-time, no database lookup)
//   - Per-command permission checks so that device reset and raw ISP 3A
//     commands need the admin role
//
// Tokens are minted offline with `capturebridge token`; there is no login
// endpoint and no user store.
package auth
