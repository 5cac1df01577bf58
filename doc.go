// Package auth implements the CyberConnect account and session core:
// registration, password and Google login, signed session tokens, request
// guards and the per-user activity trail.
//
// Accounts:
//   - Users are keyed by a case-insensitive email and persisted via Bun.
//     Passwords are stored as bcrypt hashes. Federated accounts receive a
//     random hashed secret so every record carries a usable hash.
//   - Roles are user, admin and expert. Only admin widens access.
//
// Sessions:
//   - TokenService issues HS256 tokens that carry the user id and role and
//     expire after TokenTTL. Authenticate resolves a token back to a stored
//     user and always reads the role from the record.
//
// Guards:
//   - RouteAuthenticator exposes Protected, Optional, RequireOwnerOrAdmin and
//     RequireRole as go-router middleware. All authentication failures share one
//     public response.
//
// Activity sinks:
//   - ActivitySink receives register, login and profile events. Sinks run
//     off the request path and their failures are logged, never returned.
//     NewActionLogSink records events in the action_logs table.
package auth
