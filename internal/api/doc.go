// Package api defines the transport DTOs and the service layer shared by the
// daemon's HTTP handlers and the CLI. Ledger rows never cross the HTTP
// boundary directly; each has a view type here with stable JSON field names.
//
// Error conventions: ErrInvalidRequest wraps caller mistakes (missing
// user_id, blank query) so handlers can map them to 400s, while
// ledger.ErrNotFound maps to 404s. Everything else is a 500.
package api
