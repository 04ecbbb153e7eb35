// Package datasource hands out scoped connections to the controller database.
//
// Every request acquires its own connection and releases it before the
// response is written. Two providers exist:
//
//   - TunnelProvider opens an SSH tunnel and a MySQL connection per acquisition
//   - LocalProvider serves connections from a local SQLite mirror for development
//
// Use With to guarantee release on every exit path:
//
//	err := datasource.With(ctx, provider, func(q database.Querier) error {
//	    user, err := accounts.FindByEmail(ctx, q, email)
//	    ...
//	})
package datasource
