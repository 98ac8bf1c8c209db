// Package acl is the anti-corruption layer between the remote joke API and
// the domain.
//
// External DTOs stay unexported in this package. Every failure leaving it is
// a domain error:
//
//   - 404 Not Found            -> [domain.ErrNotFound]
//   - 400/422                  -> [domain.ErrValidation]
//   - 401/403, 429, 5xx        -> [domain.ErrUnavailable]
//   - transport, breaker, rate -> [domain.ErrUnavailable]
//   - undecodable body         -> [domain.ErrUnavailable]
//
// [JokeClient] is the only adapter; [BaseAdapter] carries the request and
// error mapping plumbing it embeds.
package acl
