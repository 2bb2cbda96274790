// Package harness drives acceptance checks against the film lookup endpoint.
//
// It has three cooperating parts:
//
//   - Fixture: a disposable PostgreSQL instance, migrated and seeded with a
//     known catalog, reachable over a connection URI and able to run commands
//     inside the instance for verification independent of the service.
//   - Client: issues GET /api/v1/films?startsWith=<value> with the value passed
//     through untouched and returns status, headers and the decoded body.
//   - Checks: pure functions over a Response. Each returns nil or an
//     *AssertionFailure; All runs a group of checks and reports every failure
//     together instead of stopping at the first.
//
// Cases and Runner bundle those pieces into named scenarios that can be loaded
// from YAML and executed against any running instance of the service.
package harness
