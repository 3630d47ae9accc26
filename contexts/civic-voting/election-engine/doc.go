// Package electionengine implements the election and voting engine of the
// civic-voting context.
//
// The engine owns elections, their options and the recorded votes. Election
// status is never stored: it is derived from the start and end instants at
// every read. Casting a vote checks existence, status, option membership and
// uniqueness inside one atomic store operation that also bumps the cached
// tallies, so tallies always match the recorded votes. Admin-only operations
// re-check the actor's role through the identity port.
package electionengine
