// Package accountservice owns user accounts for the identity-access context:
// registration, password login and signed access tokens. Other contexts read
// a user's id and role through it and never mutate accounts.
package accountservice
