// Package platform implements the delegated-variant flow: identity
// verification is outsourced to a hosted identity platform, account
// records live in a remote directory service, and the issued credential
// carries the user-project relation and the platform session instead of
// a local principal.
package platform
