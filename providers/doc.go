// Package providers defines the parameterized social-provider descriptor
// and ships configured descriptors for the built-in providers. A provider
// contributes endpoints, default scopes, and a profile normalizer; the
// host framework drives the OAuth exchange itself.
package providers
