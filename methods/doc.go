// Package methods exposes the authentication entry points: password
// sign-up/sign-in, social provider callbacks, and request authentication
// against the issued credential. Each façade verifies its own credential
// material and hands a verified identity to the core orchestrator.
package methods
