// Package core contains the canonical authentication domain: principals,
// verified identities, role gating, account resolution, and the callback
// orchestrator. Method façades and adapters depend on this package; core
// must not depend on delivery- or provider-specific adapters.
package core
