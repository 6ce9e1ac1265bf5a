// Package delivery implements session-credential channels: a signed token
// carried by cookie and/or Authorization header, and a static API key. The
// host hands opaque source/sink handles; this package never touches the
// transport directly.
package delivery
