// Package tunnel manages SSH port-forwarding tunnels to fleet instances.
//
// Tunnels run as background ssh master processes addressed through a
// control socket. Persistent tunnels run locally and forward a local port
// to a port on the controller; their sockets live in the session
// directory so they can be found and closed later. Ephemeral tunnels are
// created on the controller itself and forward a controller port to a
// port on another fleet instance.
//
// Every tunnel is described by a [Spec] and rendered to an argument
// vector. Local invocations never go through a shell; remote invocations
// are quoted with shellescape.
package tunnel
