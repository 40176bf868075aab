// Package app wires application dependencies for the CLI.
//
// Config is loaded from an ini file ([node], [protocol] and [log] sections),
// then SECURELINK_* environment variables (optionally from a .env file), then
// command-line flags. Wire builds the concrete stores, relay client, audit
// sinks and metrics from it; Wire.Node unlocks the identity and assembles the
// handshake machine and messenger.
package app
