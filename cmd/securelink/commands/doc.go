// Package commands defines the securelink CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init <username>        Create the local identity
//   - fingerprint            Print the identity fingerprint
//   - register               Publish the identity key to the relay directory
//   - send <peer> <message>  Run a handshake with a listening peer and send one message
//   - chat <peer>            Run a handshake, then send each stdin line
//   - listen                 Accept handshakes and print incoming messages
//   - inspect <file>         Dump a captured relay frame
//
// # Implementation
//
// The root command reads the config file, SECURELINK_* environment and flags,
// then builds the dependency graph (stores, relay client, audit sinks,
// metrics) before any subcommand runs. Sessions live only in process memory,
// so a conversation is bound to one running command.
package commands
