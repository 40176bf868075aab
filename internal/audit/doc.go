// Package audit provides domain.SecurityLog sinks.
//
// SlogSink writes events as structured log records, Recorder keeps them in
// memory, and Multi fans one event out to several sinks. Events carry ids and
// reasons only, never key material or plaintext.
package audit
