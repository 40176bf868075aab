// Package canon produces the byte string that handshake signatures cover.
//
// The encoding is the ten handshake fields in a fixed order joined by '|':
//
//	type|from|to|sessionId|ephemeralPubA|ephemeralPubB|nonceA|nonceB|seq|ts
//
// Absent fields are encoded as the empty string and seq as a decimal integer.
// Field values containing the separator are refused so that two different
// bodies can never share an encoding.
package canon
