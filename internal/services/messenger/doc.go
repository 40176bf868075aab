// Package messenger runs a securelink node over the relay.
//
// It opens sessions (Connect), sends encrypted messages (SendMessage), and
// pumps inbound frames through the handshake state machine (Poll). Every
// fetched frame is acknowledged once processed, whether it was accepted or
// dropped; rejected frames are never retried. Run combines a poll loop and a
// pending-session sweep under one errgroup.
package messenger
