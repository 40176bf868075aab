// Package handshake drives the three-message session handshake and the
// encrypted traffic that follows it.
//
// Flow
//
//	initiator                                responder
//	Start ──── KX_INIT (signed) ──────────▶ HandleInit
//	HandleResponse ◀── KX_RESPONSE (signed) ──
//	        ──── KX_CONFIRM (encrypted) ───▶ HandleConfirm
//
// Each inbound message is applied to its session as one atomic transition
// under the session's lock in the sessiontable. A message that fails any check
// is dropped: the session keeps its prior state, an audit event is recorded,
// and a *domain.RejectError is returned to the local caller. Nothing is ever
// sent back to the peer on rejection.
//
// Pending handshakes are bounded by a semaphore and expire after the
// configured timeout, at which point they are aborted and their key material
// is zeroed.
package handshake
