// Package main runs the in-memory HTTP relay used by securelink nodes. It
// hosts the identity-key directory and queues opaque frames for recipients
// until they fetch them.
//
// HTTP API
//
//	POST /register { "username": U, "publicKey": B64 }
//	    Publish U's Ed25519 identity key. Re-publishing the same key is a
//	    no-op; a different key for an existing user is refused with 409.
//
//	GET /public-key/{username}
//	    Return the published key for {username}, or 404.
//
//	POST /msg/{user}
//	    Enqueue a Frame destined to {user}. The frame's "to" must equal
//	    {user}. If Timestamp is zero, the server fills it with the current
//	    Unix time.
//
//	GET /msg/{user}?limit=N
//	    Return up to N queued frames for {user}, oldest first.
//
//	POST /msg/{user}/ack { "count": N }
//	    Drop the first N queued frames for {user}.
//
//	GET /health, GET /metrics
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - Each request is logged with method, path, status, bytes and duration.
//   - The default listen address is :8080.
//
// The relay is not trusted and never sees plaintext or private keys. The
// directory could substitute keys, so peers should compare fingerprints out
// of band.
package main
