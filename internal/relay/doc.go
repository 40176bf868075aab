// Package relay implements the untrusted store-and-forward relay and identity
// directory, and an HTTP client for it.
//
// The relay only routes: it stores each user's published identity key and
// queues opaque frames for recipients until they fetch and acknowledge them.
// It never sees plaintext or private keys.
//
// HTTP API
//
//	POST /register             {username, publicKey}
//	GET  /public-key/{user}    404 when unknown
//	POST /msg/{user}           enqueue a Frame for {user}
//	GET  /msg/{user}?limit=N   peek up to N queued frames
//	POST /msg/{user}/ack       {count}; drop the first count frames
//	GET  /metrics              Prometheus exposition
//	GET  /health
//
// All client requests accept a context for cancellation and deadlines.
// Non-2xx statuses are returned as errors with the HTTP method, path, and
// status text; 404 wraps domain.ErrNotFound.
package relay
