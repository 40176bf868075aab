package types

// Identity holds the local party's long-term Ed25519 signing keys.
type Identity struct {
	UserID Username       `json:"user_id"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}
