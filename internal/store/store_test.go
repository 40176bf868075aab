package store_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"securelink/internal/domain"
	"securelink/internal/store"
)

func TestIdentity_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	pass := "pass"

	var ids domain.IdentityStore = store.NewIdentityFileStore(home)

	id := domain.Identity{
		UserID: "alice",
		EdPub:  domain.Ed25519Public{3},
		EdPriv: domain.Ed25519Private{4},
	}

	if err := ids.SaveIdentity(pass, id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	got, err := ids.LoadIdentity(pass)
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	if got != id {
		t.Fatalf("mismatch after load")
	}

	fi, err := os.Stat(filepath.Join(home, "identity.json.enc"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("identity file mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestIdentity_WrongPassphrase_Fails(t *testing.T) {
	home := t.TempDir()
	var ids domain.IdentityStore = store.NewIdentityFileStore(home)

	id := domain.Identity{UserID: "alice", EdPub: domain.Ed25519Public{1}}

	if err := ids.SaveIdentity("correct", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if _, err := ids.LoadIdentity("wrong"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestIdentity_Missing(t *testing.T) {
	s := store.NewIdentityFileStore(t.TempDir())
	if s.Exists() {
		t.Fatal("fresh directory should hold no identity")
	}
	if _, err := s.LoadIdentity("x"); !errors.Is(err, store.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestReplay_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := store.NewReplayFileStore(dir)

	got, err := s.LoadTombstones()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tombstones, got %d", len(got))
	}

	exp := time.Date(2024, 1, 2, 3, 14, 5, 0, time.UTC)
	if err := s.SaveTombstones(map[string]time.Time{"sid:s1": exp}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = store.NewReplayFileStore(dir).LoadTombstones()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got["sid:s1"].Equal(exp) {
		t.Fatalf("tombstone = %v, want %v", got["sid:s1"], exp)
	}
}

func TestIdentity_RejectsTamperedFile(t *testing.T) {
	home := t.TempDir()
	s := store.NewIdentityFileStore(home)
	if err := s.SaveIdentity("pass", domain.Identity{UserID: "alice"}); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for name, edit := range map[string]func(map[string]any){
		"purpose": func(m map[string]any) { m["purpose"] = "replay" },
		"kdf":     func(m map[string]any) { m["kdf"] = map[string]any{"alg": "scrypt", "log_n": 30, "r": 8, "p": 1} },
		"salt":    func(m map[string]any) { m["salt"] = "AAAAAAAAAAAAAAAAAAAAAA==" },
	} {
		t.Run(name, func(t *testing.T) {
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("decode: %v", err)
			}
			edit(m)
			b, err := json.Marshal(m)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if err := os.WriteFile(s.Path(), b, 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := s.LoadIdentity("pass"); err == nil {
				t.Fatal("tampered file accepted")
			}
		})
	}
}

func TestIdentity_ScryptKDF(t *testing.T) {
	home := t.TempDir()
	s := store.NewIdentityFileStore(home)
	if err := s.SetKDF("md5"); err == nil {
		t.Fatal("unknown kdf accepted")
	}
	if err := s.SetKDF("scrypt"); err != nil {
		t.Fatalf("SetKDF: %v", err)
	}
	id := domain.Identity{UserID: "bob", EdPub: domain.Ed25519Public{7}}
	if err := s.SaveIdentity("pass", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f struct {
		KDF struct {
			Alg string `json:"alg"`
		} `json:"kdf"`
	}
	if err := json.Unmarshal(raw, &f); err != nil || f.KDF.Alg != "scrypt" {
		t.Fatalf("kdf = %q (%v), want scrypt", f.KDF.Alg, err)
	}

	// A store configured for the default KDF still opens it.
	got, err := store.NewIdentityFileStore(home).LoadIdentity("pass")
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	if got != id {
		t.Fatal("mismatch after load")
	}
}
