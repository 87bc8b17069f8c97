package auth

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestDefaultCredentials_Authenticate(t *testing.T) {
	c := DefaultCredentials()

	u, ok := c.Authenticate("admin", "admin2025")
	if !ok || u.Role != RoleAdmin {
		t.Fatalf("admin login: ok=%v role=%v", ok, u.Role)
	}
	u, ok = c.Authenticate("customer", "cust2025")
	if !ok || u.Role != RoleCustomer {
		t.Fatalf("customer login: ok=%v role=%v", ok, u.Role)
	}

	if _, ok := c.Authenticate("admin", "wrong"); ok {
		t.Fatalf("wrong password accepted")
	}
	if _, ok := c.Authenticate("ghost", "admin2025"); ok {
		t.Fatalf("unknown user accepted")
	}

	names := c.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "admin" || names[1] != "customer" {
		t.Fatalf("names=%v", names)
	}
}

func TestLoadCredentials_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	doc := `users:
  - name: boss
    password: s3cret
    role: admin
  - name: viewer
    password: look
    role: customer
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadCredentials(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if u, ok := c.Authenticate("boss", "s3cret"); !ok || u.Role != RoleAdmin {
		t.Fatalf("boss login: ok=%v role=%v", ok, u.Role)
	}
}

func TestLoadCredentials_Invalid(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name string
		doc  string
	}{
		{"empty", "users: []\n"},
		{"no-name", "users:\n  - password: x\n    role: admin\n"},
		{"bad-role", "users:\n  - name: a\n    password: x\n    role: root\n"},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, tc.name+".yaml")
		if err := os.WriteFile(path, []byte(tc.doc), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadCredentials(path); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}

	if _, err := LoadCredentials(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("missing file accepted")
	}
}

func TestSessionStore_Lifecycle(t *testing.T) {
	st := NewSessionStore(time.Hour)
	u, _ := DefaultCredentials().Authenticate("admin", "admin2025")

	s := st.Create(u)
	if s.ID == "" || !s.IsAdmin() || s.Shapes == nil {
		t.Fatalf("session=%+v", s)
	}

	got, ok := st.Get(s.ID)
	if !ok || got.ID != s.ID {
		t.Fatalf("get: ok=%v got=%+v", ok, got)
	}

	st.Delete(s.ID)
	if _, ok := st.Get(s.ID); ok {
		t.Fatalf("deleted session still resolvable")
	}
}

func TestSessionStore_ExpiryAndRenewal(t *testing.T) {
	st := NewSessionStore(time.Hour)
	now := time.Unix(1_700_000_000, 0)
	st.now = func() time.Time { return now }

	u, _ := DefaultCredentials().Authenticate("customer", "cust2025")
	s := st.Create(u)

	// access inside the window renews the expiry
	now = now.Add(50 * time.Minute)
	if _, ok := st.Get(s.ID); !ok {
		t.Fatalf("session expired too early")
	}
	now = now.Add(50 * time.Minute)
	if _, ok := st.Get(s.ID); !ok {
		t.Fatalf("renewed session expired")
	}

	// idle past the TTL drops it
	now = now.Add(2 * time.Hour)
	if _, ok := st.Get(s.ID); ok {
		t.Fatalf("expired session resolvable")
	}
}
