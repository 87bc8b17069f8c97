// Package auth holds the fixed credential table and in-memory sessions.
// Passwords are plaintext by design: the table is a deployment-local file
// with two or three entries, not an identity system.
package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type User struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     Role   `yaml:"role"`
}

type Credentials struct {
	users map[string]User
}

// DefaultCredentials mirrors the built-in user table.
func DefaultCredentials() *Credentials {
	return &Credentials{users: map[string]User{
		"admin":    {Name: "admin", Password: "admin2025", Role: RoleAdmin},
		"customer": {Name: "customer", Password: "cust2025", Role: RoleCustomer},
	}}
}

// LoadCredentials reads a YAML user table:
//
//	users:
//	  - name: admin
//	    password: admin2025
//	    role: admin
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var doc struct {
		Users []User `yaml:"users"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	if len(doc.Users) == 0 {
		return nil, fmt.Errorf("users file %q lists no users", path)
	}
	c := &Credentials{users: make(map[string]User, len(doc.Users))}
	for _, u := range doc.Users {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return nil, fmt.Errorf("users file %q has an entry without a name", path)
		}
		switch u.Role {
		case RoleAdmin, RoleCustomer:
		default:
			return nil, fmt.Errorf("user %q has unknown role %q", name, u.Role)
		}
		u.Name = name
		c.users[name] = u
	}
	return c, nil
}

// Authenticate checks a username/password pair.
func (c *Credentials) Authenticate(name, password string) (User, bool) {
	u, ok := c.users[name]
	if !ok || u.Password != password {
		return User{}, false
	}
	return u, true
}

// Names returns the configured usernames; the login form lists them.
func (c *Credentials) Names() []string {
	out := make([]string, 0, len(c.users))
	for n := range c.users {
		out = append(out, n)
	}
	return out
}
