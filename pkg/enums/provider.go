package enums

import "fmt"

// AuthProvider identifies which identity provider vouched for a credential.
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

func (p AuthProvider) IsValid() bool {
	switch p {
	case AuthProviderEmail, AuthProviderGoogle:
		return true
	}
	return false
}

func (p AuthProvider) String() string {
	return string(p)
}

// ParseAuthProvider validates a raw provider tag.
func ParseAuthProvider(raw string) (AuthProvider, error) {
	provider := AuthProvider(raw)
	if !provider.IsValid() {
		return "", fmt.Errorf("invalid auth provider %q", raw)
	}
	return provider, nil
}
