package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore over environment variables.
// HOCKEYSCRAPER_GITHUB_TOKEN wins over GITHUB_TOKEN.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token under the requested name
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	token := envToken()
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultName
	}

	return &Credential{
		Name:         name,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single credential if a token variable is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment token is set
func (e *EnvironmentStore) Exists(name string) bool {
	return envToken() != ""
}

func envToken() string {
	if token := os.Getenv(EnvToken); token != "" {
		return token
	}
	return os.Getenv(EnvGitHubToken)
}
