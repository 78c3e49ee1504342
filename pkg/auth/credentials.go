package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// DefaultName is the credential name used for the publisher token
const DefaultName = "github"

// Environment variables checked before any stored credential
const (
	EnvToken       = "HOCKEYSCRAPER_GITHUB_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvPassphrase  = "HOCKEYSCRAPER_PASSPHRASE"
)

// Credential is a named API token for the remote repository host
type Credential struct {
	Name         string    `json:"name"`
	Token        string    `json:"token"`
	Login        string    `json:"login,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a credential under its name
	Store(cred *Credential) error

	// Retrieve gets the credential with the given name
	Retrieve(name string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the credential with the given name
	Delete(name string) error

	// Exists checks if a credential exists
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with keyring, encrypted file and
// environment backends, in that order
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit backends
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Name == "" {
		return errors.New("credential name is required")
	}
	if strings.TrimSpace(cred.Token) == "" {
		return errors.New("token is required")
	}

	cred.Token = strings.TrimSpace(cred.Token)
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve(name string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(name); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// Token resolves the token for name. The environment wins over stored
// credentials. An empty string means none is configured.
func (m *Manager) Token(name string) string {
	if token := envToken(); token != "" {
		return token
	}
	cred, err := m.Retrieve(name)
	if err != nil {
		return ""
	}
	return cred.Token
}

// List returns all credentials from all stores, newest version of each name
func (m *Manager) List() ([]*Credential, error) {
	byName := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byName[cred.Name]; !ok || cred.LastModified.After(existing.LastModified) {
				byName[cred.Name] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byName))
	for _, cred := range byName {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result, nil
}

// Delete removes the credential from every store that holds it
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// ConfigDir returns the per-user configuration directory, creating it if needed
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "hockeyscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "hockeyscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "hockeyscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "hockeyscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of cred with the token masked
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Name:         cred.Name,
		Token:        MaskToken(cred.Token),
		Login:        cred.Login,
		LastModified: cred.LastModified,
	}
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
