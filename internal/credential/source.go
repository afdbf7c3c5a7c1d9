package credential

import (
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/config"
)

const (
	DefaultKeyringService = "triager"
	DefaultKeyringItem    = "google-token"
)

// ErrNoToken is returned when no source holds a Google token.
var ErrNoToken = errors.New("no google token configured")

// KeyringOpener opens the keyring for a service name.
type KeyringOpener func(service string) (keyring.Keyring, error)

// Loader finds the Google token. Sources are tried in order: inline JSON from
// the environment, a token file, then the OS keyring.
type Loader struct {
	tokenJSON      string
	tokenFile      string
	keyringService string
	keyringItem    string
	open           KeyringOpener
}

type Option func(*Loader)

func WithTokenJSON(data string) Option {
	return func(l *Loader) {
		l.tokenJSON = data
	}
}

func WithTokenFile(path string) Option {
	return func(l *Loader) {
		l.tokenFile = path
	}
}

func WithKeyring(service, item string) Option {
	return func(l *Loader) {
		l.keyringService = service
		l.keyringItem = item
	}
}

func WithKeyringOpener(open KeyringOpener) Option {
	return func(l *Loader) {
		l.open = open
	}
}

// NewLoader builds a loader from the environment and the credential section
// of cfg. Options override both.
func NewLoader(cfg config.Config, opts ...Option) *Loader {
	l := &Loader{
		tokenJSON:      config.GoogleTokenJSON(),
		tokenFile:      config.GoogleTokenFile(),
		keyringService: cfg.Credential.KeyringService,
		keyringItem:    cfg.Credential.KeyringItem,
		open:           openKeyring,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the raw token document and the name of the source it came from.
func (l *Loader) Load() ([]byte, string, error) {
	if data := strings.TrimSpace(l.tokenJSON); data != "" {
		return []byte(data), "env", nil
	}
	if l.tokenFile != "" {
		data, err := os.ReadFile(l.tokenFile)
		if err != nil {
			return nil, "", errors.Wrapf(err, "read token file %s", l.tokenFile)
		}
		return data, "file", nil
	}
	if l.keyringService != "" {
		item := l.keyringItem
		if item == "" {
			item = DefaultKeyringItem
		}
		ring, err := l.open(l.keyringService)
		if err != nil {
			return nil, "", err
		}
		it, err := ring.Get(item)
		if err != nil {
			return nil, "", errors.Wrapf(err, "getting credential %q", item)
		}
		return it.Data, "keyring", nil
	}
	return nil, "", ErrNoToken
}

// Store saves a token document in the keyring.
func (l *Loader) Store(data []byte) error {
	service := l.keyringService
	if service == "" {
		service = DefaultKeyringService
	}
	item := l.keyringItem
	if item == "" {
		item = DefaultKeyringItem
	}
	if _, err := ParseAuthorizedUser(data); err != nil {
		return err
	}
	ring, err := l.open(service)
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: item, Data: data, Label: "triager Google token"}); err != nil {
		return errors.Wrapf(err, "setting credential %q", item)
	}
	return nil
}

func openKeyring(service string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/triager/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("triager-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening keyring")
	}
	return ring, nil
}
