package config

import (
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	defaultAuthURI             = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURI            = "https://oauth2.googleapis.com/token"
	defaultAuthProviderCertURL = "https://www.googleapis.com/oauth2/v1/certs"
	clientCertURLBase          = "https://www.googleapis.com/robot/v1/metadata/x509/"
)

// Credentials is the service-account bundle used to authenticate to FCM.
// The json tags match the Google service-account key file so the same struct
// reads a key file and renders the document handed to the SDK.
type Credentials struct {
	ProjectID           string `json:"project_id" envconfig:"FIREBASE_PROJECT_ID"`
	PrivateKeyID        string `json:"private_key_id" envconfig:"FIREBASE_PRIVATE_KEY_ID"`
	PrivateKey          string `json:"private_key" envconfig:"FIREBASE_PRIVATE_KEY"`
	ClientEmail         string `json:"client_email" envconfig:"FIREBASE_CLIENT_EMAIL"`
	ClientID            string `json:"client_id" envconfig:"FIREBASE_CLIENT_ID"`
	AuthURI             string `json:"auth_uri" envconfig:"FIREBASE_AUTH_URI"`
	TokenURI            string `json:"token_uri" envconfig:"FIREBASE_TOKEN_URI"`
	AuthProviderCertURL string `json:"auth_provider_x509_cert_url" envconfig:"FIREBASE_AUTH_PROVIDER_X509_CERT_URL"`
	ClientCertURL       string `json:"client_x509_cert_url" envconfig:"FIREBASE_CLIENT_X509_CERT_URL"`
}

// LoadCredentials assembles Credentials from, in increasing precedence, the
// service-account key file, the dotenv secrets file and FIREBASE_* variables.
// Missing optional files are not an error. The result is not validated; call
// Validate before using it.
func LoadCredentials(cfg FirebaseConfig, logger *slog.Logger) (*Credentials, error) {
	creds := &Credentials{}

	if cfg.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file %s: %w", cfg.CredentialsFile, err)
		}
		if err := json.Unmarshal(raw, creds); err != nil {
			return nil, fmt.Errorf("failed to parse credentials file %s: %w", cfg.CredentialsFile, err)
		}
		logger.Debug("Loaded credentials file", "path", cfg.CredentialsFile)
	}

	if cfg.SecretsFile != "" {
		// Load never overrides variables already present in the environment.
		if err := godotenv.Load(cfg.SecretsFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to load secrets file %s: %w", cfg.SecretsFile, err)
			}
			logger.Debug("Secrets file not found, using process environment only", "path", cfg.SecretsFile)
		} else {
			logger.Debug("Loaded secrets file", "path", cfg.SecretsFile)
		}
	}

	var fromEnv Credentials
	// Tags carry the full variable names; a prefix would make envconfig fall
	// back to the bare names.
	if err := envconfig.Process("", &fromEnv); err != nil {
		return nil, fmt.Errorf("failed to read FIREBASE_* environment: %w", err)
	}
	creds.overlay(&fromEnv)
	creds.applyDefaults()
	creds.PrivateKey = NormalizePrivateKey(creds.PrivateKey)

	logger.Debug("Credentials assembled",
		"project_id", creds.ProjectID,
		"client_email", creds.ClientEmail,
		"private_key_exists", creds.HasPrivateKey(),
	)
	return creds, nil
}

// Validate reports every missing required field in a single error and checks
// that the private key decodes as PEM.
func (c *Credentials) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"FIREBASE_PROJECT_ID", c.ProjectID},
		{"FIREBASE_PRIVATE_KEY", c.PrivateKey},
		{"FIREBASE_CLIENT_EMAIL", c.ClientEmail},
		{"FIREBASE_PRIVATE_KEY_ID", c.PrivateKeyID},
		{"FIREBASE_CLIENT_ID", c.ClientID},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required credential fields: %s", strings.Join(missing, ", "))
	}

	if block, _ := pem.Decode([]byte(c.PrivateKey)); block == nil {
		return errors.New("private key is not a PEM encoded key")
	}
	return nil
}

// HasPrivateKey reports presence only; the key value is never exposed.
func (c *Credentials) HasPrivateKey() bool {
	return c != nil && c.PrivateKey != ""
}

// ServiceAccountJSON renders the credentials as a service-account key document.
func (c *Credentials) ServiceAccountJSON() ([]byte, error) {
	doc := struct {
		Type string `json:"type"`
		*Credentials
	}{
		Type:        "service_account",
		Credentials: c,
	}
	return json.Marshal(doc)
}

// NormalizePrivateKey strips wrapping quotes and turns escaped newline
// sequences into the literal newlines PEM requires. A non-empty result always
// ends with a single newline.
func NormalizePrivateKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) >= 2 {
		first, last := key[0], key[len(key)-1]
		if first == last && (first == '"' || first == '\'') {
			key = key[1 : len(key)-1]
		}
	}
	key = strings.ReplaceAll(key, `\r\n`, "\n")
	key = strings.ReplaceAll(key, `\n`, "\n")
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return key + "\n"
}

func (c *Credentials) overlay(o *Credentials) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&c.ProjectID, o.ProjectID)
	set(&c.PrivateKeyID, o.PrivateKeyID)
	set(&c.PrivateKey, o.PrivateKey)
	set(&c.ClientEmail, o.ClientEmail)
	set(&c.ClientID, o.ClientID)
	set(&c.AuthURI, o.AuthURI)
	set(&c.TokenURI, o.TokenURI)
	set(&c.AuthProviderCertURL, o.AuthProviderCertURL)
	set(&c.ClientCertURL, o.ClientCertURL)
}

func (c *Credentials) applyDefaults() {
	if c.AuthURI == "" {
		c.AuthURI = defaultAuthURI
	}
	if c.TokenURI == "" {
		c.TokenURI = defaultTokenURI
	}
	if c.AuthProviderCertURL == "" {
		c.AuthProviderCertURL = defaultAuthProviderCertURL
	}
	if c.ClientCertURL == "" && c.ClientEmail != "" {
		c.ClientCertURL = clientCertURLBase + url.PathEscape(c.ClientEmail)
	}
}
