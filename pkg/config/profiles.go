package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AuthMethod enumerates the provider authentication strategies spec.md
// §4.5 requires ProviderClient to support.
type AuthMethod string

const (
	AuthOAuth  AuthMethod = "oauth"
	AuthBearer AuthMethod = "bearer"
	AuthBasic  AuthMethod = "basic"
	AuthCustom AuthMethod = "custom"
)

// AuthConfig holds the credentials and endpoint a provider's auth method
// needs. Not every field is used by every method.
type AuthConfig struct {
	Method       AuthMethod `json:"method"`
	TokenURL     string     `json:"token_url,omitempty"`
	ClientID     string     `json:"client_id,omitempty"`
	ClientSecret string     `json:"client_secret,omitempty"`
	Token        string     `json:"token,omitempty"`
	Username     string     `json:"username,omitempty"`
	Password     string     `json:"password,omitempty"`
	// JWTSigningKey, when set on a "custom" method, causes ProviderClient
	// to mint a signed JWT bearer assertion per request instead of using a
	// static token (original_source/mds/MDSAuth.py quirk, supplemented).
	JWTSigningKey string `json:"jwt_signing_key,omitempty"`
	JWTIssuer     string `json:"jwt_issuer,omitempty"`
	JWTAudience   string `json:"jwt_audience,omitempty"`
}

// ProviderProfile is the immutable-per-run description of one MDS provider
// (spec.md §3).
type ProviderProfile struct {
	Name             string            `json:"name"`
	MDSVersion       string            `json:"mds_version"`
	APIBaseURL       string            `json:"api_base_url"`
	Auth             AuthConfig        `json:"auth"`
	ParamOverrides   map[string]string `json:"param_overrides,omitempty"`
	PagingEnabled    bool              `json:"paging_enabled"`
	DelaySeconds     float64           `json:"delay_seconds"`
	TimeoutSeconds   int               `json:"timeout_seconds"`
	MaxAttempts      int               `json:"max_attempts"`
}

// ProviderStore is the hydrated providers-map (ConfigStore's providers
// component).
type ProviderStore struct {
	byName map[string]ProviderProfile
}

// Settings is the hydrated settings-map (ConfigStore's settings
// component). Values are left as raw JSON-decoded interface{} so GetSetting
// can coerce per caller.
type Settings map[string]interface{}

// ErrConfigMissing is returned by GetProviderProfile for an unknown
// provider (spec.md §4.1).
type ErrConfigMissing struct {
	Provider string
}

func (e *ErrConfigMissing) Error() string {
	return fmt.Sprintf("config: unknown provider %q", e.Provider)
}

// NewProviderStore builds a ProviderStore from a decoded JSON document of
// the shape {"providers": [ {...}, ... ]}.
func NewProviderStore(doc map[string]interface{}) (*ProviderStore, error) {
	store := &ProviderStore{byName: make(map[string]ProviderProfile)}

	raw, ok := doc["providers"]
	if !ok {
		return store, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("config: providers document malformed: \"providers\" is not a list")
	}

	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		profile, err := decodeProfile(m)
		if err != nil {
			return nil, err
		}
		store.byName[profile.Name] = profile
	}
	return store, nil
}

func decodeProfile(m map[string]interface{}) (ProviderProfile, error) {
	p := ProviderProfile{
		Name:           str(m["name"]),
		MDSVersion:     str(m["mds_version"]),
		APIBaseURL:     str(m["api_base_url"]),
		PagingEnabled:  boolOf(m["paging_enabled"]),
		DelaySeconds:   numOf(m["delay_seconds"]),
		TimeoutSeconds: int(numOf(m["timeout_seconds"])),
		MaxAttempts:    int(numOf(m["max_attempts"])),
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 30
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}

	if authRaw, ok := m["auth"].(map[string]interface{}); ok {
		p.Auth = AuthConfig{
			Method:        AuthMethod(str(authRaw["method"])),
			TokenURL:      str(authRaw["token_url"]),
			ClientID:      str(authRaw["client_id"]),
			ClientSecret:  str(authRaw["client_secret"]),
			Token:         str(authRaw["token"]),
			Username:      str(authRaw["username"]),
			Password:      str(authRaw["password"]),
			JWTSigningKey: str(authRaw["jwt_signing_key"]),
			JWTIssuer:     str(authRaw["jwt_issuer"]),
			JWTAudience:   str(authRaw["jwt_audience"]),
		}
	}

	if overrides, ok := m["param_overrides"].(map[string]interface{}); ok {
		p.ParamOverrides = make(map[string]string, len(overrides))
		for k, v := range overrides {
			p.ParamOverrides[k] = str(v)
		}
	}

	return p, nil
}

// GetProviderProfile fails with *ErrConfigMissing when name is unknown,
// matching spec.md §4.1.
func (s *ProviderStore) GetProviderProfile(name string) (ProviderProfile, error) {
	p, ok := s.byName[name]
	if !ok {
		return ProviderProfile{}, &ErrConfigMissing{Provider: name}
	}
	return p, nil
}

// Names returns every provider name the store knows about, for callers
// (cmd/mds) that need to build one provider.Client per configured
// provider rather than looking a single name up.
func (s *ProviderStore) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	return names
}

// DataPath returns the canonical object key prefix for a provider+datetime
// (spec.md §3 BlobObject key layout), NOT including the "trips.json" leaf
// or the leading stage segment — callers join those on.
func DataPath(providerName string, t time.Time) string {
	lower := strings.ToLower(providerName)
	return filepath.ToSlash(filepath.Join(
		lower,
		strconv.Itoa(t.Year()),
		strconv.Itoa(int(t.Month())),
		strconv.Itoa(t.Day()),
		strconv.Itoa(t.Hour()),
	))
}

// GetSetting returns settings[key], or def when absent. It never errors —
// settings are best-effort passthrough per spec.md §4.1.
func (s Settings) GetSetting(key string, def interface{}) interface{} {
	if v, ok := s[key]; ok {
		return v
	}
	return def
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func boolOf(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func numOf(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
