package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("config file is not found")
var ErrProfileNotFound = errors.New("profile is not found")
var ErrProfileInvalid = errors.New("profile is invalid")

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

type Cert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty"`
}

// Profile points at one workflow server.
type Profile struct {
	// endpoint of the workflow server
	ApiRoot string `yaml:"apiRoot"`

	// namespace workflows are submitted into
	Namespace string `yaml:"namespace,omitempty"`

	// cert is a certificate for the workflow server.
	Cert Cert `yaml:"cert"`

	// bearer token sent with every request
	Token string `yaml:"token,omitempty"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// verifyToken inspects a bearer token. Tokens shaped like a JWT are
// parsed (unverified; the server checks the signature) so an expired
// token is caught here rather than as an opaque 401 later. Opaque
// tokens pass as-is.
func verifyToken(token string) error {
	if strings.Count(token, ".") != 2 {
		return nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// not a JWT after all; let the server decide
		return nil
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil
	}
	if expiry.Before(time.Now()) {
		return fmt.Errorf("token expired at %s", expiry.Format(time.RFC3339))
	}
	return nil
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if !verifyUrl(p.ApiRoot) {
		return fmt.Errorf("%w: apiRoot is not URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	if p.Token != "" {
		if err := verifyToken(p.Token); err != nil {
			return fmt.Errorf("%w: %s", ErrProfileInvalid, err)
		}
	}

	return nil
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	return Unmarshall(buf)
}

func Unmarshall(buf []byte) (ProfileStore, error) {
	store := ProfileStore{}
	if err := yaml.Unmarshal(buf, &store); err != nil {
		return nil, err
	}
	return store, nil
}

// Get returns the named profile, or ErrProfileNotFound.
func (ps ProfileStore) Get(profileName string) (*Profile, error) {
	profile, ok := ps[profileName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, profileName)
	}
	return profile, nil
}

// Save writes the store, readable by the owner only since it can carry
// tokens.
func (ps ProfileStore) Save(filepath string) error {
	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, buf, 0600)
}
