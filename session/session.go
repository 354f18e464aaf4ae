// Package session verifies the identity of gateway callers. The authentication layer in front of
// the gateway (the slack sign-in flow) hands every signed-in member a signed session token
// carrying the member id and the communities they belong to, with an admin flag for each.
package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"strings"
	"time"
)

// IssuerName is the issuer of every session token
const IssuerName = "steward"

// ErrUnauthenticated is returned for any missing, malformed, expired or forged token
var ErrUnauthenticated = errors.New("unauthenticated")

// Community is a community a member belongs to
type Community struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Identity is a verified gateway caller
type Identity struct {
	MemberID    string
	Name        string
	Communities []Community
}

// IsAdmin returns true if the member has the administrator permission in communityID
func (i Identity) IsAdmin(communityID string) bool {
	for _, c := range i.Communities {
		if c.ID == communityID {
			return c.Admin
		}
	}

	return false
}

// AdminCommunities returns the communities where the member is an administrator
func (i Identity) AdminCommunities() (communities []Community) {
	communities = make([]Community, 0)
	for _, c := range i.Communities {
		if c.Admin {
			communities = append(communities, c)
		}
	}

	return communities
}

type claims struct {
	jwt.RegisteredClaims
	Name        string      `json:"name"`
	Communities []Community `json:"communities"`
}

// Verifier verifies session tokens signed with a shared secret
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier of tokens signed with secret
func NewVerifier(secret []byte) (v *Verifier, err error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}

	return &Verifier{secret: secret, now: time.Now}, nil
}

// Verify returns the identity carried by token or ErrUnauthenticated
func (v *Verifier) Verify(token string) (id Identity, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return id, ErrUnauthenticated
	}

	var parsed claims
	_, err = jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(IssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return id, errors.Wrap(ErrUnauthenticated, err.Error())
	}

	if parsed.Subject == "" {
		return id, errors.Wrap(ErrUnauthenticated, "token has no subject")
	}

	return Identity{MemberID: parsed.Subject, Name: parsed.Name, Communities: parsed.Communities}, nil
}

// Issuer mints session tokens
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer returns an Issuer signing tokens with secret
func NewIssuer(secret []byte) (i *Issuer, err error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}

	return &Issuer{secret: secret, now: time.Now}, nil
}

// Issue returns a token for id valid for ttl
func (i *Issuer) Issue(id Identity, ttl time.Duration) (token string, err error) {
	if id.MemberID == "" {
		return "", errors.New("identity has no member id")
	}

	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    IssuerName,
			Subject:   id.MemberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:        id.Name,
		Communities: id.Communities,
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	return token, errors.Wrap(err, "signing session token")
}
