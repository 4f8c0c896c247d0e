package httpx

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/oauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/TRSiddique/university-association-sub000/config"
)

// AdminRole is the role claim granted to every authenticated user. Only
// admins can log in: respondents are anonymous.
const AdminRole = "admin"

const refreshTokenLifetime = 365 * 24 * time.Hour

var errRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	db  *sql.DB
	now func() time.Time
}

func CredentialsVerifier(db *sql.DB) oauth.CredentialsVerifier {
	return &credentialsVerifier{db: db, now: time.Now}
}

// NewBearerServer issues and refreshes admin tokens signed with the
// configured secret.
func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(db), nil)
}

// GrantRequest builds a token request that can be handed directly to
// BearerServer.UserCredentials.
func GrantRequest(ctx context.Context, values url.Values) (*http.Request, error) {
	body := values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))
	return req, nil
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	var hash []byte
	err := cs.db.
		QueryRowContext(r.Context(), "SELECT password_hash FROM user WHERE username = ?", username).
		Scan(&hash)
	if err != nil {
		return err
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	_, err := cs.db.Exec(
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		credential,
		tokenID,
		refreshTokenID,
		cs.now().Add(refreshTokenLifetime).UTC(),
	)
	return err
}

// ValidateTokenID consumes the stored refresh token: each one can be used
// once.
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	var expiration time.Time
	err := cs.db.
		QueryRow(`
			SELECT expiration FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?`,
			credential,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration)
	if err != nil {
		return errRefresh
	}

	res, err := cs.db.Exec(`
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?`,
		credential,
		tokenID,
		refreshTokenID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n < 1 {
		// consumed by a concurrent refresh
		return errRefresh
	}

	if expiration.Before(cs.now()) {
		return errRefresh
	}
	return nil
}

func (*credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{"roles": AdminRole}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
