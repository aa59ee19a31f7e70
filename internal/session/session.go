package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"erp_sales/internal/gateway"
	"erp_sales/internal/logging"
)

// StorageKey is where the logged-in user's profile is kept.
const StorageKey = "erp_usuario"

const (
	actionLogin = "login"
	defaultRole = "Usuario"
)

var (
	// ErrMissingCredentials is returned when username or password are blank.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrLogoutNotConfirmed is returned when logout is requested without confirmation.
	ErrLogoutNotConfirmed = errors.New("logout must be confirmed")
	// ErrNoSession is returned when an operation needs a logged-in user.
	ErrNoSession = errors.New("no active session")
)

// PasswordChangeNotice is shown when the backend flags a default password.
const PasswordChangeNotice = "For security reasons, change your password soon."

// User is the profile returned by the login action. Fields the front end does not
// understand are kept untouched in Profile.
type User struct {
	ID                 string          `json:"id,omitempty"`
	Username           string          `json:"usuario,omitempty"`
	Name               string          `json:"nombre"`
	Role               string          `json:"rol,omitempty"`
	MustChangePassword bool            `json:"cambiarPass,omitempty"`
	Profile            json.RawMessage `json:"-"`
}

// Label renders "Name (Role)" for the sidebar.
func (u *User) Label() string {
	role := u.Role
	if role == "" {
		role = defaultRole
	}
	return fmt.Sprintf("%s (%s)", u.Name, role)
}

// SellerID identifies the user as the seller on new sales, or returns "" if the
// profile has no identifier.
func (u *User) SellerID() string {
	if u.ID != "" {
		return u.ID
	}
	return u.Username
}

func parseUser(raw []byte) (*User, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if fields == nil {
		return nil, errors.New("empty user profile")
	}
	u := &User{Profile: append(json.RawMessage(nil), raw...)}
	u.ID = text(fields["id"])
	u.Username = text(fields["usuario"])
	u.Name = text(fields["nombre"])
	u.Role = text(fields["rol"])
	u.MustChangePassword, _ = fields["cambiarPass"].(bool)
	return u, nil
}

// text tolera ids numéricos o strings.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// LoginResult is what a successful login hands back to the UI.
type LoginResult struct {
	User   *User
	Notice string
}

// Store holds the authenticated user across restarts.
type Store struct {
	gateway gateway.Caller
	storage Storage
	logger  *zap.Logger
}

// NewStore creates a session Store.
func NewStore(gw gateway.Caller, storage Storage, logger *zap.Logger) *Store {
	if storage == nil {
		storage = NewLocalStorage()
	}
	return &Store{
		gateway: gw,
		storage: storage,
		logger:  logging.OrNop(logger),
	}
}

// Login authenticates against the backend and persists the returned profile.
// Gateway failures come back as *gateway.Error.
func (s *Store) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	res := s.gateway.Call(ctx, actionLogin, map[string]string{
		"usuario":  username,
		"password": password,
	})
	if err := res.Err(); err != nil {
		s.logger.Warn("login rejected", zap.String("usuario", username), zap.Error(err))
		return nil, err
	}

	var body struct {
		User json.RawMessage `json:"usuario"`
	}
	if err := res.Decode(&body); err != nil || len(body.User) == 0 || string(body.User) == "null" {
		return nil, &gateway.Error{Kind: gateway.KindBackend, Message: "login response carries no user"}
	}
	user, err := parseUser(body.User)
	if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindBackend, Message: err.Error()}
	}

	if err := s.storage.Set(StorageKey, body.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info("session started", zap.String("usuario", username), zap.String("rol", user.Role))

	result := &LoginResult{User: user}
	if user.MustChangePassword {
		result.Notice = PasswordChangeNotice
	}
	return result, nil
}

// Logout clears the persisted session. It refuses to act unless confirmed.
func (s *Store) Logout(confirmed bool) error {
	if !confirmed {
		return ErrLogoutNotConfirmed
	}
	if err := s.storage.Remove(StorageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("session closed")
	return nil
}

// CurrentUser returns the persisted user, or false when nobody is logged in.
// A corrupt record counts as no session.
func (s *Store) CurrentUser() (*User, bool) {
	raw, err := s.storage.Get(StorageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("read session", zap.Error(err))
		}
		return nil, false
	}
	u, err := parseUser(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt session", zap.Error(err))
		return nil, false
	}
	return u, true
}
