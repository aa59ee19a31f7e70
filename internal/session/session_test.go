package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"erp_sales/internal/gateway"
)

// newBackend levanta un backend falso que responde a la acción login.
func newBackend(t *testing.T, reply string, status int) (*gateway.Client, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Accion string `json:"accion"`
		}
		_ = json.Unmarshal(raw, &req)
		if req.Accion != "login" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	c := gateway.New(srv.URL, 2*time.Second, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = c.Close() })
	return c, &calls
}

func TestLogin_PersistsUser(t *testing.T) {
	gw, _ := newBackend(t, `{"success":true,"usuario":{"id":7,"usuario":"ana","nombre":"Ana Polo","rol":"Vendedor","sucursal":"Centro"}}`, http.StatusOK)
	storage := NewLocalStorage()
	store := NewStore(gw, storage, zaptest.NewLogger(t))

	res, err := store.Login(context.Background(), " ana ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ana Polo", res.User.Name)
	assert.Empty(t, res.Notice)

	u, ok := store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, "7", u.SellerID())
	assert.Equal(t, "Ana Polo (Vendedor)", u.Label())
	assert.Contains(t, string(u.Profile), `"sucursal":"Centro"`, "opaque profile fields are kept")
}

func TestLogin_PasswordChangeNotice(t *testing.T) {
	gw, _ := newBackend(t, `{"success":true,"usuario":{"nombre":"Luis","cambiarPass":true}}`, http.StatusOK)
	store := NewStore(gw, nil, zaptest.NewLogger(t))

	res, err := store.Login(context.Background(), "luis", "123456")
	require.NoError(t, err)
	assert.Equal(t, PasswordChangeNotice, res.Notice)
	assert.Equal(t, "Luis (Usuario)", res.User.Label())
}

func TestLogin_MissingCredentials(t *testing.T) {
	gw, calls := newBackend(t, `{"success":true}`, http.StatusOK)
	store := NewStore(gw, nil, zaptest.NewLogger(t))

	_, err := store.Login(context.Background(), "ana", "   ")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, 0, *calls, "no network call for blank credentials")
}

func TestLogin_BackendRejects(t *testing.T) {
	gw, _ := newBackend(t, `{"success":false,"error":"Contraseña incorrecta"}`, http.StatusOK)
	store := NewStore(gw, nil, zaptest.NewLogger(t))

	_, err := store.Login(context.Background(), "ana", "bad")
	require.Error(t, err)
	assert.Equal(t, "Contraseña incorrecta", err.Error())
	assert.False(t, gateway.IsTransport(err))

	_, ok := store.CurrentUser()
	assert.False(t, ok)
}

func TestLogin_TransportFailure(t *testing.T) {
	gw, _ := newBackend(t, ``, http.StatusBadGateway)
	store := NewStore(gw, nil, zaptest.NewLogger(t))

	_, err := store.Login(context.Background(), "ana", "secret")
	assert.True(t, gateway.IsTransport(err))
}

func TestLogout(t *testing.T) {
	storage := NewLocalStorage()
	require.NoError(t, storage.Set(StorageKey, []byte(`{"nombre":"Ana"}`)))
	store := NewStore(nil, storage, zaptest.NewLogger(t))

	assert.ErrorIs(t, store.Logout(false), ErrLogoutNotConfirmed)
	_, ok := store.CurrentUser()
	assert.True(t, ok, "unconfirmed logout keeps the session")

	require.NoError(t, store.Logout(true))
	_, ok = store.CurrentUser()
	assert.False(t, ok)
}

func TestCurrentUser_CorruptRecord(t *testing.T) {
	storage := NewLocalStorage()
	require.NoError(t, storage.Set(StorageKey, []byte(`[1,2`)))
	store := NewStore(nil, storage, zaptest.NewLogger(t))

	_, ok := store.CurrentUser()
	assert.False(t, ok)
}
