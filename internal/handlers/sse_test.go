package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/sse"
	"github.com/dimitrije/dashboard-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSSEApp(hub SSEHubInterface, guard AdminCheckerInterface, identity *models.User) http.Handler {
	handler := NewSSEHandler(hub, guard)
	app := drift.New()
	app.Use(testutil.InjectIdentity(identity))
	app.Get("/events", handler.Connect)
	return app
}

func TestSSEHandler_Connect_NotAuthenticated(t *testing.T) {
	hub := new(testutil.MockSSEHub)
	guard := new(testutil.MockAdminChecker)

	rec := testutil.NewHTTPTestClient(t, newSSEApp(hub, guard, nil)).GET("/events", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	hub.AssertNotCalled(t, "Register", mock.Anything)
}

func TestSSEHandler_Connect_StreamsUntilHubCloses(t *testing.T) {
	hub := new(testutil.MockSSEHub)
	guard := new(testutil.MockAdminChecker)
	user := &models.User{ID: uuid.New()}

	var registered *sse.Client
	guard.On("IsAdmin", mock.Anything, user).Return(true)
	hub.On("Register", mock.Anything).Run(func(args mock.Arguments) {
		registered = args.Get(0).(*sse.Client)
		registered.Send <- []byte(`{"type":"users_changed","data":null}`)
		// The hub closes Send when it drops a client.
		close(registered.Send)
	})
	hub.On("Unregister", mock.Anything).Return()

	rec := httptest.NewRecorder()
	newSSEApp(hub, guard, user).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.NotNil(t, registered)
	assert.Equal(t, user.ID, registered.UserID)
	assert.True(t, registered.Admin)
	assert.NotEmpty(t, registered.ID)

	body := rec.Body.String()
	assert.Contains(t, body, "connected")
	assert.Contains(t, body, "users_changed")
	hub.AssertCalled(t, "Unregister", registered)
}

func TestSSEHandler_Connect_MemberStream(t *testing.T) {
	hub := new(testutil.MockSSEHub)
	guard := new(testutil.MockAdminChecker)
	user := &models.User{ID: uuid.New()}

	var registered *sse.Client
	guard.On("IsAdmin", mock.Anything, user).Return(false)
	hub.On("Register", mock.Anything).Run(func(args mock.Arguments) {
		registered = args.Get(0).(*sse.Client)
		close(registered.Send)
	})
	hub.On("Unregister", mock.Anything).Return()

	rec := httptest.NewRecorder()
	newSSEApp(hub, guard, user).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	require.NotNil(t, registered)
	assert.False(t, registered.Admin)
	assert.Contains(t, rec.Body.String(), `"admin":false`)
}
