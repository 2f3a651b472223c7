package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resbook/internal/auth"
	"resbook/internal/config"
	"resbook/internal/database"
	"resbook/internal/events"
	"resbook/internal/models"
	"resbook/internal/notify"
	"resbook/internal/repository"
	"resbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	db      *database.DB
	users   *service.UserService
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := repository.NewMemoryCounterCache(time.Hour)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	bus := events.NewEventBus()
	dispatcher := notify.NewDispatcher(db, db, cache, nil, nil, nil, 5, &logger)
	dispatcher.SubscribeAll(bus)

	services := Services{
		Tokens:        tokens,
		Users:         service.NewUserService(db, cache, tokens, []string{"boss@corp.test"}, 100, 60, &logger),
		Bookings:      service.NewBookingService(db, db, bus, nil, 365, 0, &logger),
		Resources:     service.NewResourceService(db, &logger),
		Notifications: service.NewNotificationService(db, cache, &logger),
		Reports:       service.NewReportService(db),
	}

	srv := NewServer(config.ServerConfig{Port: 0}, services, t.TempDir(), &logger)
	return &testEnv{handler: srv.routes(), db: db, users: services.Users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an account and returns its ID and token.
func (e *testEnv) registerAndLogin(t *testing.T, name, email string) (int64, string) {
	t.Helper()
	user, err := e.users.Register(context.Background(), name, email, "", "secret-pass")
	require.NoError(t, err)

	_, token, err := e.users.Login(context.Background(), email, "secret-pass")
	require.NoError(t, err)
	return user.ID, token
}

func (e *testEnv) seedRoom(t *testing.T, name string) int64 {
	t.Helper()
	room := &models.Resource{Name: name, Type: models.ResourceRoom, Capacity: 8, IsActive: true}
	require.NoError(t, e.db.CreateResource(context.Background(), room))
	return room.ID
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func apiFutureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestHealthz(t *testing.T) {
	env := setupAPI(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	env := setupAPI(t)

	t.Run("Register", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "Alice", "email": "alice@corp.test", "password": "secret-pass",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var user models.User
		decodeBody(t, rec, &user)
		assert.Equal(t, models.RoleRequester, user.Role)
		// Password hash never leaves the server
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("LoginAndMe", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "alice@corp.test", "password": "secret-pass",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeBody(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		me := env.do(t, http.MethodGet, "/api/v1/users/me", resp.Token, nil)
		require.Equal(t, http.StatusOK, me.Code)
	})

	t.Run("UpdateProfilePhone", func(t *testing.T) {
		_, token, err := env.users.Login(context.Background(), "alice@corp.test", "secret-pass")
		require.NoError(t, err)

		rec := env.do(t, http.MethodPatch, "/api/v1/users/me", token, map[string]string{
			"phone": "+1 555 0100",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		me := env.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
		var user models.User
		decodeBody(t, me, &user)
		assert.Equal(t, "+1 555 0100", user.Phone)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "alice@corp.test", "password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("NoToken", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/users/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownJSONField", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "alice@corp.test", "password": "secret-pass", "extra": "x",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBookingEndpoints(t *testing.T) {
	env := setupAPI(t)
	roomID := env.seedRoom(t, "Meeting Room 1")
	_, aliceToken := env.registerAndLogin(t, "Alice", "alice@corp.test")
	_, bobToken := env.registerAndLogin(t, "Bob", "bob@corp.test")
	_, bossToken := env.registerAndLogin(t, "Boss", "boss@corp.test")

	body := map[string]any{
		"resource_id": roomID, "date": apiFutureDate(3),
		"start_time": "09:00", "end_time": "10:00", "pic": "Alice",
	}

	var created models.Booking
	t.Run("Create", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/room", aliceToken, body)
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeBody(t, rec, &created)
		assert.Equal(t, models.StatusPending, created.Status)
	})

	t.Run("Conflict", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/room", bobToken, body)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp struct {
			ConflictingID int64 `json:"conflicting_id"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, created.ID, resp.ConflictingID)
	})

	t.Run("WrongTypeEndpoint", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/bookings/transport", aliceToken, map[string]any{
			"resource_id": roomID, "date": apiFutureDate(5),
			"start_time": "09:00", "end_time": "10:00", "pic": "Alice",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("OwnerSeesOwnListOnly", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings/room", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Bookings []models.Booking `json:"bookings"`
		}
		decodeBody(t, rec, &resp)
		assert.Empty(t, resp.Bookings)
	})

	t.Run("GetForeignBookingForbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", created.ID), bobToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("AdminSeesAll", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings/room", bossToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Bookings []models.Booking `json:"bookings"`
		}
		decodeBody(t, rec, &resp)
		assert.Len(t, resp.Bookings, 1)
	})

	t.Run("DecisionRequiresAdmin", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/decision", created.ID), aliceToken,
			map[string]string{"decision": models.StatusApproved})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("AdminApproves", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/decision", created.ID), bossToken,
			map[string]string{"decision": models.StatusApproved, "feedback": "ok"})
		require.Equal(t, http.StatusOK, rec.Code)

		var booking models.Booking
		decodeBody(t, rec, &booking)
		assert.Equal(t, models.StatusApproved, booking.Status)
	})

	t.Run("SecondDecisionConflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/decision", created.ID), bossToken,
			map[string]string{"decision": models.StatusRejected})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("CancelDecidedBookingConflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/cancel", created.ID), aliceToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("RequesterGotDecisionNotification", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/notifications", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Notifications []models.Notification `json:"notifications"`
		}
		decodeBody(t, rec, &resp)
		require.NotEmpty(t, resp.Notifications)
		assert.Equal(t, models.NotifBookingDecided, resp.Notifications[0].Type)
	})
}

func TestCancelFlow(t *testing.T) {
	env := setupAPI(t)
	roomID := env.seedRoom(t, "Meeting Room 1")
	_, aliceToken := env.registerAndLogin(t, "Alice", "alice@corp.test")
	_, bobToken := env.registerAndLogin(t, "Bob", "bob@corp.test")

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/room", aliceToken, map[string]any{
		"resource_id": roomID, "date": apiFutureDate(3),
		"start_time": "09:00", "end_time": "10:00", "pic": "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Booking
	decodeBody(t, rec, &created)

	t.Run("ForeignCancelForbidden", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/cancel", created.ID), bobToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("OwnerCancels", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%d/cancel", created.ID), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var booking models.Booking
		decodeBody(t, rec, &booking)
		assert.Equal(t, models.StatusCancelled, booking.Status)
	})
}

func TestResourceEndpoints(t *testing.T) {
	env := setupAPI(t)
	_, aliceToken := env.registerAndLogin(t, "Alice", "alice@corp.test")
	_, bossToken := env.registerAndLogin(t, "Boss", "boss@corp.test")

	t.Run("CreateRequiresAdmin", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/resources", aliceToken, map[string]any{
			"type": models.ResourceRoom, "name": "Room X",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	var created models.Resource
	t.Run("AdminCreates", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/resources", bossToken, map[string]any{
			"type": models.ResourceRoom, "name": "Room X", "capacity": 6,
			"facilities": []string{"projector"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		decodeBody(t, rec, &created)
		assert.NotZero(t, created.ID)
	})

	t.Run("ListedForEveryone", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/resources/rooms", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Resources []models.Resource `json:"resources"`
		}
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Resources, 1)
		assert.Equal(t, []string{"projector"}, resp.Resources[0].Facilities)
	})

	t.Run("Update", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/resources/%d", created.ID), bossToken, map[string]any{
			"type": models.ResourceRoom, "name": "Room X", "capacity": 10,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var updated models.Resource
		decodeBody(t, rec, &updated)
		assert.Equal(t, int64(10), updated.Capacity)
	})

	t.Run("Deactivate", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/resources/%d", created.ID), bossToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		list := env.do(t, http.MethodGet, "/api/v1/resources/rooms", aliceToken, nil)
		var resp struct {
			Resources []models.Resource `json:"resources"`
		}
		decodeBody(t, list, &resp)
		assert.Empty(t, resp.Resources)
	})
}

func TestNotificationEndpoints(t *testing.T) {
	env := setupAPI(t)
	aliceID, aliceToken := env.registerAndLogin(t, "Alice", "alice@corp.test")

	for i := 0; i < 2; i++ {
		n := &models.Notification{
			UserID: aliceID, BookingID: 1,
			Type: models.NotifBookingDecided, Title: "Booking approved",
		}
		require.NoError(t, env.db.CreateNotification(context.Background(), n))
	}

	t.Run("UnreadCount", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]int64
		decodeBody(t, rec, &resp)
		assert.Equal(t, int64(2), resp["unread"])
	})

	t.Run("MarkRead", func(t *testing.T) {
		var list struct {
			Notifications []models.Notification `json:"notifications"`
		}
		rec := env.do(t, http.MethodGet, "/api/v1/notifications", aliceToken, nil)
		decodeBody(t, rec, &list)
		require.NotEmpty(t, list.Notifications)

		rec = env.do(t, http.MethodPatch,
			fmt.Sprintf("/api/v1/notifications/%d/read", list.Notifications[0].ID), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/v1/notifications/unread-count", aliceToken, nil)
		var resp map[string]int64
		decodeBody(t, rec, &resp)
		assert.Equal(t, int64(1), resp["unread"])
	})

	t.Run("MarkForeignNotFound", func(t *testing.T) {
		_, bobToken := env.registerAndLogin(t, "Bob", "bob@corp.test")
		rec := env.do(t, http.MethodPatch, "/api/v1/notifications/1/read", bobToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReportEndpoints(t *testing.T) {
	env := setupAPI(t)
	roomID := env.seedRoom(t, "Meeting Room 1")
	_, aliceToken := env.registerAndLogin(t, "Alice", "alice@corp.test")
	_, bossToken := env.registerAndLogin(t, "Boss", "boss@corp.test")

	rec := env.do(t, http.MethodPost, "/api/v1/bookings/room", aliceToken, map[string]any{
		"resource_id": roomID, "date": apiFutureDate(3),
		"start_time": "09:00", "end_time": "10:00", "pic": "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("SummaryRequiresAdmin", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/reports/summary", aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Summary", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/reports/summary", bossToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var summary models.ReportSummary
		decodeBody(t, rec, &summary)
		assert.Equal(t, int64(1), summary.Total)
		assert.Equal(t, int64(1), summary.ByStatus[models.StatusPending])
	})

	t.Run("Export", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/reports/export", bossToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
		assert.NotZero(t, rec.Body.Len())
	})
}
