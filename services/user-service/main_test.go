package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"foodshare-connect/pkg/apperror"
	"foodshare-connect/pkg/security"
	"foodshare-connect/services/user-service/config"
	"foodshare-connect/services/user-service/models"
	"foodshare-connect/services/user-service/store"
)

type fakeStore struct {
	byEmail   map[string]*models.User
	byID      map[string]*models.User
	insertErr error
	inserted  []*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (f *fakeStore) add(user *models.User) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID.Hex()] = user
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*models.User, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, &apperror.CastError{Field: "_id", Value: id}
	}
	if user, ok := f.byID[id]; ok {
		projected := *user
		projected.Password = ""
		return &projected, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) Insert(_ context.Context, user *models.User) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.add(user)
	f.inserted = append(f.inserted, user)
	return nil
}

func (f *fakeStore) Leaderboard(_ context.Context) ([]models.User, error) {
	var volunteers []models.User
	for _, u := range f.byEmail {
		if u.Role == models.RoleVolunteer {
			volunteers = append(volunteers, *u)
		}
	}
	return volunteers, nil
}

func (f *fakeStore) Ping(_ context.Context) error { return nil }

func newTestServer(fs *fakeStore) *server {
	return &server{
		store: fs,
		cfg: config.Config{
			JWTExpire:    time.Hour,
			CookieExpire: time.Hour,
		},
	}
}

func duplicateKeyError(field string) error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{
			{
				Code: 11000,
				Message: fmt.Sprintf(
					`E11000 duplicate key error collection: foodshare.users index: %s_1 dup key: { %s: "x" }`,
					field, field,
				),
			},
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func hotelRegistration() map[string]interface{} {
	return map[string]interface{}{
		"role":     "hotel",
		"name":     "Grand Hotel",
		"mobile":   "9876543210",
		"email":    "a@b.com",
		"password": "secret12",
		"city":     "Pune",
		"address":  "123 Long Enough Street Name",
		"pincode":  "411001",
	}
}

func volunteerRegistration() map[string]interface{} {
	return map[string]interface{}{
		"role":     "volunteer",
		"name":     "Amy",
		"mobile":   "9123456789",
		"email":    "amy@x.com",
		"password": "secret12",
		"city":     "Pune",
	}
}

func registeredVolunteer(t *testing.T, email string) *models.User {
	t.Helper()
	hash, err := security.HashPassword("secret12")
	require.NoError(t, err)
	badge := models.BadgeSpark
	return &models.User{
		Role:     models.RoleVolunteer,
		Name:     "Amy",
		Mobile:   "9123456789",
		Email:    email,
		City:     "pune",
		Password: hash,
		Badge:    &badge,
	}
}

func TestRegisterHotel(t *testing.T) {
	fs := newFakeStore()
	srv := newTestServer(fs)

	w := postJSON(t, srv.registerHandler, "/user/register", hotelRegistration())

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User Registered Successfully", body["message"])

	user := body["user"].(map[string]interface{})
	assert.Nil(t, user["badge"])
	assert.Equal(t, float64(5), user["point"])
	assert.Equal(t, "pune", user["city"])
	assert.NotContains(t, user, "password")

	require.Len(t, fs.inserted, 1)
	assert.True(t, security.CheckPasswordHash("secret12", fs.inserted[0].Password))
}

func TestRegisterVolunteer(t *testing.T) {
	fs := newFakeStore()
	srv := newTestServer(fs)

	w := postJSON(t, srv.registerHandler, "/user/register", volunteerRegistration())

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Spark", user["badge"])
	assert.Equal(t, float64(0), user["point"])
}

func TestRegisterHotelMissingAddress(t *testing.T) {
	fs := newFakeStore()
	srv := newTestServer(fs)

	payload := hotelRegistration()
	delete(payload, "address")
	delete(payload, "pincode")
	w := postJSON(t, srv.registerHandler, "/user/register", payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Please Provide Your Address")
	assert.Contains(t, body["message"], "Please Provide Your Pincode")
	assert.Empty(t, fs.inserted)
}

func TestRegisterDuplicateEmailFastPath(t *testing.T) {
	fs := newFakeStore()
	fs.add(registeredVolunteer(t, "amy@x.com"))
	srv := newTestServer(fs)

	w := postJSON(t, srv.registerHandler, "/user/register", volunteerRegistration())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Email already Exists", body["message"])
}

func TestRegisterDuplicateMobileStorageConflict(t *testing.T) {
	// mobile uniqueness is only enforced by the storage index, so the
	// conflict surfaces as a normalized duplicate-key failure
	fs := newFakeStore()
	fs.insertErr = duplicateKeyError("mobile")
	srv := newTestServer(fs)

	w := postJSON(t, srv.registerHandler, "/user/register", volunteerRegistration())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Duplicate mobile Entered", body["message"])
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	// second writer loses the race past the fast-path check and hits
	// the unique index instead
	fs := newFakeStore()
	fs.insertErr = duplicateKeyError("email")
	srv := newTestServer(fs)

	w := postJSON(t, srv.registerHandler, "/user/register", volunteerRegistration())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Duplicate email Entered", body["message"])
}

func TestLogin(t *testing.T) {
	fs := newFakeStore()
	fs.add(registeredVolunteer(t, "amy@x.com"))
	srv := newTestServer(fs)

	w := postJSON(t, srv.loginHandler, "/user/login", map[string]string{
		"role":     "volunteer",
		"email":    "amy@x.com",
		"password": "secret12",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Logged In Successfully", body["message"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.NotContains(t, user, "password")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Equal(t, body["token"], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	userID, err := security.VerifyJWT(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, fs.byEmail["amy@x.com"].ID.Hex(), userID)
}

func TestLoginWrongPassword(t *testing.T) {
	fs := newFakeStore()
	fs.add(registeredVolunteer(t, "amy@x.com"))
	srv := newTestServer(fs)

	w := postJSON(t, srv.loginHandler, "/user/login", map[string]string{
		"role":     "volunteer",
		"email":    "amy@x.com",
		"password": "wrongpass",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Invalid Email or Password", body["message"])
}

func TestLoginUnknownEmail(t *testing.T) {
	// same generic message as a wrong password, so the caller cannot
	// probe which part failed
	fs := newFakeStore()
	srv := newTestServer(fs)

	w := postJSON(t, srv.loginHandler, "/user/login", map[string]string{
		"role":     "volunteer",
		"email":    "nobody@x.com",
		"password": "secret12",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Invalid Email or Password", body["message"])
}

func TestLoginRoleMismatch(t *testing.T) {
	fs := newFakeStore()
	fs.add(registeredVolunteer(t, "amy@x.com"))
	srv := newTestServer(fs)

	w := postJSON(t, srv.loginHandler, "/user/login", map[string]string{
		"role":     "hotel",
		"email":    "amy@x.com",
		"password": "secret12",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "User with provided email and role not found!", body["message"])
}

func TestLoginMissingFields(t *testing.T) {
	fs := newFakeStore()
	srv := newTestServer(fs)

	w := postJSON(t, srv.loginHandler, "/user/login", map[string]string{
		"email": "amy@x.com",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Please Provide Role, Email and Password", body["message"])
}

func TestLogout(t *testing.T) {
	srv := newTestServer(newFakeStore())

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	w := httptest.NewRecorder()
	srv.logoutHandler(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "User Logged Out Successfully", body["message"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.False(t, cookies[0].Expires.After(time.Now()))
}

func TestGetUser(t *testing.T) {
	fs := newFakeStore()
	user := registeredVolunteer(t, "amy@x.com")
	fs.add(user)
	srv := newTestServer(fs)

	r := httptest.NewRequest(http.MethodGet, "/user/getuser/"+user.ID.Hex(), nil)
	w := httptest.NewRecorder()
	srv.getUserHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, true, body["success"])
	got := body["user"].(map[string]interface{})
	assert.Equal(t, "Amy", got["name"])
	assert.NotContains(t, got, "password")
}

func TestGetUserMalformedID(t *testing.T) {
	srv := newTestServer(newFakeStore())

	r := httptest.NewRequest(http.MethodGet, "/user/getuser/not-a-hex-id", nil)
	w := httptest.NewRecorder()
	srv.getUserHandler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Resource not found. Invalid _id", body["message"])
}

func TestGetUserNotFound(t *testing.T) {
	srv := newTestServer(newFakeStore())

	r := httptest.NewRequest(http.MethodGet, "/user/getuser/"+primitive.NewObjectID().Hex(), nil)
	w := httptest.NewRecorder()
	srv.getUserHandler(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Cannot find user", body["msg"])
}

func TestLeaderboard(t *testing.T) {
	fs := newFakeStore()
	fs.add(registeredVolunteer(t, "amy@x.com"))
	srv := newTestServer(fs)

	r := httptest.NewRequest(http.MethodGet, "/user/leaderboard", nil)
	w := httptest.NewRecorder()
	srv.leaderboardHandler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	assert.Equal(t, "Users fetched successfully!", body["message"])
	assert.Len(t, body["user"], 1)
}

func TestRegisterRejectsGet(t *testing.T) {
	srv := newTestServer(newFakeStore())

	r := httptest.NewRequest(http.MethodGet, "/user/register", nil)
	w := httptest.NewRecorder()
	srv.registerHandler(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
