package tests

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	resp := doJSON(http.MethodPost, "/api/auth/register", map[string]string{
		"username":      "newuser",
		"email":         "newuser@example.com",
		"password_hash": "password123",
	}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(resp)
	assert.NotEmpty(t, result["token"])
	assert.NotEmpty(t, result["user"])
}

func TestLogin(t *testing.T) {
	resp := doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "testuser",
		"password": "password",
	}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	result := decode(resp)
	assert.NotEmpty(t, result["token"])
	user := result["user"].(map[string]interface{})
	assert.Equal(t, "testuser", user["username"])
}

func TestLoginWrongPassword(t *testing.T) {
	resp := doJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "testuser",
		"password": "nope",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetProfile(t *testing.T) {
	resp := doJSON(http.MethodGet, "/api/user/profile", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	profile := data(resp)
	assert.Equal(t, "testuser", profile["username"])
	assert.Equal(t, "test@example.com", profile["email"])
	// display name defaults to the username on registration
	assert.Equal(t, "testuser", profile["display_name"])
}

func TestProfileRequiresToken(t *testing.T) {
	resp := doJSON(http.MethodGet, "/api/user/profile", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateProfileDisplayName(t *testing.T) {
	resp := doJSON(http.MethodPut, "/api/user/profile", map[string]string{
		"display_name": "Lena",
	}, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(http.MethodGet, "/api/user/profile", nil, userToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lena", data(resp)["display_name"])
}

func TestAdminRouteForbiddenForUser(t *testing.T) {
	resp := doJSON(http.MethodPost, "/api/admin/quizzes", map[string]string{
		"title": "Sneaky quiz",
	}, userToken)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
