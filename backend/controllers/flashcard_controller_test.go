package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"linguahub/backend/config"
	"linguahub/backend/models"
	"linguahub/backend/routes"
	"linguahub/backend/utils"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, utils.SetRegion("America/Sao_Paulo"))

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))

	cfg := &config.Config{JWTSecret: "testsecret", Timezone: "America/Sao_Paulo"}
	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, utils.InitLogger())

	return &testEnv{app: app, db: db, cfg: cfg}
}

func (e *testEnv) createUser(t *testing.T, username string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, e.db.Create(&user).Error)

	token, err := utils.GenerateJWTToken(user.ID, e.cfg)
	require.NoError(t, err)
	return &user, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	resp = env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	resp = env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFlashcardEndpointsRequireAuth(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, "GET", "/api/flashcards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, "POST", "/api/flashcards/1/review", "", fiber.Map{"rating": 2})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAddAndReviewFlashcard(t *testing.T) {
	env := setupEnv(t)
	_, token := env.createUser(t, "bruno", models.RoleStudent)

	resp := env.request(t, "POST", "/api/flashcards", token, fiber.Map{
		"question": "what is 'gato'?",
		"answer":   "cat",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	card := body["card"].(map[string]interface{})
	cardID := int(card["id"].(float64))

	// Duplicate question is rejected softly.
	resp = env.request(t, "POST", "/api/flashcards", token, fiber.Map{
		"question": "what is 'gato'?",
		"answer":   "cat",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Bad rating is a client error.
	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d/review", cardID), token, fiber.Map{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A good review succeeds and credits the owner.
	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d/review", cardID), token, fiber.Map{"rating": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", decodeBody(t, resp)["status"])

	resp = env.request(t, "GET", "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	progress := decodeBody(t, resp)
	assert.EqualValues(t, 2, progress["points"])
	assert.EqualValues(t, 1, progress["study_streak"])
	assert.EqualValues(t, 0, progress["due_cards"])
}

func TestReviewUnknownCard(t *testing.T) {
	env := setupEnv(t)
	_, token := env.createUser(t, "carla", models.RoleStudent)

	resp := env.request(t, "POST", "/api/flashcards/424242/review", token, fiber.Map{"rating": 2})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditOrDeleteActions(t *testing.T) {
	env := setupEnv(t)
	_, token := env.createUser(t, "dani", models.RoleStudent)

	resp := env.request(t, "POST", "/api/flashcards", token, fiber.Map{
		"question": "edit me", "answer": "ok",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	card := decodeBody(t, resp)["card"].(map[string]interface{})
	cardID := int(card["id"].(float64))

	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d", cardID), token, fiber.Map{
		"action": "edit", "question": "edited", "answer": "still ok",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d", cardID), token, fiber.Map{
		"action": "jump",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d", cardID), token, fiber.Map{
		"action": "delete",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, "GET", "/api/flashcards", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cards := decodeBody(t, resp)["cards"].([]interface{})
	assert.Empty(t, cards)
}

func TestFlagEndpoint(t *testing.T) {
	env := setupEnv(t)
	_, token := env.createUser(t, "eva", models.RoleStudent)

	resp := env.request(t, "POST", "/api/flashcards", token, fiber.Map{
		"question": "flag me", "answer": "ok",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	card := decodeBody(t, resp)["card"].(map[string]interface{})
	cardID := int(card["id"].(float64))

	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d/flag", cardID), token, fiber.Map{
		"reason": "nonsense",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, "POST", fmt.Sprintf("/api/flashcards/%d/flag", cardID), token, fiber.Map{
		"reason": "typo",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The flagged card left the due queue.
	resp = env.request(t, "GET", "/api/flashcards/due", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cards := decodeBody(t, resp)["cards"].([]interface{})
	assert.Empty(t, cards)
}

func TestTeacherListsStudentDeck(t *testing.T) {
	env := setupEnv(t)
	teacher, teacherToken := env.createUser(t, "prof", models.RoleTeacher)
	student, studentToken := env.createUser(t, "gil", models.RoleStudent)
	_, strangerToken := env.createUser(t, "hugo", models.RoleStudent)
	student.AssignedTeacherID = &teacher.ID
	require.NoError(t, env.db.Save(student).Error)

	resp := env.request(t, "POST", "/api/flashcards", studentToken, fiber.Map{
		"question": "student card", "answer": "ok",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	path := fmt.Sprintf("/api/flashcards?student_id=%d", student.ID)

	resp = env.request(t, "GET", path, teacherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cards := decodeBody(t, resp)["cards"].([]interface{})
	assert.Len(t, cards, 1)

	resp = env.request(t, "GET", path, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	env := setupEnv(t)
	_, studentToken := env.createUser(t, "iris", models.RoleStudent)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)
	teacher, _ := env.createUser(t, "prof2", models.RoleTeacher)
	student, _ := env.createUser(t, "joao", models.RoleStudent)

	// Non-admins are rejected before the handler runs.
	resp := env.request(t, "POST", "/api/admin/assign_student", studentToken, fiber.Map{
		"student_id": student.ID, "teacher_id": teacher.ID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(t, "POST", "/api/admin/assign_student", adminToken, fiber.Map{
		"student_id": student.ID, "teacher_id": teacher.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reloaded models.User
	require.NoError(t, env.db.First(&reloaded, student.ID).Error)
	if assert.NotNil(t, reloaded.AssignedTeacherID) {
		assert.Equal(t, teacher.ID, *reloaded.AssignedTeacherID)
	}

	resp = env.request(t, "POST", "/api/admin/change_role", adminToken, fiber.Map{
		"user_id": student.ID, "role": "teacher",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, "POST", "/api/admin/change_role", adminToken, fiber.Map{
		"user_id": student.ID, "role": "wizard",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(t, "POST", "/api/admin/streaks/reset", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decodeBody(t, resp)["reset"])
}
