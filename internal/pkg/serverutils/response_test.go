package serverutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	ChatSessionId string `json:"chat_session_id" validate:"required"`
	Chat          string `json:"chat" validate:"required"`
}

func TestSuccessResponseEnvelope(t *testing.T) {
	resp := SuccessResponse("Session created", map[string]string{"id": "abc"})

	assert.True(t, resp.Success)
	assert.Equal(t, fiber.StatusOK, resp.Code)
	assert.Equal(t, "Session created", resp.Message)
	assert.Equal(t, "abc", resp.Data["id"])
}

func TestErrorResponseEnvelope(t *testing.T) {
	resp := ErrorResponse(fiber.StatusNotFound, "session not found")

	assert.False(t, resp.Success)
	assert.Equal(t, fiber.StatusNotFound, resp.Code)
	assert.Equal(t, "session not found", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(&sampleRequest{ChatSessionId: "s1", Chat: "hello"})
	assert.NoError(t, err)

	err = ValidateRequest(&sampleRequest{ChatSessionId: "s1"})
	assert.Error(t, err)

	var fiberErr *fiber.Error
	assert.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusBadRequest, fiberErr.Code)
	assert.Contains(t, fiberErr.Message, "failed on 'required'")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return assert.AnError
	})
	app.Get("/ok", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse[any]("ok", nil))
	})

	t.Run("fiber error keeps its status code", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		assert.False(t, body.Success)
		assert.Equal(t, "session not found", body.Message)
	})

	t.Run("plain error becomes 500", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("success passes through untouched", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeEnvelope(t, resp)
		assert.True(t, body.Success)
	})
}

func decodeEnvelope(t *testing.T, resp *http.Response) Response[any] {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	var body Response[any]
	assert.NoError(t, json.Unmarshal(raw, &body))
	return body
}
