package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()

	var got Pagination
	app.Get("/test", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(http.StatusOK)
	})

	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"Defaults", "", 20, 0},
		{"Explicit", "?limit=5&offset=10", 5, 10},
		{"Capped", "?limit=500", maxPaginationLimit, 0},
		{"Negative", "?limit=-1&offset=-5", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test"+tt.query, nil)
			_, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "message ID", humanizeParam("messageId"))
	assert.Equal(t, "comment ID", humanizeParam("commentId"))
	assert.Equal(t, "foo", humanizeParam("foo"))
}

func TestParseIDRejectsBadInput(t *testing.T) {
	s, app, db := newTestServer(t)
	_, token := createTestUser(t, s, db, "User", "user@example.com")

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/posts/abc", token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/posts/0", token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
