package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		offset, limit := parsePagination(c)
		return c.JSON(fiber.Map{"offset": offset, "limit": limit})
	})

	tests := []struct {
		name       string
		url        string
		wantOffset int
		wantLimit  int
	}{
		{"defaults", "/", 0, 50},
		{"explicit", "/?offset=20&limit=10", 20, 10},
		{"negative offset clamped", "/?offset=-5", 0, 50},
		{"oversized limit clamped", "/?limit=9999", 0, 50},
		{"zero limit clamped", "/?limit=0", 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.url, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var body struct {
				Offset int `json:"offset"`
				Limit  int `json:"limit"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantOffset, body.Offset)
			assert.Equal(t, tt.wantLimit, body.Limit)
		})
	}
}

func TestParseDateQuery(t *testing.T) {
	def := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		from, err := parseDateQuery(c, "from", def)
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.SendString(from.Format("2006-01-02"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/?from=2024-06-15", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/?from=not-a-date", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
