package webserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingPayload struct {
	Name string `json:"name" validate:"required,max=10"`
}

func TestNewEchoValidatesAndSerializes(t *testing.T) {
	e := NewEcho(nil)
	e.POST("/ping", func(c echo.Context) error {
		var p pingPayload
		if err := c.Bind(&p); err != nil {
			return err
		}
		if err := c.Validate(&p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid")
		}
		return c.JSON(http.StatusOK, map[string]string{"hello": p.Name})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"name":"tea"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hello":"tea"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"name":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":"Bad Request","message":"invalid"}`, rec.Body.String())
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	e := NewEcho(nil)
	e.GET("/boom", func(c echo.Context) error {
		return assert.AnError
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
