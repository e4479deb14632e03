package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/realestate/internal/apperrors"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`+"\n", string(body))
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		message := "something terrible happened"
		ServiceError(w, message, http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"error": "service_error",
			"message": "something terrible happened"
		}`,
		string(body),
	)
}

func TestRender_DecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := struct {
			Key       string `json:"key"`
			OrderName int    `json:"order_name"`
		}{}

		err := json.NewDecoder(r.Body).Decode(&value)
		require.Error(t, err, "Please check what JSON was sent. Test expected that it is invalid")
		DecodeError(w, err)
	}))
	defer ts.Close()

	tests := []struct {
		name        string
		requestBody string
		expected    string
	}{
		{
			name:        "json parsing error",
			requestBody: `invalid-json`,
			expected: `{
				"error":"decoding_failed",
				"message": "Failed to parse JSON: invalid character 'i' looking for beginning of value"
			}`,
		},
		{
			name:        "invalid type ok",
			requestBody: `{"key": "valid_json", "order_name": "but incorrect type"}`,
			expected: `{
				"error": "decoding_failed",
				"message": "Invalid data type for field 'order_name'"
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(tc.requestBody))
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tc.expected, string(body))
		})
	}
}

func TestRender_ValidationErrors(t *testing.T) {
	validate := validator.New()

	type T struct {
		Username string `validate:"required"`
		Password string `validate:"min=6"`
		Email    string `validate:"email"`
		Birthday string `validate:"datetime=2006-01-02"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		invalidData := T{
			Password: "123",
			Email:    "not-valid-email",
			Birthday: "yesterday",
		}

		err := validate.Struct(invalidData)
		require.Error(t, err, "test expects that data not pass validation")
		errs, ok := err.(validator.ValidationErrors)
		require.True(t, ok, "be sure you pass structure to validator")
		ValidationErrors(w, errs)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	expected, err := json.Marshal(struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}{
		Error:   "validation_failed",
		Message: "Request validation failed",
		Fields: map[string]string{
			"Username": "This field is required",         // Message for 'required' tag
			"Password": "Value is too short (minimum 6)", // Message for 'min' validation tag
			"Email":    "Invalid email",                  // Message for 'email' validation tag
			"Birthday": "Invalid value",                  // Unknown validation tag failed: default validation error message
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, string(expected), string(body))
}

func TestRender_BindAndValidate(t *testing.T) {
	type User struct {
		Username string `json:"username" validate:"required"`
	}

	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid request",
			requestBody:    `{"username": "john"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success": true}`,
		},
		{
			name:           "invalid json",
			requestBody:    `invalid-json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"error": "decoding_failed",
				"message": "Failed to parse JSON: invalid character 'i' looking for beginning of value"
			}`,
		},
		{
			name:           "validation failed",
			requestBody:    `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody: `{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {
					"username": "This field is required"
				}
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, err := BindAndValidate[User](w, r)
				if err != nil {
					return // Error response already written
				}
				// Success case
				JSON(w, map[string]bool{"success": true})
			}))
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(tc.requestBody))
			require.NoError(t, err)
			require.Equal(t, tc.expectedStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, string(body))
		})
	}
}

func TestRender_AppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{"not found", apperrors.ErrPropertyNotFound, http.StatusNotFound, "property not found"},
		{"conflict", apperrors.ErrAppointmentConflict, http.StatusConflict, "time already booked for this property, please pick another time"},
		{"unauthorized", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"forbidden", apperrors.ErrInsufficientRole, http.StatusForbidden, "forbidden"},
		{"invalid input", apperrors.ErrWrongOldPassword, http.StatusBadRequest, "old password is incorrect"},
		{"wrapped", fmt.Errorf("booking: %w", apperrors.ErrAppointmentConflict), http.StatusConflict, "time already booked for this property, please pick another time"},
		{"unknown error hidden", errors.New("db error: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			AppError(w, tt.err)

			require.Equal(t, tt.status, w.Code)
			expected, err := json.Marshal(ErrorResponse{Error: ServiceErrorType, Message: tt.expected})
			require.NoError(t, err)
			assert.JSONEq(t, string(expected), w.Body.String())
		})
	}
}

func TestRender_EnumTags(t *testing.T) {
	type request struct {
		Status   string `json:"status" validate:"appointment_status"`
		Property string `json:"property" validate:"property_status"`
		Role     string `json:"role" validate:"role"`
	}

	w := httptest.NewRecorder()
	err := Validate(w, request{Status: "completed", Property: "sold", Role: "agent"})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	err = Validate(w, request{Status: "rescheduled", Property: "demolished", Role: "customer"})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{
		"error": "validation_failed",
		"message": "Request validation failed",
		"fields": {
			"status": "Unknown value",
			"property": "Unknown value",
			"role": "Unknown value"
		}
	}`, w.Body.String())
}

func TestRender_Form(t *testing.T) {
	newRequest := func(t *testing.T, values url.Values) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(values.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r
	}

	t.Run("typed values", func(t *testing.T) {
		id := uuid.New()
		r := newRequest(t, url.Values{
			"title":    {"  Flat  "},
			"bedrooms": {"2"},
			"price":    {"125000.50"},
			"latitude": {"9.01"},
			"agent_id": {id.String()},
		})

		f, err := ParseForm(httptest.NewRecorder(), r)
		require.NoError(t, err)

		assert.Equal(t, "Flat", f.String("title"))
		assert.Equal(t, 2, f.Int("bedrooms"))
		assert.Nil(t, f.OptionalInt("floor"), "empty value is nil")
		assert.True(t, decimal.RequireFromString("125000.50").Equal(f.Decimal("price")))
		assert.InDelta(t, 9.01, f.Float("latitude"), 1e-9)
		assert.Equal(t, id, f.UUID("agent_id"))
		assert.NoError(t, f.Check(httptest.NewRecorder()))
	})

	t.Run("first invalid field reported", func(t *testing.T) {
		r := newRequest(t, url.Values{"bedrooms": {"two"}, "price": {"cheap"}})

		f, err := ParseForm(httptest.NewRecorder(), r)
		require.NoError(t, err)
		_ = f.Int("bedrooms")
		_ = f.Decimal("price")

		w := httptest.NewRecorder()
		require.Error(t, f.Check(w))
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{
			"error": "decoding_failed",
			"message": "Invalid value for field 'bedrooms'"
		}`, w.Body.String())
	})

	t.Run("multipart files", func(t *testing.T) {
		body := &bytes.Buffer{}
		mw := multipart.NewWriter(body)
		require.NoError(t, mw.WriteField("title", "Flat"))
		for _, name := range []string{"home1.jpg", "bath.jpg"} {
			fw, err := mw.CreateFormFile("images", name)
			require.NoError(t, err)
			_, err = fw.Write([]byte(name))
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())

		r := httptest.NewRequest(http.MethodPost, "/test", body)
		r.Header.Set("Content-Type", mw.FormDataContentType())

		f, err := ParseForm(httptest.NewRecorder(), r)
		require.NoError(t, err)

		uploads, cleanup := f.Files("images")
		defer cleanup()
		require.Len(t, uploads, 2)
		assert.Equal(t, "home1.jpg", uploads[0].Name)
		content, err := io.ReadAll(uploads[1].Content)
		require.NoError(t, err)
		assert.Equal(t, "bath.jpg", string(content))

		avatar, cleanupAvatar := f.File("avatar")
		defer cleanupAvatar()
		assert.Nil(t, avatar, "not uploaded file is nil")
		assert.Equal(t, "Flat", f.String("title"))
	})
}
