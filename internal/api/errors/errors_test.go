package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_Envelope(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string)
		status int
		code   string
	}{
		{"validation", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"not found", NotFound, http.StatusNotFound, CodeNotFound},
		{"too large", PayloadTooLarge, http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"unsupported", UnsupportedMedia, http.StatusBadRequest, CodeUnsupportedMedia},
		{"rate limited", RateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"upstream", UpstreamError, http.StatusInternalServerError, CodeUpstreamError},
		{"internal", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "сообщение")

			if rec.Code != tt.status {
				t.Errorf("status = %d, ожидался %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("невалидный JSON: %v", err)
			}
			if body.Error.Code != tt.code || body.Error.Message != "сообщение" {
				t.Errorf("тело = %+v", body.Error)
			}
		})
	}
}
