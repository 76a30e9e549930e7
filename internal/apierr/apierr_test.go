package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON_MapsKindsToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{SyncReference("dangling"), http.StatusUnprocessableEntity},
		{SyncDuplicate("dup"), http.StatusUnprocessableEntity},
		{Forbidden("nope"), http.StatusForbidden},
		{Internal("boom", errors.New("cause")), http.StatusInternalServerError},
		{errors.New("plain error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteJSON(rr, "test", tc.err)
		if rr.Code != tc.want {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.want, rr.Code)
		}
	}
}

func TestWriteJSON_HidesInternalCauseFromBody(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, "test", Internal("public message", errors.New("sensitive detail")))

	var body response
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "Internal Server Error" {
		t.Fatalf("expected generic message, got %v", body.Errors)
	}
}
