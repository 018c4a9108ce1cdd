package handlers

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
)

func TestVersionHandler(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	VersionHandler(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data, _ := decodeBody(t, rec)["data"].(map[string]any)
	if data["version"] != Version {
		t.Errorf("version = %v, want %s", data["version"], Version)
	}
	if data["go_version"] != runtime.Version() {
		t.Errorf("go_version = %v, want %s", data["go_version"], runtime.Version())
	}
}
