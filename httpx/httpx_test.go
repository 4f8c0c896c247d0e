package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pkg/errors"

	"github.com/TRSiddique/university-association-sub000/model"
)

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	if buf.Status() != 0 {
		t.Fatalf("status = %d before writing", buf.Status())
	}
	buf.Header().Set("X-Form", "f1")
	buf.WriteHeader(http.StatusCreated)
	buf.WriteHeader(http.StatusTeapot)
	fmt.Fprint(buf, "created")

	if buf.Status() != http.StatusCreated {
		t.Fatalf("status = %d", buf.Status())
	}

	rec := httptest.NewRecorder()
	if err := buf.Flush(rec); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusCreated || rec.Body.String() != "created" || rec.Header().Get("X-Form") != "f1" {
		t.Fatalf("flushed = %d %q %v", rec.Code, rec.Body.String(), rec.Header())
	}

	implicit := NewResponseBuffer()
	implicit.Write([]byte("ok"))
	if implicit.Status() != http.StatusOK {
		t.Fatalf("implicit status = %d", implicit.Status())
	}
}

func TestLogStoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	LogStoreError(rec, "get_form", "f1", errors.Wrap(model.ErrNotFound, "db.get_form"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("not found mapped to %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	LogStoreError(rec, "get_form", "f1", errors.New("disk I/O error"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("other error mapped to %d", rec.Code)
	}
}

func TestLogValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/forms/f1/responses", nil)
	LogValidation(rec, req, "submit", &model.ValidationError{Fields: map[string]string{"q2": "this question is required"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Fields["q2"] == "" {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestGrantRequest(t *testing.T) {
	req, err := GrantRequest(context.Background(), url.Values{"grant_type": {"password"}, "username": {"admin"}})
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != http.MethodPost || req.FormValue("grant_type") != "password" || req.FormValue("username") != "admin" {
		t.Fatalf("request = %s %v", req.Method, req.Form)
	}
}
