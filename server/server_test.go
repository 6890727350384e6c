package server_test

import (
	"encoding/json"
	"go/types"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.jpl.nasa.gov/bdube/goiris/server"
)

func TestHumanPayloadEncodesSingleKey(t *testing.T) {
	var cases = []struct {
		hp   server.HumanPayload
		key  string
		want interface{}
	}{
		{server.HumanPayload{T: types.Bool, Bool: true}, "bool", true},
		{server.HumanPayload{T: types.Int, Int: 7}, "int", float64(7)},
		{server.HumanPayload{T: types.Float64, Float: 2.5}, "f64", 2.5},
		{server.HumanPayload{T: types.String, String: "DN"}, "str", "DN"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		tc.hp.EncodeAndRespond(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200 got %d", rec.Code)
		}
		body := map[string]interface{}{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		got, ok := body[tc.key]
		if !ok {
			t.Errorf("expected key %q in %v", tc.key, body)
			continue
		}
		if got != tc.want {
			t.Errorf("expected %v got %v", tc.want, got)
		}
	}
}

func TestReplyWithFile(t *testing.T) {
	dir := t.TempDir()
	const contents = "version: 2\n"
	err := ioutil.WriteFile(filepath.Join(dir, "table.yml"), []byte(contents), os.ModePerm)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	server.ReplyWithFile(rec, req, "table.yml", dir)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Body.String() != contents {
		t.Errorf("expected %q got %q", contents, rec.Body.String())
	}
}

func TestReplyWithFileMissing(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	server.ReplyWithFile(rec, req, "nonexistent.yml", t.TempDir())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d", rec.Code)
	}
}
