package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(nil, &out))
	assert.JSONEq(t, `{"success":false,"error":"Usage: getimport <text>"}`, out.String())
	assert.Contains(t, out.String(), "\n  \"success\"")
}

func TestRunAgainstFakeOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"[{\"name\":\"John Smith\",\"rating\":1500}]"},"done":true}`)
	}))
	defer srv.Close()
	t.Setenv("OLLAMA_URL", srv.URL)

	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{"John Smith, 1500"}, &out))
	assert.Contains(t, out.String(), `"success": true`)
	assert.Contains(t, out.String(), `"name": "John Smith"`)

	out.Reset()
	assert.Equal(t, 0, run([]string{"   "}, &out))
	assert.JSONEq(t, `{"success":false,"error":"No input text provided"}`, out.String())
}
