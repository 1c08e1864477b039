package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/pdftest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanCommand(t *testing.T) {
	path, err := pdftest.Write(t.TempDir(), "set.pdf",
		pdftest.Letter(pdftest.Text{X: 520, Y: 40, S: "M101"}),
		pdftest.Letter(pdftest.Text{X: 520, Y: 40, S: "PD101"}),
		pdftest.Letter(pdftest.Text{X: 40, Y: 40, S: "P201"}),
	)
	require.NoError(t, err)

	out, err := run(t, "scan", path, "--log-level", "error")
	require.NoError(t, err)

	var got []models.CandidatePage
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []models.CandidatePage{{PageNumber: 2, SheetNumber: "PD101"}}, got)

	out, err = run(t, "scan", path, "--anchor", "bottom-left", "--log-level", "error")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []models.CandidatePage{{PageNumber: 3, SheetNumber: "P201"}}, got)
}

func TestScanCommandErrors(t *testing.T) {
	_, err := run(t, "scan")
	assert.Error(t, err)

	_, err = run(t, "scan", "missing.pdf", "--log-level", "error")
	assert.Error(t, err)

	_, err = run(t, "scan", "x.pdf", "--anchor", "center")
	assert.Error(t, err)
}

func TestProcessCommand(t *testing.T) {
	replies := []string{
		`{"classification": "Plumbing Drawing", "sheet_title": "Fixture Layout"}`,
		`{"classification": "Plumbing Schedule", "sheet_title": "Fixture Schedule"}`,
	}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		n := int(calls.Add(1)) - 1
		if n >= len(replies) {
			http.Error(w, "unexpected call", http.StatusInternalServerError)
			return
		}
		content, _ := json.Marshal(replies[n])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%s}}]}`, content)
	}))
	defer srv.Close()

	t.Setenv("CLASSIFIER_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	path, err := pdftest.Write(t.TempDir(), "set.pdf",
		pdftest.Letter(pdftest.Text{X: 60, Y: 700, S: "COVER"}),
		pdftest.Letter(pdftest.Text{X: 520, Y: 40, S: "PD101"}),
		pdftest.Letter(pdftest.Text{X: 520, Y: 40, S: "PS601"}),
	)
	require.NoError(t, err)

	out, err := run(t, "process", path, "-c", "1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	var got models.ProcessingResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []models.PageRecord{{PageNumber: 2, SheetNumber: "PD101", SheetTitle: "Fixture Layout"}}, got.Drawings)
	assert.Equal(t, []models.PageRecord{{PageNumber: 3, SheetNumber: "PS601", SheetTitle: "Fixture Schedule"}}, got.Schedules)
}

func TestProcessCommandRequiresKey(t *testing.T) {
	t.Setenv("CLASSIFIER_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := run(t, "process", "set.pdf")
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
