package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/tosarchive/internal/corpus/corpustest"
	"github.com/kailas-cloud/tosarchive/internal/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolve(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	out, err := run(t, "--root", root, "resolve", "FakeService", "Community Guidelines", "2020-11-10")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "FakeService", got["service"])
	assert.Equal(t, "Community Guidelines", got["doc_type"])
	assert.Equal(t, "2020-11-10T23:59:59", got["date"])
	assert.Equal(t, "2020-11-09T17:30:22", got["version_at_date"])
	assert.Equal(t, "2020-11-11T16:30:22", got["next_version"])
	assert.Contains(t, got["data"], "California")
}

func TestResolve_BeforeFirst(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	out, err := run(t, "--root", root, "resolve", "FakeService", "Community Guidelines", "2019-06-01")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, false, got["version_at_date"])
	assert.Equal(t, "", got["data"])
	assert.Equal(t, "2020-11-09T17:30:22", got["next_version"])
}

func TestResolve_BadDate(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	_, err := run(t, "--root", root, "resolve", "FakeService", "Community Guidelines", "10/11/2020")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedUserDate)
	assert.Equal(t, exitBadInput, exitCode(err))
}

func TestFirstOccurrence(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	out, err := run(t, "--root", root, "--workers", "1", "first-occurrence", "rgpd,Ambanum")
	require.NoError(t, err)
	assert.JSONEq(t, `{"FakeService":{"Community Guidelines":"2020-11-11T16:30:22"}}`, out)

	out, err = run(t, "--root", root, "first-occurrence", "Ambanum")
	require.NoError(t, err)
	assert.JSONEq(t, `{"FakeService":{"Community Guidelines":false}}`, out)
}

func TestAllOccurrences(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	out, err := run(t, "--root", root, "all-occurrences", "california")
	require.NoError(t, err)
	assert.JSONEq(t, `{"FakeService":{"Community Guidelines":{
		"2020-11-09T17:30:22":true,
		"2020-11-11T16:30:22":true
	}}}`, out)
}

func TestScan_InvalidTerms(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	_, err := run(t, "--root", root, "first-occurrence", "a,,b")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTerms)
	assert.Equal(t, exitBadInput, exitCode(err))
}

func TestListServices(t *testing.T) {
	b := corpustest.FakeService(t)
	b.File("Solo/Privacy Policy/2021-01-01--00-00-00.md", "only one")

	out, err := run(t, "--root", b.Root(), "list-services")
	require.NoError(t, err)
	assert.JSONEq(t, `{"FakeService":["Community Guidelines"],"Solo":["Privacy Policy"]}`, out)

	out, err = run(t, "--root", b.Root(), "list-services", "--multiple-versions-only")
	require.NoError(t, err)
	assert.JSONEq(t, `{"FakeService":["Community Guidelines"]}`, out)
}

func TestStats(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	out, err := run(t, "--root", root, "stats")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Community Guidelines", rows[0]["document_type"])
	assert.Equal(t, "2020-11-09T17:30:22", rows[0]["captured_at"])

	out, err = run(t, "--root", root, "stats", "--monthly")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"year_month":"2020-11","n_services_active":1,"n_services_tracked":1}]`, out)
}

func TestMissingRoot(t *testing.T) {
	_, err := run(t, "--root", t.TempDir()+"/absent", "stats")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidCorpusRoot)
	assert.Equal(t, exitBadCorpus, exitCode(err))
}

func TestInvalidLayout(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	_, err := run(t, "--root", root, "--layout", "2006", "stats")
	require.Error(t, err)
	assert.Equal(t, exitBadInput, exitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	_, err := run(t, "--root", root, "--log-level", "loud", "stats")
	require.Error(t, err)
	assert.Equal(t, exitBadInput, exitCode(err))
}

func TestPrettyOutput(t *testing.T) {
	root := corpustest.FakeService(t).Root()

	out, err := run(t, "--root", root, "--pretty", "list-services")
	require.NoError(t, err)
	assert.Contains(t, out, "\n  \"FakeService\"")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("wrap: %w", domain.ErrUnknownServiceOrDocumentType), exitBadInput},
		{fmt.Errorf("wrap: %w", domain.ErrCorpusRead), exitBadCorpus},
		{fmt.Errorf("wrap: %w", domain.ErrMalformedSnapshotName), exitBadCorpus},
		{errors.New("boom"), exitFailure},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, exitCode(tc.err), "%v", tc.err)
	}
}
