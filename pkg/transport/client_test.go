package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cg-gdsc/gdsc8/pkg/logger"
	"github.com/cg-gdsc/gdsc8/pkg/submission"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSigner struct {
	calls int
	err   error
}

func (s *recordingSigner) Sign(_ context.Context, req *http.Request, _ []byte) (err error) {
	s.calls++
	req.Header.Set("Authorization", "test")
	err = s.err
	return err
}

type failingDoer struct {
	t *testing.T
}

func (d failingDoer) Do(_ *http.Request) (resp *http.Response, err error) {
	d.t.Fatal("network must not be used")
	return resp, err
}

func observeLogs(t *testing.T) (logs *observer.ObservedLogs) {
	t.Helper()
	prev := logger.Get()
	core, observed := observer.New(zap.DebugLevel)
	logger.Set(zap.New(core).Sugar())
	t.Cleanup(func() { logger.Set(prev) })
	logs = observed
	return logs
}

func validSubmission() (sub submission.Submission) {
	sub = submission.Submission{
		submission.NewJobsAndTrainings("persona_001", submission.NewJob("job_001", "training_001")),
		submission.NewTrainingsOnly("persona_002", "training_002"),
		submission.NewAwareness("persona_003", "too_young"),
	}
	return sub
}

func TestSubmitDryRun(t *testing.T) {
	observeLogs(t)

	signer := &recordingSigner{}
	client := NewClient("https://example.invalid", signer).WithHTTPClient(failingDoer{t: t})

	resp, err := client.Submit(context.Background(), validSubmission(), SubmitOptions{DryRun: true, Verbose: true})
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 0, signer.calls)
}

func TestSubmitValidatesFirst(t *testing.T) {
	observeLogs(t)

	signer := &recordingSigner{}
	client := NewClient("https://example.invalid", signer).WithHTTPClient(failingDoer{t: t})

	_, err := client.Submit(context.Background(), submission.Submission{}, SubmitOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, submission.ErrEmpty))

	bad := submission.Submission{{PersonaID: json.RawMessage(`"p1"`), Type: "nope"}}
	_, err = client.Submit(context.Background(), bad, SubmitOptions{DryRun: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, submission.ErrFormat))
	assert.Equal(t, 0, signer.calls)
}

func TestSubmitAcceptsWhatParseAccepts(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty persona id", doc: `[{"persona_id":"","predicted_type":"awareness"}]`},
		{name: "null persona id", doc: `[{"persona_id":null,"predicted_type":"awareness"}]`},
		{name: "numeric persona id", doc: `[{"persona_id":7,"predicted_type":"trainings_only","trainings":[]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observeLogs(t)

			sub, err := submission.Parse([]byte(tt.doc))
			require.NoError(t, err)

			client := NewClient("https://example.invalid", &recordingSigner{}).WithHTTPClient(failingDoer{t: t})
			_, err = client.Submit(context.Background(), sub, SubmitOptions{DryRun: true})
			require.NoError(t, err)
		})
	}
}

func TestSubmitSendsPersonaIDUnchanged(t *testing.T) {
	observeLogs(t)

	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sub, err := submission.Parse([]byte(`[
		{"persona_id":42,"predicted_type":"awareness"},
		{"persona_id":null,"predicted_type":"awareness"},
		{"persona_id":"persona_003","predicted_type":"awareness"}
	]`))
	require.NoError(t, err)

	client := NewClient(server.URL, &recordingSigner{})
	resp, err := client.Submit(context.Background(), sub, SubmitOptions{})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.JSONEq(t, `{"submission":[
		{"persona_id":42,"predicted_type":"awareness"},
		{"persona_id":null,"predicted_type":"awareness"},
		{"persona_id":"persona_003","predicted_type":"awareness"}
	]}`, string(gotBody))
}

func TestSubmitSignedRequest(t *testing.T) {
	logs := observeLogs(t)

	var gotBody []byte
	var gotAuth, gotDate, gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.Header.Get("X-Amz-Date")
		gotBody, _ = io.ReadAll(r.Body)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Submission received"}`))
	}))
	defer server.Close()

	signer := NewStaticSigner("AKIDEXAMPLE", "secret", "", DefaultRegion, DefaultService)
	client := NewClient(server.URL+"/main/", signer)

	resp, err := client.Submit(context.Background(), validSubmission(), SubmitOptions{Verbose: true})
	require.NoError(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/main/submit", gotPath)
	assert.True(t, strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/"), gotAuth)
	assert.Contains(t, gotAuth, "/us-east-1/execute-api/aws4_request")
	assert.NotEmpty(t, gotDate)

	envelope := gjson.ParseBytes(gotBody)
	assert.True(t, envelope.Get("submission").IsArray())
	assert.Len(t, envelope.Get("submission").Array(), 3)
	assert.Equal(t, "jobs+trainings", envelope.Get("submission.0.predicted_type").String())
	assert.Equal(t, "job_001", envelope.Get("submission.0.jobs.0.job_id").String())

	// Body remains readable after verbose logging.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Submission received"}`, string(body))

	assert.Equal(t, 1, logs.FilterMessage("server message").Len())
}

func TestSubmitNon200IsReturned(t *testing.T) {
	logs := observeLogs(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Forbidden"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, &recordingSigner{})

	resp, err := client.Submit(context.Background(), validSubmission(), SubmitOptions{Verbose: true})
	require.NoError(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, logs.FilterMessage("submission failed").Len())
}

func TestSubmitMissingCredentials(t *testing.T) {
	observeLogs(t)

	client := NewClient("https://example.invalid", NewStaticSigner("", "", "", DefaultRegion, DefaultService)).
		WithHTTPClient(failingDoer{t: t})

	resp, err := client.Submit(context.Background(), validSubmission(), SubmitOptions{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrCredentials))

	var credErr *CredentialError
	assert.True(t, errors.As(err, &credErr))

	client = NewClient("https://example.invalid", nil).WithHTTPClient(failingDoer{t: t})
	_, err = client.Submit(context.Background(), validSubmission(), SubmitOptions{})
	assert.True(t, errors.Is(err, ErrCredentials))
}

func TestSanityCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "healthy", status: http.StatusOK, want: true},
		{name: "unhealthy", status: http.StatusInternalServerError, want: false},
		{name: "forbidden", status: http.StatusForbidden, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observeLogs(t)

			var gotMethod, gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			signer := NewStaticSigner("AKIDEXAMPLE", "secret", "", DefaultRegion, DefaultService)
			client := NewClient(server.URL, signer)

			assert.Equal(t, tt.want, client.SanityCheck(context.Background()))
			assert.Equal(t, http.MethodGet, gotMethod)
			assert.Equal(t, "/health", gotPath)
		})
	}
}

func TestSanityCheckSwallowsErrors(t *testing.T) {
	logs := observeLogs(t)

	client := NewClient("https://example.invalid", NewStaticSigner("", "", "", DefaultRegion, DefaultService))
	assert.False(t, client.SanityCheck(context.Background()))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	client = NewClient(url, &recordingSigner{})
	assert.False(t, client.SanityCheck(context.Background()))

	assert.Equal(t, 2, logs.FilterMessage("connection check failed").Len())
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", nil)
	assert.Equal(t, DefaultEndpoint, client.endpoint)
	assert.NotNil(t, client.httpClient)
}
