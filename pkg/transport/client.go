package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cg-gdsc/gdsc8/pkg/logger"
	"github.com/cg-gdsc/gdsc8/pkg/submission"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultEndpoint is the challenge API base URL.
	DefaultEndpoint = "https://cygeoykm2i.execute-api.us-east-1.amazonaws.com/main"
	// DefaultRegion is the region the challenge API is signed for.
	DefaultRegion = "us-east-1"
	// DefaultService is the SigV4 service name of the challenge API.
	DefaultService = "execute-api"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client submits results to the challenge API.
type Client struct {
	endpoint   string
	signer     Signer
	httpClient Doer
}

// SubmitOptions control a submission.
type SubmitOptions struct {
	// DryRun validates without signing or sending anything.
	DryRun bool
	// Verbose logs the outcome and any server message.
	Verbose bool
}

// NewClient creates a client for endpoint. No request timeout is set.
func NewClient(endpoint string, signer Signer) (client *Client) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client = &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		signer:     signer,
		httpClient: &http.Client{},
	}
	return client
}

// WithHTTPClient replaces the HTTP client used to send requests.
func (c *Client) WithHTTPClient(doer Doer) (client *Client) {
	c.httpClient = doer
	client = c
	return client
}

// Submit validates sub and, unless DryRun is set, posts it as {"submission": [...]}.
// A dry run returns a nil response. Non-200 responses are returned as-is, not as errors.
func (c *Client) Submit(ctx context.Context, sub submission.Submission, opts SubmitOptions) (resp *http.Response, err error) {
	log := logger.Get()

	err = submission.Validate(sub)
	if err != nil {
		return resp, err
	}

	if opts.DryRun {
		if opts.Verbose {
			log.Infow("dry run: submission is valid and ready to submit", "results", len(sub))
		}
		return resp, err
	}

	var payload []byte
	payload, err = json.Marshal(sub)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal submission")
		return resp, err
	}

	var body []byte
	body, err = sjson.SetRawBytes([]byte(`{}`), "submission", payload)
	if err != nil {
		err = errors.Wrap(err, "failed to build submission envelope")
		return resp, err
	}

	resp, err = c.send(ctx, http.MethodPost, c.endpoint+"/submit", body)
	if err != nil {
		return resp, err
	}

	if opts.Verbose {
		resp, err = logSubmitResponse(resp)
	}

	return resp, err
}

// SanityCheck calls the health endpoint. Any failure is logged and reported as false.
func (c *Client) SanityCheck(ctx context.Context) (ok bool) {
	log := logger.Get()

	resp, err := c.send(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		log.Errorw("connection check failed", "error", err)
		return ok
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorw("API check failed", "status", resp.StatusCode)
		return ok
	}

	log.Infow("API connection successful", "endpoint", c.endpoint)
	ok = true
	return ok
}

func (c *Client) send(ctx context.Context, method, url string, body []byte) (resp *http.Response, err error) {
	if c.signer == nil {
		err = &CredentialError{}
		return resp, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return resp, err
	}
	req.Header.Set("Content-Type", "application/json")

	err = c.signer.Sign(ctx, req, body)
	if err != nil {
		return resp, err
	}

	resp, err = c.httpClient.Do(req)
	if err != nil {
		err = errors.Wrapf(err, "%s %s failed", method, url)
		return resp, err
	}

	return resp, err
}

// logSubmitResponse logs the outcome and restores the body for the caller.
func logSubmitResponse(resp *http.Response) (restored *http.Response, err error) {
	log := logger.Get()

	var data []byte
	data, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return resp, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	restored = resp

	if resp.StatusCode != http.StatusOK {
		log.Errorw("submission failed", "status", resp.StatusCode, "response", string(data))
		return restored, err
	}

	log.Infow("submission successful", "status", resp.StatusCode)
	if msg := gjson.GetBytes(data, "message").String(); msg != "" {
		log.Infow("server message", "message", msg)
	}

	return restored, err
}
