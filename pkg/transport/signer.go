package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/pkg/errors"
)

// ErrCredentials matches every CredentialError via errors.Is.
//
//nolint:gochecknoglobals // Sentinel error
var ErrCredentials = errors.New("AWS credentials not found")

// CredentialError reports that no usable credentials could be resolved.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() (msg string) {
	msg = ErrCredentials.Error() + ". Check your ~/.aws/credentials"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is lets errors.Is(err, ErrCredentials) match any CredentialError.
func (e *CredentialError) Is(target error) (ok bool) {
	ok = target == ErrCredentials
	return ok
}

// Unwrap returns the resolution failure.
func (e *CredentialError) Unwrap() (err error) {
	err = e.Err
	return err
}

// Signer authenticates an outgoing request. body is the exact payload the request carries.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, body []byte) error
}

// SigV4Signer signs requests with AWS Signature Version 4.
type SigV4Signer struct {
	provider aws.CredentialsProvider
	signer   *v4.Signer
	region   string
	service  string
	now      func() time.Time
}

// NewSigV4Signer resolves credentials from the ambient AWS configuration chain
// (environment, shared config and credentials files, instance roles).
func NewSigV4Signer(ctx context.Context, region, service string) (signer *SigV4Signer, err error) {
	var cfg aws.Config
	cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		err = errors.Wrap(err, "failed to load AWS configuration")
		return signer, err
	}

	signer = newSigV4Signer(cfg.Credentials, region, service)
	return signer, err
}

// NewStaticSigner signs with fixed credentials.
func NewStaticSigner(accessKeyID, secretAccessKey, sessionToken, region, service string) (signer *SigV4Signer) {
	provider := credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	signer = newSigV4Signer(provider, region, service)
	return signer
}

func newSigV4Signer(provider aws.CredentialsProvider, region, service string) (signer *SigV4Signer) {
	signer = &SigV4Signer{
		provider: provider,
		signer:   v4.NewSigner(),
		region:   region,
		service:  service,
		now:      time.Now,
	}
	return signer
}

// Sign resolves credentials and adds the SigV4 headers to req.
func (s *SigV4Signer) Sign(ctx context.Context, req *http.Request, body []byte) (err error) {
	if s.provider == nil {
		err = &CredentialError{}
		return err
	}

	var creds aws.Credentials
	creds, err = s.provider.Retrieve(ctx)
	if err != nil {
		err = &CredentialError{Err: err}
		return err
	}
	if !creds.HasKeys() {
		err = &CredentialError{}
		return err
	}

	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])

	err = s.signer.SignHTTP(ctx, creds, req, payloadHash, s.service, s.region, s.now())
	if err != nil {
		err = errors.Wrap(err, "failed to sign request")
		return err
	}

	return err
}
