package encoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/config"
	"github.com/bjfd0427KathleenYoung/time-lock-market/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

type encodeRequest struct {
	TargetContract string  `json:"target_contract"`
	Submitter      string  `json:"submitter"`
	Values         []Value `json:"values"`
}

type encodeResponse struct {
	Handles []string `json:"handles"`
	Proof   string   `json:"proof"`
}

type decryptRequest struct {
	Handles []string `json:"handles"`
}

type decryptResponse struct {
	Cleartext string `json:"cleartext"`
	Proof     string `json:"proof"`
}

// RemoteSDK talks to an external HE coprocessor over HTTP.
// Requests are rate limited so a burst of sessions cannot flood the service.
type RemoteSDK struct {
	log        *logrus.Entry
	httpClient *resty.Client
	limiter    ratelimit.Limiter
}

func NewRemoteSDK(config *config.Config) (self *RemoteSDK) {
	self = new(RemoteSDK)
	self.log = logger.NewSublogger("encoder-remote")
	self.httpClient = resty.New().
		SetBaseURL(config.Encoder.Url).
		SetTimeout(config.Encoder.RequestTimeout)
	self.limiter = ratelimit.New(config.Encoder.RateLimit)
	return
}

func (self *RemoteSDK) Encode(ctx context.Context, bundle Bundle) (handles []Handle, proof Proof, err error) {
	self.limiter.Take()

	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetResult(encodeResponse{}).
		ForceContentType("application/json").
		SetBody(&encodeRequest{
			TargetContract: bundle.TargetContract.Hex(),
			Submitter:      bundle.Submitter.Hex(),
			Values:         bundle.Values,
		}).
		SetHeader("Accept", "application/json").
		Post("/v1/encode")
	if err != nil {
		self.log.WithError(err).Warn("Could not reach the encoding coprocessor")
		return
	}

	if !resp.IsSuccess() {
		self.log.WithField("statusCode", resp.StatusCode()).Warn("Encode request has not been successful")
		err = fmt.Errorf("encode request failed with status %d", resp.StatusCode())
		return
	}

	out, ok := resp.Result().(*encodeResponse)
	if !ok {
		err = errors.New("failed to parse encode response")
		return
	}

	if len(out.Handles) != len(bundle.Values) {
		err = fmt.Errorf("coprocessor returned %d handles for %d values", len(out.Handles), len(bundle.Values))
		return
	}

	handles = make([]Handle, len(out.Handles))
	for i, s := range out.Handles {
		handles[i], err = ParseHandle(s)
		if err != nil {
			return nil, nil, err
		}
	}

	proof, err = ParseProof(out.Proof)
	if err != nil {
		return nil, nil, err
	}

	return
}

// RemoteOracle polls an external decryption oracle for callback payloads
type RemoteOracle struct {
	log        *logrus.Entry
	httpClient *resty.Client
	limiter    ratelimit.Limiter
}

func NewRemoteOracle(config *config.Config) (self *RemoteOracle) {
	self = new(RemoteOracle)
	self.log = logger.NewSublogger("oracle-remote")
	self.httpClient = resty.New().
		SetBaseURL(config.Oracle.Url).
		SetTimeout(config.Oracle.RequestTimeout)
	self.limiter = ratelimit.New(config.Oracle.RateLimit)
	return
}

func (self *RemoteOracle) Decrypt(ctx context.Context, handles []Handle) (cleartext []byte, proof Proof, err error) {
	self.limiter.Take()

	encoded := make([]string, len(handles))
	for i, handle := range handles {
		encoded[i] = handle.String()
	}

	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetResult(decryptResponse{}).
		ForceContentType("application/json").
		SetBody(&decryptRequest{Handles: encoded}).
		SetHeader("Accept", "application/json").
		Post("/v1/decrypt")
	if err != nil {
		self.log.WithError(err).Warn("Could not reach the decryption oracle")
		return
	}

	if !resp.IsSuccess() {
		self.log.WithField("statusCode", resp.StatusCode()).Warn("Decrypt request has not been successful")
		err = fmt.Errorf("decrypt request failed with status %d", resp.StatusCode())
		return
	}

	out, ok := resp.Result().(*decryptResponse)
	if !ok {
		err = errors.New("failed to parse decrypt response")
		return
	}

	blobProof, err := ParseProof(out.Proof)
	if err != nil {
		return
	}
	blob, err := ParseProof(out.Cleartext)
	if err != nil {
		return
	}

	return []byte(blob), blobProof, nil
}
