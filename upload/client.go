package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/metrics"
	"github.com/indieinfra/hydrogen/shopify"
)

// ResourceType mirrors the platform's staged upload / file content type enum.
type ResourceType string

const (
	ResourceFile  ResourceType = "FILE"
	ResourceImage ResourceType = "IMAGE"
)

// Handle is the durable identifier of a registered remote file, e.g. gid://shopify/MediaImage/99.
type Handle string

func (h Handle) String() string { return string(h) }

type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedTarget is a short-lived destination for raw bytes, issued by the platform.
type StagedTarget struct {
	URL         string      `json:"url"`
	ResourceURL string      `json:"resourceUrl"`
	Parameters  []Parameter `json:"parameters"`
}

const stagedUploadsCreateMutation = `mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      resourceUrl
      url
      parameters {
        name
        value
      }
    }
    userErrors {
      field
      message
    }
  }
}`

const fileCreateMutation = `mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      alt
      fileStatus
      createdAt
      ... on GenericFile {
        id
      }
      ... on MediaImage {
        id
      }
      ... on Video {
        id
      }
    }
    userErrors {
      field
      message
    }
  }
}`

// Client moves files into the platform's storage: stage, transfer, register.
type Client struct {
	gateway  shopify.Gateway
	transfer *resty.Client
	logger   zerolog.Logger
}

type Option func(*Client)

// WithTransferClient replaces the HTTP client used to post bytes to staged targets.
func WithTransferClient(rc *resty.Client) Option {
	return func(c *Client) { c.transfer = rc }
}

func WithTransferTimeout(d time.Duration) Option {
	return func(c *Client) { c.transfer.SetTimeout(d) }
}

func NewClient(gateway shopify.Gateway, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		gateway:  gateway,
		transfer: resty.New().SetRetryCount(0),
		logger:   logger.With().Str("component", "upload").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Upload places content into remote storage under filename and returns the handle of
// the registered file. Every call creates a new remote file.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (Handle, error) {
	contentType := DetectContentType(filename)
	kind := ResourceFile
	if IsImage(contentType) {
		kind = ResourceImage
	}

	log := c.logger.With().Str("filename", filename).Str("content_type", contentType).Logger()

	target, err := c.stage(ctx, filename, contentType)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(string(kind), "staging_error").Inc()
		log.Error().Err(err).Msg("staged upload request failed")
		return "", err
	}

	n, err := c.send(ctx, target, filename, contentType, content)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(string(kind), "transfer_error").Inc()
		log.Error().Err(err).Msg("transfer to staged target failed")
		return "", err
	}
	metrics.UploadBytesTotal.Add(float64(n))

	handle, err := c.register(ctx, target.ResourceURL, kind)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(string(kind), "registration_error").Inc()
		log.Error().Err(err).Msg("file registration failed")
		return "", err
	}

	metrics.UploadsTotal.WithLabelValues(string(kind), "ok").Inc()
	log.Info().Str("handle", handle.String()).Int64("bytes", n).Msg("file uploaded")

	return handle, nil
}

func (c *Client) stage(ctx context.Context, filename, contentType string) (*StagedTarget, error) {
	variables := map[string]any{
		"input": []map[string]any{
			{
				"filename":   filename,
				"mimeType":   contentType,
				"httpMethod": http.MethodPost,
				// Always FILE: staging as IMAGE makes the later fileCreate call fail.
				"resource": string(ResourceFile),
			},
		},
	}

	status, body, err := c.gateway.Execute(ctx, stagedUploadsCreateMutation, variables)
	if err != nil {
		return nil, &StagingError{Filename: filename, Err: err}
	}
	if status != http.StatusOK {
		return nil, &StagingError{Filename: filename, StatusCode: status}
	}

	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []StagedTarget      `json:"stagedTargets"`
			UserErrors    []shopify.UserError `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := shopify.DecodeData(body, &data); err != nil {
		return nil, &StagingError{Filename: filename, StatusCode: status, Err: err}
	}

	result := data.StagedUploadsCreate
	if len(result.UserErrors) > 0 {
		return nil, &StagingError{Filename: filename, StatusCode: status, UserErrors: result.UserErrors}
	}
	if len(result.StagedTargets) == 0 {
		return nil, &StagingError{Filename: filename, StatusCode: status, Err: fmt.Errorf("no staged targets returned")}
	}

	target := result.StagedTargets[0]
	if strings.TrimSpace(target.URL) == "" || strings.TrimSpace(target.ResourceURL) == "" {
		return nil, &StagingError{Filename: filename, StatusCode: status, Err: fmt.Errorf("staged target is missing url or resourceUrl")}
	}

	return &target, nil
}

// send posts the staged parameters, unmodified and in order, followed by the file part.
func (c *Client) send(ctx context.Context, target *StagedTarget, filename, contentType string, content io.Reader) (int64, error) {
	counter := &countingReader{r: content}

	fields := make([]*resty.MultipartField, 0, len(target.Parameters)+1)
	for _, p := range target.Parameters {
		fields = append(fields, &resty.MultipartField{
			Param:  p.Name,
			Reader: strings.NewReader(p.Value),
		})
	}
	fields = append(fields, &resty.MultipartField{
		Param:       "file",
		FileName:    filename,
		ContentType: contentType,
		Reader:      counter,
	})

	resp, err := c.transfer.R().
		SetContext(ctx).
		SetMultipartFields(fields...).
		Post(target.URL)
	if err != nil {
		return counter.n, &TransferError{URL: target.URL, Err: err}
	}
	if !resp.IsSuccess() {
		return counter.n, &TransferError{URL: target.URL, StatusCode: resp.StatusCode()}
	}

	return counter.n, nil
}

func (c *Client) register(ctx context.Context, resourceURL string, kind ResourceType) (Handle, error) {
	variables := map[string]any{
		"files": []map[string]any{
			{
				"contentType":    string(kind),
				"originalSource": resourceURL,
			},
		},
	}

	status, body, err := c.gateway.Execute(ctx, fileCreateMutation, variables)
	if err != nil {
		return "", &RegistrationError{ResourceURL: resourceURL, Err: err}
	}
	if status != http.StatusOK {
		return "", &RegistrationError{ResourceURL: resourceURL, StatusCode: status}
	}

	var data struct {
		FileCreate struct {
			Files []struct {
				ID string `json:"id"`
			} `json:"files"`
			UserErrors []shopify.UserError `json:"userErrors"`
		} `json:"fileCreate"`
	}
	if err := shopify.DecodeData(body, &data); err != nil {
		return "", &RegistrationError{ResourceURL: resourceURL, StatusCode: status, Err: err}
	}

	result := data.FileCreate
	if len(result.UserErrors) > 0 {
		return "", &RegistrationError{ResourceURL: resourceURL, StatusCode: status, UserErrors: result.UserErrors}
	}
	if len(result.Files) == 0 || result.Files[0].ID == "" {
		return "", &RegistrationError{ResourceURL: resourceURL, StatusCode: status, Err: fmt.Errorf("no file returned")}
	}

	return Handle(result.Files[0].ID), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
