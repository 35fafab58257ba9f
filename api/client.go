package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jmorganca/subword/envconfig"
)

type Client struct {
	base *url.URL
	http *http.Client
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{base: base, http: http}
}

func ClientFromEnvironment() (*Client, error) {
	envconfig.LoadConfig()

	base, err := url.Parse(envconfig.Host.String())
	if err != nil {
		return nil, err
	}

	return &Client{base: base, http: http.DefaultClient}, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	if reqData != nil {
		bts, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(bts)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= http.StatusBadRequest {
		return statusError(response, body)
	}

	if respData != nil {
		return json.Unmarshal(body, respData)
	}

	return nil
}

func statusError(response *http.Response, body []byte) error {
	var errorResponse struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errorResponse); err != nil || errorResponse.Error == "" {
		errorResponse.Error = string(bytes.TrimSpace(body))
	}

	return StatusError{
		StatusCode:   response.StatusCode,
		Status:       response.Status,
		ErrorMessage: errorResponse.Error,
	}
}

const maxBufferSize = 512 * 1000

func (c *Client) stream(ctx context.Context, method, path string, data any, fn func([]byte) error) error {
	bts, err := json.Marshal(data)
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), bytes.NewReader(bts))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/x-ndjson")

	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(response.Body)
		return statusError(response, body)
	}

	scanner := bufio.NewScanner(response.Body)
	scanner.Buffer(make([]byte, 0, maxBufferSize), 64*maxBufferSize)
	for scanner.Scan() {
		var errorResponse struct {
			Error string `json:"error,omitempty"`
		}

		bts := scanner.Bytes()
		if err := json.Unmarshal(bts, &errorResponse); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}

		if errorResponse.Error != "" {
			return StatusError{StatusCode: response.StatusCode, ErrorMessage: errorResponse.Error}
		}

		if err := fn(bts); err != nil {
			return err
		}
	}

	return scanner.Err()
}

type TrainResponseFunc func(TrainResponse) error

// Train learns merges on the server, calling fn for every streamed response.
// The trained model becomes the server's active model.
func (c *Client) Train(ctx context.Context, req *TrainRequest, fn TrainResponseFunc) error {
	return c.stream(ctx, http.MethodPost, "/api/train", req, func(bts []byte) error {
		var resp TrainResponse
		if err := json.Unmarshal(bts, &resp); err != nil {
			return err
		}

		return fn(resp)
	})
}

func (c *Client) Segment(ctx context.Context, req *SegmentRequest) (*SegmentResponse, error) {
	var resp SegmentResponse
	if err := c.do(ctx, http.MethodPost, "/api/segment", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) Merges(ctx context.Context) (*MergesResponse, error) {
	var resp MergesResponse
	if err := c.do(ctx, http.MethodGet, "/api/merges", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}
