package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/sse"
)

const StreamPath = "/api/diagnosis/v1/stream"

// Client streams diagnoses from a running server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) {
		c.Token = token
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.HTTP = h
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{}, // no timeout, streams are long lived
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EventHandler is called for every decoded event with the state after it.
type EventHandler func(ev diagnosis.Event, state sse.State)

type errorEnvelope struct {
	Message string `json:"message"`
}

// Diagnose posts imageURL and folds the stream until the sentinel, the end of
// the body or ctx cancellation. Frames that fail to decode are skipped; their
// errors are returned together with the final state.
func (c *Client) Diagnose(ctx context.Context, imageURL string, onEvent EventHandler) (sse.State, error) {
	body, err := json.Marshal(map[string]string{"imageUrl": imageURL})
	if err != nil {
		return sse.State{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+StreamPath, bytes.NewReader(body))
	if err != nil {
		return sse.State{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return sse.State{}, fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Message != "" {
			return sse.State{}, fmt.Errorf("server error (status %d): %s", resp.StatusCode, env.Message)
		}
		return sse.State{}, fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(raw))
	}

	reducer := sse.NewReducer()
	var decodeErrs []error
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			events, err := reducer.Feed(buf[:n])
			if err != nil {
				decodeErrs = append(decodeErrs, err)
			}
			for _, ev := range events {
				if onEvent != nil {
					onEvent(ev, reducer.State())
				}
			}
			if reducer.State().Done {
				break
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return reducer.State(), fmt.Errorf("read stream: %w", readErr)
		}
	}

	state := reducer.State()
	if !state.Done {
		decodeErrs = append(decodeErrs, errors.New("stream ended before the sentinel"))
	}
	return state, errors.Join(decodeErrs...)
}
