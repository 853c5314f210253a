package webpush

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Outcome classifies one delivery attempt.
type Outcome int

const (
	// OutcomeSent: the push service accepted the message (200/201).
	OutcomeSent Outcome = iota
	// OutcomeExpired: the endpoint is permanently gone (404/410). This is
	// the expected end-of-life signal and should trigger subscription
	// deletion.
	OutcomeExpired
	// OutcomeTransient: network error or unexpected status. No retry
	// within the run; the next tick is the retry mechanism.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeExpired:
		return "subscription-expired"
	default:
		return "transient-error"
	}
}

// Request is one fully prepared push message.
type Request struct {
	Endpoint      string
	Authorization string
	TTL           int // seconds the push service may hold the message
	Urgency       string
	Body          []byte // aes128gcm-framed ciphertext
}

// Transport posts encrypted messages to push services. Each attempt is
// bounded by the client timeout so a stuck send cannot stall the batch.
type Transport struct {
	client *http.Client
}

// NewTransport creates a Transport with a per-request timeout.
func NewTransport(timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Transport{client: &http.Client{Timeout: timeout}}
}

// Send delivers one message and classifies the response.
func (t *Transport) Send(ctx context.Context, req Request) (Outcome, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return OutcomeTransient, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Content-Encoding", "aes128gcm")
	httpReq.Header.Set("TTL", strconv.Itoa(req.TTL))
	httpReq.Header.Set("Authorization", req.Authorization)
	if req.Urgency != "" {
		httpReq.Header.Set("Urgency", req.Urgency)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return OutcomeTransient, fmt.Errorf("post to push service: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return OutcomeSent, nil
	case http.StatusNotFound, http.StatusGone:
		return OutcomeExpired, nil
	default:
		return OutcomeTransient, fmt.Errorf("push service returned %d", resp.StatusCode)
	}
}
