package switchbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/pkg/errors"
)

const DefaultEndpoint = "https://api.switch-bot.com"

// APIError is returned for a non-200 HTTP response
type APIError struct {
	HTTPStatus int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("switchbot API error: HTTP status %d (%s): %s", e.HTTPStatus, http.StatusText(e.HTTPStatus), e.Body)
}

type Live struct {
	endpoint   string
	token      string
	secret     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewLiveClient(endpoint, token, secret string) *Live {
	return &Live{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		token:      token,
		secret:     secret,
		httpClient: http.DefaultClient,
	}
}

func (c *Live) WithTimeout(d time.Duration) DeviceAPI {
	nc := *c
	nc.timeout = d
	return &nc
}

func (c *Live) MakeContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	var ctx = parent
	var cancel context.CancelFunc = func() {}
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.timeout)
	}

	return ctx, cancel
}

func (c *Live) commandURL(deviceID string) string {
	return c.endpoint + "/v1.1/devices/" + deviceID + "/commands"
}

// SendCommand posts one command to a device.  Every call is signed
// independently.  A non-200 response returns an *APIError.  A 200 response
// whose body cannot be decoded is returned with a zero StatusCode.
func (c *Live) SendCommand(ctx context.Context, deviceID string, command Command) (*Response, error) {
	ctx, cancel := c.MakeContext(ctx)
	defer cancel()

	body, err := json.Marshal(command)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling command")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commandURL(deviceID), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "creating command request")
	}
	Sign(c.token, c.secret, http.MethodPost).Apply(req)

	logging.Logger(ctx).Debugf("sending command to device %s: %s", deviceID, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "executing command: %s", command)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}

	logging.Logger(ctx).Debugf("command response from device %s: HTTP %d: %s", deviceID, resp.StatusCode, respBody)

	if resp.StatusCode != http.StatusOK {
		return &Response{HTTPStatus: resp.StatusCode}, &APIError{HTTPStatus: resp.StatusCode, Body: string(respBody)}
	}

	result, err := parseResponse(resp.StatusCode, respBody)
	if err != nil {
		logging.Logger(ctx).WithError(err).Warnf("undecodable response for command %s", command)
	}

	return result, nil
}
