package switchbot

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StatusCodeSuccess is the vendor statusCode of a confirmed operation
const StatusCodeSuccess = 100

// Response is a decoded command response
type Response struct {
	HTTPStatus int
	StatusCode int
	Message    string

	// nil when the device does not report its state
	Status *DeviceStatus
}

// Confirmed is true when the vendor acknowledged the command
func (r *Response) Confirmed() bool {
	return r != nil && r.StatusCode == StatusCodeSuccess
}

// DeviceStatus is the state an infrared air conditioner reports back
// after turnOn
type DeviceStatus struct {
	Mode        string
	Temperature float64
}

// TemperatureString renders the temperature without a trailing ".0"
func (s DeviceStatus) TemperatureString() string {
	return FormatTemperature(s.Temperature)
}

// FormatTemperature renders 27 as "27" and 26.5 as "26.5"
func FormatTemperature(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

/*
  Response format:

{
	"statusCode": 100,
	"body": {
		"items": [
			{
				"deviceID": "02-202008110034-13",
				"code": 100,
				"status": { "isOn": true, "mode": 2, "temperature": 26, "fanSpeed": 1 },
				"message": "success"
			}
		]
	},
	"message": "success"
}
*/

type commandResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Body       struct {
		Items []struct {
			Status json.RawMessage `json:"status"`
		} `json:"items"`
	} `json:"body"`
}

type deviceStatus struct {
	Mode        json.RawMessage `json:"mode"`
	Temperature json.RawMessage `json:"temperature"`
}

func parseResponse(httpStatus int, data []byte) (*Response, error) {
	resp := &Response{HTTPStatus: httpStatus}

	if len(bytes.TrimSpace(data)) == 0 {
		return resp, nil
	}

	var cr commandResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return resp, errors.Wrap(err, "decoding command response")
	}

	resp.StatusCode = cr.StatusCode
	resp.Message = cr.Message

	if len(cr.Body.Items) == 0 {
		return resp, nil
	}

	raw := cr.Body.Items[0].Status
	if len(raw) == 0 || string(raw) == "null" {
		return resp, nil
	}

	var ds deviceStatus
	if err := json.Unmarshal(raw, &ds); err != nil {
		return resp, errors.Wrap(err, "decoding device status")
	}

	temp, err := rawNumber(ds.Temperature)
	if err != nil {
		return resp, errors.Wrap(err, "decoding device temperature")
	}

	resp.Status = &DeviceStatus{
		Mode:        rawString(ds.Mode),
		Temperature: temp,
	}

	return resp, nil
}

// mode may be reported as 2 or "2"
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return strings.TrimSpace(string(raw))
}

func rawNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}

	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
