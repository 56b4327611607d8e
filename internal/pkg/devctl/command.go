package devctl

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadString
	payloadNumber
)

// Payload is the single value a command carries: nothing, a string or a
// number
type Payload struct {
	kind   payloadKind
	text   string
	number float64
}

func StringPayload(s string) Payload {
	return Payload{kind: payloadString, text: s}
}

func NumberPayload(n float64) Payload {
	return Payload{kind: payloadNumber, number: n}
}

func newPayload(v interface{}) (Payload, error) {
	switch t := v.(type) {
	case string:
		return StringPayload(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Payload{}, fmt.Errorf("expected string or number, got %q", t.String())
		}
		return NumberPayload(f), nil
	case float64:
		return NumberPayload(t), nil
	case float32:
		return NumberPayload(float64(t)), nil
	case int:
		return NumberPayload(float64(t)), nil
	case int32:
		return NumberPayload(float64(t)), nil
	case int64:
		return NumberPayload(float64(t)), nil
	}

	return Payload{}, fmt.Errorf("expected string or number, got %T", v)
}

func (p Payload) IsSet() bool {
	return p.kind != payloadNone
}

// Text returns the payload if it is a string
func (p Payload) Text() (string, bool) {
	return p.text, p.kind == payloadString
}

// Int returns the payload if it is a whole number
func (p Payload) Int() (int, bool) {
	if p.kind != payloadNumber || p.number != math.Trunc(p.number) || math.IsInf(p.number, 0) {
		return 0, false
	}

	return int(p.number), true
}

func (p Payload) String() string {
	switch p.kind {
	case payloadString:
		return p.text
	case payloadNumber:
		return strconv.FormatFloat(p.number, 'f', -1, 64)
	}

	return "<none>"
}

// Command is the canonical form of a tool call.  Empty Type or Target means
// the selector was not supplied.
type Command struct {
	Type    string
	Target  string
	Payload Payload
}

func (c Command) String() string {
	return fmt.Sprintf("{commandType: %q, commandTarget: %q, command: %s}", c.Type, c.Target, c.Payload)
}
