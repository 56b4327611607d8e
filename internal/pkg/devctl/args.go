package devctl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Selector argument names.  Any other argument carries the command payload.
const (
	KeyCommandType   = "commandType"
	KeyCommandTarget = "commandTarget"
)

// Arg is a single named argument of a tool call
type Arg struct {
	Key   string
	Value interface{}
}

// Args is a tool call argument object that remembers the order in which the
// caller supplied its keys
type Args []Arg

// With returns a copy of the arguments with key set to value.  An existing
// key keeps its position and takes the new value; later duplicates are
// dropped.  A new key is appended.
func (a Args) With(key string, value interface{}) Args {
	out := make(Args, 0, len(a)+1)
	replaced := false

	for _, arg := range a {
		if arg.Key != key {
			out = append(out, arg)
			continue
		}
		if !replaced {
			out = append(out, Arg{Key: key, Value: value})
			replaced = true
		}
	}

	if !replaced {
		out = append(out, Arg{Key: key, Value: value})
	}

	return out
}

// Map flattens the arguments for schema validation.  JSON numbers become
// float64.
func (a Args) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(a))
	for _, arg := range a {
		m[arg.Key] = plainValue(arg.Value)
	}

	return m
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = plainValue(e)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(t))
		for i, e := range t {
			l[i] = plainValue(e)
		}
		return l
	}

	return v
}

// UnmarshalJSON decodes a JSON object keeping its key order.  null decodes
// to an empty argument list.
func (a *Args) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "reading arguments")
	}

	if tok == nil {
		*a = nil
		return nil
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("arguments must be a JSON object, got %v", tok)
	}

	args := Args{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "reading argument name")
		}

		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected argument name, got %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "reading argument %s", key)
		}

		args = append(args, Arg{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return errors.Wrap(err, "reading end of arguments")
	}

	*a = args
	return nil
}

// MarshalJSON encodes the arguments as an object in their original order
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, arg := range a {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(arg.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(arg.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding argument %s", arg.Key)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Normalize collapses tool call arguments into the canonical command.
//
// commandType and commandTarget are taken by name.  Tool schemas give the
// payload a descriptive per-tool name (commandOfTempset, commandTurning, ..)
// so the value of the first remaining argument is the payload, whatever it is
// called.
func Normalize(args Args) (Command, error) {
	var cmd Command
	havePayload := false

	for _, arg := range args {
		switch arg.Key {
		case KeyCommandType:
			s, ok := arg.Value.(string)
			if !ok {
				return Command{}, fmt.Errorf("%s: expected string, got %T", KeyCommandType, arg.Value)
			}
			cmd.Type = s
		case KeyCommandTarget:
			s, ok := arg.Value.(string)
			if !ok {
				return Command{}, fmt.Errorf("%s: expected string, got %T", KeyCommandTarget, arg.Value)
			}
			cmd.Target = s
		default:
			if havePayload {
				continue
			}
			havePayload = true

			p, err := newPayload(arg.Value)
			if err != nil {
				return Command{}, errors.Wrap(err, arg.Key)
			}
			cmd.Payload = p
		}
	}

	return cmd, nil
}
