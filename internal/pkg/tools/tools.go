package tools

import (
	"embed"
	"encoding/json"
	"path"
	"sort"

	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
	"github.com/pkg/errors"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
)

/*
 *  Tool definitions offered to LLM clients, one per device protocol
 */

//go:embed tooldef/*.json
var definitions embed.FS

// Tool is a callable function as presented to a client
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema spec.Schema `json:"inputSchema"`

	// property names in the order they are declared
	order []string
}

// declaration keeps the property order that spec.Schema loses
type declaration struct {
	InputSchema struct {
		Properties devctl.Args `json:"properties"`
	} `json:"inputSchema"`
}

// Catalog holds the tool definitions keyed by protocol name
type Catalog struct {
	tools map[string]Tool
}

// Load reads the embedded definitions
func Load() (*Catalog, error) {
	entries, err := definitions.ReadDir("tooldef")
	if err != nil {
		return nil, errors.Wrap(err, "listing tool definitions")
	}

	c := &Catalog{tools: make(map[string]Tool, len(entries))}
	for _, e := range entries {
		data, err := definitions.ReadFile(path.Join("tooldef", e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading tool definition %s", e.Name())
		}

		var t Tool
		if err := swag.ReadJSON(data, &t); err != nil {
			return nil, errors.Wrapf(err, "decoding tool definition %s", e.Name())
		}

		var decl declaration
		if err := json.Unmarshal(data, &decl); err != nil {
			return nil, errors.Wrapf(err, "decoding tool definition %s", e.Name())
		}
		for _, prop := range decl.InputSchema.Properties {
			t.order = append(t.order, prop.Key)
		}

		c.tools[t.Name] = t
	}

	return c, nil
}

func (c *Catalog) Lookup(name string) (Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// List returns the definitions sorted by name
func (c *Catalog) List() []Tool {
	out := make([]Tool, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// ForFunctions renames the protocol definitions after the functions that
// use them.  functions maps function id to protocol name.
func (c *Catalog) ForFunctions(functions map[string]string) []Tool {
	out := make([]Tool, 0, len(functions))
	for id, protocol := range functions {
		t, ok := c.tools[protocol]
		if !ok {
			continue
		}
		t.Name = id
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Validate checks call arguments against the input schema of a protocol
func (c *Catalog) Validate(name string, args map[string]interface{}) error {
	t, ok := c.tools[name]
	if !ok {
		return errors.Errorf("no tool definition for %s", name)
	}

	if args == nil {
		args = map[string]interface{}{}
	}

	return validate.AgainstSchema(&t.InputSchema, args, strfmt.Default)
}

// OrderArgs turns decoded call arguments back into ordered arguments.
// Declared properties come first in schema order, then any others by name.
func (t Tool) OrderArgs(m map[string]interface{}) devctl.Args {
	out := make(devctl.Args, 0, len(m))
	seen := make(map[string]bool, len(m))

	for _, key := range t.order {
		if v, ok := m[key]; ok {
			out = append(out, devctl.Arg{Key: key, Value: v})
			seen[key] = true
		}
	}

	var rest []string
	for key := range m {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	for _, key := range rest {
		out = append(out, devctl.Arg{Key: key, Value: m[key]})
	}

	return out
}
