package swagger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	mediaTypeJSON = "application/json"
	bearerScheme  = "Bearer"
)

// Example is an OpenAPI example object. Value is a YAML node so structured
// bodies are embedded as objects rather than strings.
type Example struct {
	Description string
	Value       *yaml.Node
}

// Spec is an OpenAPI document kept as a YAML node tree so unknown fields and
// key order survive editing.
type Spec struct {
	root *yaml.Node
}

// ParseSpec parses a YAML or JSON OpenAPI document.
func ParseSpec(data []byte) (*Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("openapi document must be a mapping")
	}
	return &Spec{root: doc.Content[0]}, nil
}

// NewSpec returns an empty OpenAPI 3 document.
func NewSpec() *Spec {
	root := mappingNode()
	setKey(root, "openapi", stringNode("3.0.1"))
	setKey(root, "paths", mappingNode())
	return &Spec{root: root}
}

// RequestBodyContent returns the JSON media-type node of the POST request
// body for path.
func (s *Spec) RequestBodyContent(path string) (*yaml.Node, bool) {
	n := lookup(s.root, "paths", path, "post", "requestBody", "content", mediaTypeJSON)
	return n, n != nil && n.Kind == yaml.MappingNode
}

// ResponseBodyContent returns the JSON media-type node of the POST response
// with the given status code for path.
func (s *Spec) ResponseBodyContent(path, code string) (*yaml.Node, bool) {
	n := lookup(s.root, "paths", path, "post", "responses", code, "content", mediaTypeJSON)
	return n, n != nil && n.Kind == yaml.MappingNode
}

// AddExample stores ex under content.examples.name, replacing any example
// with the same name.
func AddExample(content *yaml.Node, name string, ex Example) {
	examples := ensureMapping(content, "examples")
	node := mappingNode()
	setKey(node, "description", stringNode(ex.Description))
	value := ex.Value
	if value == nil {
		value = stringNode("")
	}
	setKey(node, "value", value)
	setKey(examples, name, node)
}

// ApplyInfo sets the document info from props and declares the bearer
// Authorization header as the global security requirement.
func (s *Spec) ApplyInfo(props Properties) {
	info := mappingNode()
	setKey(info, "title", stringNode(props.Title))
	if props.Description != "" {
		setKey(info, "description", stringNode(props.Description))
	}
	if props.TermsOfServiceURL != "" {
		setKey(info, "termsOfService", stringNode(props.TermsOfServiceURL))
	}
	if contact := optionalMapping(
		"name", props.ContactName,
		"url", props.ContactURL,
		"email", props.ContactEmail,
	); contact != nil {
		setKey(info, "contact", contact)
	}
	if license := optionalMapping("name", props.License, "url", props.LicenseURL); license != nil {
		setKey(info, "license", license)
	}
	setKey(info, "version", stringNode(props.Version))
	setKey(s.root, "info", info)

	scheme := mappingNode()
	setKey(scheme, "type", stringNode("apiKey"))
	setKey(scheme, "name", stringNode("Authorization"))
	setKey(scheme, "in", stringNode("header"))
	setKey(scheme, "bearerFormat", stringNode("JWT"))
	schemes := ensureMapping(ensureMapping(s.root, "components"), "securitySchemes")
	setKey(schemes, bearerScheme, scheme)

	requirement := mappingNode()
	setKey(requirement, bearerScheme, &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle})
	setKey(s.root, "security", &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: []*yaml.Node{requirement}})
}

// YAML encodes the document as YAML.
func (s *Spec) YAML() ([]byte, error) {
	return yaml.Marshal(s.root)
}

// JSON encodes the document as JSON.
func (s *Spec) JSON() ([]byte, error) {
	v, err := nodeValue(s.root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// nodeValue converts a node to plain Go values with string map keys, which
// yaml.v3 does not guarantee for keys such as response codes.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func lookup(n *yaml.Node, keys ...string) *yaml.Node {
	for _, k := range keys {
		if n == nil {
			return nil
		}
		n = getKey(n, k)
	}
	return n
}

func getKey(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setKey(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, keyNode(key), value)
}

func ensureMapping(m *yaml.Node, key string) *yaml.Node {
	if n := getKey(m, key); n != nil && n.Kind == yaml.MappingNode {
		return n
	}
	n := mappingNode()
	setKey(m, key, n)
	return n
}

func optionalMapping(kv ...string) *yaml.Node {
	var m *yaml.Node
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			continue
		}
		if m == nil {
			m = mappingNode()
		}
		setKey(m, kv[i], stringNode(kv[i+1]))
	}
	return m
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func stringNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// keyNode quotes numeric keys so response codes stay strings.
func keyNode(key string) *yaml.Node {
	n := stringNode(key)
	if _, err := strconv.Atoi(key); err == nil {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}
