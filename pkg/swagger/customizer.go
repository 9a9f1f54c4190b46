package swagger

import (
	"io/fs"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	successCode = "200"
	failCode    = "400"
)

// Customizer injects the examples configured in Props into a Spec, reading
// example bodies and descriptions from Resources.
type Customizer struct {
	Props     Properties
	Resources fs.FS
	Logger    *slog.Logger
}

// Customize applies the document info and every configured example to spec.
// Endpoints or responses missing from spec are skipped.
func (c Customizer) Customize(spec *Spec) {
	spec.ApplyInfo(c.Props)

	for _, sample := range c.Props.DocumentSamples {
		ep := sample.Endpoint
		request, hasRequest := spec.RequestBodyContent(ep)
		success, hasSuccess := spec.ResponseBodyContent(ep, successCode)
		fail, hasFail := spec.ResponseBodyContent(ep, failCode)
		if !hasRequest && !hasSuccess && !hasFail {
			c.logger().Warn("swagger endpoint not documented", "endpoint", ep)
			continue
		}
		for _, name := range slices.Sorted(maps.Keys(sample.DocumentMap)) {
			doc := sample.DocumentMap[name]
			if hasRequest {
				c.add(request, name, doc.Request, doc.RequestDescription)
			}
			if hasSuccess {
				c.add(success, name, doc.SuccessResponse, doc.SuccessResponseDescription)
			}
			if hasFail {
				c.add(fail, name, doc.FailResponse, doc.FailResponseDescription)
			}
		}
	}
}

func (c Customizer) add(content *yaml.Node, name, body, description string) {
	AddExample(content, name, Example{
		Description: c.describe(description),
		Value:       exampleValue(ReadResource(c.Resources, body)),
	})
}

func (c Customizer) describe(description string) string {
	if description == "" {
		return ""
	}
	if text, ok := readResource(c.Resources, description); ok {
		return text
	}
	return description
}

func (c Customizer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ReadResource returns the content of path in fsys, or "" when it cannot be
// read. A "classpath:" prefix and leading slashes are ignored.
func ReadResource(fsys fs.FS, path string) string {
	text, _ := readResource(fsys, path)
	return text
}

func readResource(fsys fs.FS, path string) (string, bool) {
	if fsys == nil {
		return "", false
	}
	path = strings.TrimPrefix(path, "classpath:")
	path = strings.TrimLeft(path, "/")
	if path == "" || !fs.ValidPath(path) {
		return "", false
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// exampleValue embeds structured bodies as nodes and keeps anything else as
// a plain string.
func exampleValue(text string) *yaml.Node {
	var doc yaml.Node
	if strings.TrimSpace(text) != "" && yaml.Unmarshal([]byte(text), &doc) == nil && len(doc.Content) == 1 {
		if n := doc.Content[0]; n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
			return n
		}
	}
	return stringNode(text)
}
