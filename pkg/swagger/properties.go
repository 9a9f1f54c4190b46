// Package swagger serves an OpenAPI document enriched with request and
// response examples read from resource files, together with the Swagger UI.
package swagger

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"libcommon/pkg/binding"
)

// Properties describes the API and the examples to inject.
type Properties struct {
	Title             string           `yaml:"title"`
	Description       string           `yaml:"description"`
	Version           string           `yaml:"version"`
	TermsOfServiceURL string           `yaml:"termsOfServiceUrl"`
	ContactName       string           `yaml:"contactName"`
	ContactURL        string           `yaml:"contactUrl"`
	ContactEmail      string           `yaml:"contactEmail"`
	License           string           `yaml:"license"`
	LicenseURL        string           `yaml:"licenseUrl"`
	DocumentSamples   []DocumentSample `yaml:"documentSamples" validate:"dive"`
}

// DocumentSample attaches named example sets to one endpoint.
type DocumentSample struct {
	Endpoint    string              `yaml:"endpoint" validate:"required"`
	DocumentMap map[string]Document `yaml:"documentMap" validate:"required,min=1"`
}

// Document holds resource paths for one named example. Descriptions are
// resource paths too; when no such resource exists the text itself is used.
type Document struct {
	Request                    string `yaml:"request"`
	RequestDescription         string `yaml:"requestDescription"`
	SuccessResponse            string `yaml:"successResponse"`
	SuccessResponseDescription string `yaml:"successResponseDescription"`
	FailResponse               string `yaml:"failResponse"`
	FailResponseDescription    string `yaml:"failResponseDescription"`
}

// DefaultProperties returns the defaults used for unset fields.
func DefaultProperties() Properties {
	return Properties{
		Title:       "API",
		Description: "API Documentation",
		Version:     "1.0.0",
	}
}

// LoadProperties reads the `swagger` section of a YAML document over the
// defaults and validates the document samples.
func LoadProperties(r io.Reader) (Properties, error) {
	doc := struct {
		Swagger Properties `yaml:"swagger"`
	}{Swagger: DefaultProperties()}

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return Properties{}, fmt.Errorf("failed to decode swagger properties: %w", err)
	}
	if err := binding.Validate(doc.Swagger); err != nil {
		return Properties{}, fmt.Errorf("invalid swagger properties: %w", err)
	}
	return doc.Swagger, nil
}

// LoadPropertiesFile reads properties from path. An empty path yields the
// defaults.
func LoadPropertiesFile(path string) (Properties, error) {
	if path == "" {
		return DefaultProperties(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Properties{}, fmt.Errorf("failed to open swagger properties: %w", err)
	}
	defer f.Close()
	return LoadProperties(f)
}
