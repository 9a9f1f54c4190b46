package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Paths the controller serves.
const (
	APIDocsPath     = "/v3/api-docs"
	APIDocsYAMLPath = "/v3/api-docs.yaml"
	UIPath          = "/swagger"
)

// Controller serves the OpenAPI document and the Swagger UI.
type Controller struct {
	docsJSON  []byte
	docsYAML  []byte
	docs      bool
	ui        bool
	uiHandler http.Handler
}

// NewController renders spec once. The document and the UI can be switched
// off independently.
func NewController(spec *Spec, apiDocsEnabled, uiEnabled bool) (*Controller, error) {
	jsonDoc, err := spec.JSON()
	if err != nil {
		return nil, err
	}
	yamlDoc, err := spec.YAML()
	if err != nil {
		return nil, err
	}
	ui := httpSwagger.Handler(httpSwagger.URL(APIDocsPath), httpSwagger.PersistAuthorization(true))
	return &Controller{
		docsJSON:  jsonDoc,
		docsYAML:  yamlDoc,
		docs:      apiDocsEnabled,
		ui:        uiEnabled,
		uiHandler: ui,
	}, nil
}

// Register adds the enabled routes to mux.
func (c *Controller) Register(mux *http.ServeMux) {
	if c.docs {
		mux.HandleFunc("GET "+APIDocsPath, c.GetOpenAPIJSON)
		mux.HandleFunc("GET "+APIDocsYAMLPath, c.GetOpenAPIYAML)
	}
	if c.ui {
		mux.HandleFunc("GET "+UIPath, c.RedirectToIndex)
		mux.Handle("GET "+UIPath+"/", c.uiHandler)
	}
}

// GetOpenAPIJSON serves the document as JSON.
func (c *Controller) GetOpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(c.docsJSON)
}

// GetOpenAPIYAML serves the document as YAML.
func (c *Controller) GetOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(c.docsYAML)
}

// RedirectToIndex sends /swagger to the UI entry page.
func (c *Controller) RedirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, UIPath+"/index.html", http.StatusMovedPermanently)
}
