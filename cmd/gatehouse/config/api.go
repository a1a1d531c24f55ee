package config

// apiConf holds API-related configuration
type apiConf struct {
	// PublicURL is announced as server in the served OpenAPI document
	PublicURL string `yaml:"public_url"`
	// Docs enables serving the OpenAPI document and the docs page
	Docs bool `yaml:"docs"`
	// Metrics enables the prometheus metrics endpoint
	Metrics bool `yaml:"metrics"`
}

var defaultAPIConf = apiConf{
	Docs:    true,
	Metrics: true,
}
