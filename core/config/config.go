package config

import (
	_ "embed"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

// ConfigurationName is the file name looked up inside the config directory.
const ConfigurationName = "config.yaml"

// Configuration holds the operator-tunable settings of the shell. Every
// field has a built-in default matching the paths the shell shipped with,
// so a missing config file is not an error.
type Configuration struct {
	// ServiceName is the unit managed by start/stop/restart/status.
	ServiceName string `json:"service_name" validate:"required"`

	// Prompt is printed before each input line.
	Prompt string `json:"prompt" validate:"required"`

	// HistoryFile enables persistent readline history when non-empty.
	HistoryFile string `json:"history_file"`

	// AuditLog appends one JSON object per dispatched line when non-empty.
	AuditLog string `json:"audit_log"`

	Tools Tools `json:"tools"`
}

// Tools names the external programs and scripts the shell is allowed to
// invoke. Paths are fixed per install; user input never replaces them.
type Tools struct {
	Python         string `json:"python" validate:"required"`
	Shell          string `json:"shell" validate:"required"`
	Log            string `json:"log" validate:"required"`
	Config         string `json:"config" validate:"required"`
	Backup         string `json:"backup" validate:"required"`
	Restore        string `json:"restore" validate:"required"`
	Update         string `json:"update" validate:"required"`
	Editor         string `json:"editor" validate:"required"`
	Elevate        string `json:"elevate" validate:"required"`
	ServiceManager string `json:"service_manager" validate:"required"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Default returns the built-in configuration.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
