package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Validator is implemented by configs that check their own values.
type Validator interface {
	Validate() error
}

// Load reads the yaml file at path into config and validates it when
// config implements Validator.
func Load(path string, config interface{}) error {
	if path == "" {
		return errors.New("please setup the config file path")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "fail to open config file")
	}

	if err := yaml.UnmarshalStrict(raw, config); err != nil {
		return errors.Wrap(err, "fail to parse config file")
	}

	if v, ok := config.(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, "invalid config")
		}
	}

	return nil
}
