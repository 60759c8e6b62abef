// Package config loads the three runtime values spec §6.1 requires
// (service base URL, service auth token, assembly category id) from
// the environment, following the teacher pack's godotenv-then-os.Getenv
// idiom (5mehulhelp5-magento.GO/config/env.go, zayar-cashflow_backend's
// equivalent), and validates the result with go-playground/validator.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	domainerrors "github.com/vsinha/mrp/internal/domain/errors"
)

// Config is the validated runtime configuration for one process.
//
// AssemblyCategoryID is deliberately not "required": spec §6.1 only
// requires the base URL and token to start — the category merely
// bounds the out-of-scope selection UI's candidate list and is only
// ever read by the list-assemblies command. compute must run fine
// without MRP_ASSEMBLY_CATEGORY_ID set. "omitempty" enforces gt=0 only
// when a caller did set it.
type Config struct {
	BaseURL            string `validate:"required,url"`
	APIToken           string `validate:"required"`
	AssemblyCategoryID int64  `validate:"omitempty,gt=0"`
}

var validate = validator.New()

// Load reads MRP_BASE_URL, MRP_API_TOKEN, and MRP_ASSEMBLY_CATEGORY_ID
// from the environment, after attempting to load a .env file (ignored
// if absent — godotenv.Load's error is deliberately discarded here,
// same as the teacher pack). Any missing or malformed value is
// returned as a *domainerrors.ConfigurationError.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:  os.Getenv("MRP_BASE_URL"),
		APIToken: os.Getenv("MRP_API_TOKEN"),
	}

	catRaw := os.Getenv("MRP_ASSEMBLY_CATEGORY_ID")
	if catRaw != "" {
		id, err := strconv.ParseInt(catRaw, 10, 64)
		if err != nil {
			return nil, &domainerrors.ConfigurationError{
				Field:   "MRP_ASSEMBLY_CATEGORY_ID",
				Message: fmt.Sprintf("must be an integer, got %q", catRaw),
			}
		}
		cfg.AssemblyCategoryID = id
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, toConfigurationError(err)
	}
	return cfg, nil
}

// toConfigurationError maps the first validator.FieldError into the
// module's ConfigurationError, mirroring
// zayar-cashflow_backend/utils/helper.go's ProcessValidationErrors
// field/tag extraction idiom.
func toConfigurationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &domainerrors.ConfigurationError{
			Field:   fieldToEnvVar(fe.Field()),
			Message: fmt.Sprintf("failed validation: %s", fe.Tag()),
		}
	}
	return &domainerrors.ConfigurationError{Field: "unknown", Message: err.Error()}
}

func fieldToEnvVar(field string) string {
	switch field {
	case "BaseURL":
		return "MRP_BASE_URL"
	case "APIToken":
		return "MRP_API_TOKEN"
	case "AssemblyCategoryID":
		return "MRP_ASSEMBLY_CATEGORY_ID"
	default:
		return field
	}
}
