package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sink names accepted by Options.
const (
	SinkCSV         = "csv"
	SinkPostgres    = "postgres"
	SinkObjectStore = "objectstore"
)

var validate = validator.New()

// Options describes one scrape invocation.
type Options struct {
	APIURL      string            `validate:"required,url"`
	Params      map[string]string `validate:"omitempty,dive,keys,required,endkeys"`
	Timeout     time.Duration     `validate:"gt=0"`
	Sinks       []string          `validate:"required,min=1,unique,dive,oneof=csv postgres objectstore"`
	CSVPath     string
	PostgresDSN string
	Bucket      string
}

// Validate checks field rules first and then the settings each selected sink needs.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	for _, sink := range o.Sinks {
		switch sink {
		case SinkCSV:
			if strings.TrimSpace(o.CSVPath) == "" {
				return errors.New("csv sink needs an output path")
			}
		case SinkPostgres:
			if strings.TrimSpace(o.PostgresDSN) == "" {
				return errors.New("postgres sink needs a dsn")
			}
		case SinkObjectStore:
			if strings.TrimSpace(o.Bucket) == "" {
				return errors.New("objectstore sink needs a bucket")
			}
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must not repeat", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
