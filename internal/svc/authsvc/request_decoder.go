package authsvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/todo-auth/internal/domain"
)

// maxBodySize limits request bodies to 1 MiB.
const maxBodySize = 1 << 20

//nolint:gochecknoglobals
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}

		return name
	})

	return v
}

// decodeJSON reads one JSON object from r into dst and validates it.
// Every failure matches domain.ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errors.Join(domain.ErrValidation, fmt.Errorf("decode body: %w", err))
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after body", domain.ErrValidation)
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}

			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(fields, ","))
		}

		return errors.Join(domain.ErrValidation, err)
	}

	return nil
}
