package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
)

// FieldError is one rejected field of a request body, named by its JSON key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonName)
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// BindError turns a gin binding failure into a ValidationFailed error with
// one FieldError per rejected field. Decoder and validator internals are
// never rendered.
func BindError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			f := FieldError{Field: fieldPath(fe), Message: describe(fe)}
			fields = append(fields, f)
			msgs = append(msgs, f.Field+" "+f.Message)
		}
		e := apperr.Wrap(apperr.ValidationFailed, strings.Join(msgs, "; "), err)
		e.Details = fields
		return e
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		e := apperr.Wrap(apperr.ValidationFailed, typeErr.Field+" has the wrong type", err)
		e.Details = []FieldError{{Field: typeErr.Field, Message: "has the wrong type"}}
		return e
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperr.Wrap(apperr.ValidationFailed, "malformed JSON body", err)
	default:
		return apperr.Wrap(apperr.ValidationFailed, "invalid request", err)
	}
}

// fieldPath drops the struct name from the namespace:
// "CheckoutRequest.address.city" -> "address.city".
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(p, " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", p)
		}
		return "must be at least " + p
	case "gt":
		return "must be greater than " + p
	case "gte":
		return "must be at least " + p
	case "ne":
		return "must not be " + p
	default:
		return "is invalid"
	}
}
