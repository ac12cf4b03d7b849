// Package bind decodes and validates JSON request bodies
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "insightsdb/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MaxBody caps a request body; filters and sort lists stay well below it
const MaxBody = 1 << 20

type engine struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	once sync.Once
	eng  engine
)

// validate returns the shared validator; messages name fields by json tag
func validate() engine {
	once.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		shortMessage(v, trans, "min", "{0} must be at least {1}")
		shortMessage(v, trans, "max", "{0} must be at most {1}")
		shortMessage(v, trans, "lte", "{0} must be at most {1}")

		eng = engine{v: v, trans: trans}
	})
	return eng
}

func shortMessage(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// ParseJSON decodes one JSON value into T and validates it. Unknown fields,
// trailing data and bodies over MaxBody are JSON errors; a failed rule is a
// validation error carrying the offending field
func ParseJSON[T any](r *http.Request) (T, error) {
	var out T
	if r.Body == nil || r.Body == http.NoBody {
		return out, perr.JSONErrf("empty body")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, perr.JSONErrf("empty body")
		}
		return out, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return out, perr.JSONErrf("unexpected trailing data")
	}

	if err := validate().v.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return out, perr.JSONErrf("validation error: %v", err)
		}
		field, msg := describe(verrs)
		return out, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
	}
	return out, nil
}

// describe translates the first failed rule
func describe(verrs validator.ValidationErrors) (field, msg string) {
	fe := verrs[0]
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return ns, fe.Translate(validate().trans)
}
