package validation

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"attendance-backend/models"
)

var (
	// custom validation tags & texts
	deptCodeTag   = "deptcode"
	deptCodeText  = "{0} must be an upper-case department code such as CSE"
	deptCodeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,15}$`)

	dateFmtTag  = "datefmt"
	dateFmtText = "{0} must be a date in YYYY-MM-DD form"

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// Validator wraps go-playground/validator with English messages keyed by JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New() *Validator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	v := validator.New()
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(deptCodeTag, func(fl validator.FieldLevel) bool {
		return deptCodeRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(dateFmtTag, func(fl validator.FieldLevel) bool {
		_, err := time.Parse(models.DateLayout, fl.Field().String())
		return err == nil
	})

	registerTranslation(v, trans, deptCodeTag, deptCodeText, false)
	registerTranslation(v, trans, dateFmtTag, dateFmtText, false)
	registerTranslation(v, trans, requiredTag, requiredText, true)

	return &Validator{validate: v, translator: trans}
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string, override bool) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and converts failures to *models.ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}
	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{
			Field: fieldPath(fe),
			Error: fe.Translate(v.translator),
		})
	}
	return models.NewValidationError("invalid input: "+fields[0].Error, fields...)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
