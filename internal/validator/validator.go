package validator

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/stemsi/qpaper-backend/internal/paper"
)

// trans is the singleton English translator for validation errors.
var (
	trans ut.Translator
	once  sync.Once
)

// Setup registers the validator with English translations on Gin's binding
// engine, plus the "unit" tag for unit labels such as "Unit 3A" and the
// "mark" tag for the supported mark values.
// Safe to call more than once.
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("unit", func(fl govalidator.FieldLevel) bool {
			_, err := paper.ParseUnit(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterTranslation("unit", trans,
			func(ut ut.Translator) error {
				return ut.Add("unit", "{0} must be a unit label such as \"Unit 3\" or \"Unit 3A\"", true)
			},
			func(ut ut.Translator, fe govalidator.FieldError) string {
				msg, _ := ut.T("unit", fe.Field())
				return msg
			},
		)

		_ = v.RegisterValidation("mark", func(fl govalidator.FieldLevel) bool {
			return paper.ValidMark(int(fl.Field().Int()))
		})
		_ = v.RegisterTranslation("mark", trans,
			func(ut ut.Translator) error {
				return ut.Add("mark", "{0} must be one of "+markList(), true)
			},
			func(ut ut.Translator, fe govalidator.FieldError) string {
				msg, _ := ut.T("mark", fe.Field())
				return msg
			},
		)
	})
}

func markList() string {
	marks := make([]string, len(paper.MarkValues))
	for i, m := range paper.MarkValues {
		marks[i] = strconv.Itoa(m)
	}
	return strings.Join(marks, ", ")
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindQuery is Bind for query-string parameters.
func BindQuery(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
