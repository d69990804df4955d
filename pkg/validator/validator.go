// Package validator checks request bodies with go-playground/validator and
// renders field errors in English or Chinese.
package validator

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Language constants for i18n support.
const (
	LangEN = "en"
	LangZH = "zh"
)

// TagNotBlank rejects strings that are empty after trimming whitespace.
const TagNotBlank = "notblank"

// Validator wraps go-playground/validator with translators.
type Validator struct {
	validate *validator.Validate
	trans    map[string]ut.Translator
}

var (
	globalValidator *Validator
	once            sync.Once
)

// Global returns the process-wide validator.
func Global() *Validator {
	once.Do(func() {
		globalValidator = New()
	})
	return globalValidator
}

// New creates a Validator with en/zh translations and the custom rules.
func New() *Validator {
	v := &Validator{
		validate: validator.New(),
		trans:    make(map[string]ut.Translator),
	}

	// 错误里的字段名使用 json tag
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, zh.New())

	enTrans, _ := uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	v.trans[LangEN] = enTrans

	zhTrans, _ := uni.GetTranslator(LangZH)
	_ = zh_translations.RegisterDefaultTranslations(v.validate, zhTrans)
	v.trans[LangZH] = zhTrans

	v.registerNotBlank()
	return v
}

func (v *Validator) registerNotBlank() {
	_ = v.validate.RegisterValidation(TagNotBlank, func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
	})

	messages := map[string]string{
		LangEN: "{0} must not be blank",
		LangZH: "{0}不能为空",
	}
	for lang, msg := range messages {
		trans := v.trans[lang]
		_ = v.validate.RegisterTranslation(TagNotBlank, trans,
			func(ut ut.Translator) error { return ut.Add(TagNotBlank, msg, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(TagNotBlank, fe.Field())
				return t
			},
		)
	}
}

// Struct validates s and returns translated errors, or nil when s is valid.
func (v *Validator) Struct(s any, lang string) *ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError("", "invalid", err.Error())
	}

	trans, ok := v.trans[lang]
	if !ok {
		trans = v.trans[LangEN]
	}

	out := NewValidationErrors()
	for _, fe := range verrs {
		out.AppendError(FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: fe.Translate(trans),
		})
	}
	return out
}

// Struct validates s with the global validator.
func Struct(s any, lang string) *ValidationErrors {
	return Global().Struct(s, lang)
}
