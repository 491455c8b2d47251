package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"toob-api/internal/domain"
)

// 与前端/旧服务一致的"基本邮箱格式"
var emailShape = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 违规字段用 json 名返回
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct 校验通过返回 nil，否则返回 domain ValidationError（含逐字段违规）
func (x *Validator) Struct(s any) error {
	err := x.v.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return domain.Validation(err.Error())
	}
	vs := make([]domain.FieldViolation, 0, len(ves))
	for _, fe := range ves {
		vs = append(vs, domain.FieldViolation{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return domain.Validation(vs[0].Message, vs...)
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "email_shape", "email":
		return "please enter a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
}
