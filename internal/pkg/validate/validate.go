package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		_ = instance.RegisterValidation("chat_role", validateChatRole)
		_ = instance.RegisterValidation("notblank", validateNotBlank)
	})
	return instance
}

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Struct validates v by its `validate` tags and returns one readable error
// naming the first failing field.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("field %s failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err
}

func validateChatRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "user", "assistant":
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return Required(fl.Field().String())
}
