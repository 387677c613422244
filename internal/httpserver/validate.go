// apps/go-server/internal/httpserver/validate.go
//
// Request body validation (go-playground/validator).
// Custom tags: username, role, subscription, difficulty, category.

package httpserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/robalobadob/vino/apps/go-server/internal/access"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	register := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %q validation: %v", tag, err))
		}
	}
	register("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return false
			}
		}
		return true
	})
	register("role", func(fl validator.FieldLevel) bool {
		_, err := access.ParseRole(fl.Field().String())
		return err == nil
	})
	register("subscription", func(fl validator.FieldLevel) bool {
		_, err := access.ParseSubscriptionStatus(fl.Field().String())
		return err == nil && fl.Field().String() != ""
	})
	register("difficulty", func(fl validator.FieldLevel) bool {
		return swirdle.ValidDifficulty(swirdle.Difficulty(fl.Field().String()))
	})
	register("category", func(fl validator.FieldLevel) bool {
		return swirdle.ValidCategory(swirdle.Category(fl.Field().String()))
	})
	return v
}

// validationFields flattens validator errors into field → failed tag.
func validationFields(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
	}
	return out
}
