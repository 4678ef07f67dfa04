package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func ValidateIngredientCreate(ctx context.Context, req IngredientCreateRequest) apt.ValidationErrors {
	errs := structErrors(req)
	if req.CriticalQty > req.MinQty {
		errs = append(errs, apt.ValidationError{Field: "critical_qty", Code: "ltefield", Message: "critical_qty cannot exceed min_qty"})
	}
	return errs
}

func ValidatePurchaseCreate(ctx context.Context, req PurchaseCreateRequest) apt.ValidationErrors {
	return structErrors(req)
}

func ValidatePlateSave(ctx context.Context, req PlateSaveRequest) apt.ValidationErrors {
	errs := structErrors(req)
	seen := map[string]bool{}
	for _, ing := range req.Ingredients {
		if seen[ing.IngredientID] {
			errs = append(errs, apt.ValidationError{
				Field:   "ingredients",
				Code:    "unique",
				Message: fmt.Sprintf("ingredient %s is listed twice", ing.IngredientID),
			})
		}
		seen[ing.IngredientID] = true
	}
	return errs
}

func ValidateRecipeIngredient(ctx context.Context, req RecipeIngredientRequest) apt.ValidationErrors {
	return structErrors(req)
}

func ValidateRecipeQtyUpdate(ctx context.Context, req RecipeQtyUpdateRequest) apt.ValidationErrors {
	return structErrors(req)
}

func ValidatePlateStatus(ctx context.Context, req PlateStatusRequest) apt.ValidationErrors {
	return structErrors(req)
}

func ValidateKitchenSend(ctx context.Context, req KitchenSendRequest) apt.ValidationErrors {
	return structErrors(req)
}

func structErrors(req any) apt.ValidationErrors {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apt.ValidationErrors{{Code: "invalid", Message: err.Error()}}
	}

	out := make(apt.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, apt.ValidationError{Field: field, Code: fe.Tag(), Message: fieldMessage(field, fe)})
	}
	return out
}

func fieldMessage(field string, fe validator.FieldError) string {

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return field + " is invalid"
}
