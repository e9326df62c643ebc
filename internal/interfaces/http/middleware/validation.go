package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: JSON field names in errors,
// decimal.Decimal validated through its string form, and the custom tags
// decimal_gt0, decimal_gte0, academic_year and payment_method.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return RegisterValidations(v)
}

// RegisterValidations installs the custom tags on v
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	if err := v.RegisterValidation("decimal_gt0", decimalCompare(func(d decimal.Decimal) bool { return d.IsPositive() })); err != nil {
		return err
	}
	if err := v.RegisterValidation("decimal_gte0", decimalCompare(func(d decimal.Decimal) bool { return !d.IsNegative() })); err != nil {
		return err
	}
	if err := v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		_, err := finance.ParseAcademicYear(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	// checked at request time so methods registered after startup are accepted
	return v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return finance.PaymentMethod(fl.Field().String()).IsValid()
	})
}

func decimalCompare(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ok(d)
	}
}

// ValidationDetails converts binding errors into per-field details
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo obrigatório"
	case "uuid", "uuid4":
		return "Identificador inválido"
	case "min", "gte":
		return "Deve ser no mínimo " + e.Param()
	case "max", "lte":
		return "Deve ser no máximo " + e.Param()
	case "oneof":
		return "Deve ser um de: " + e.Param()
	case "datetime":
		return "Data inválida, use o formato AAAA-MM-DD"
	case "decimal_gt0":
		return "Deve ser um valor maior que zero"
	case "decimal_gte0":
		return "Não pode ser negativo"
	case "academic_year":
		return "Ano lectivo inválido, use o formato AAAA/AAAA"
	case "payment_method":
		return "Método de pagamento não suportado"
	default:
		return "Valor inválido"
	}
}
