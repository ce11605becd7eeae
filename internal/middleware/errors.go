package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/logging"
)

// UseJSONFieldNames fait remonter les noms de champs JSON dans les erreurs de binding.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorHandler rend la dernière erreur posée avec c.Error quand le handler n'a rien écrit.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, fields := classify(err)
		if appErr.Status >= 500 {
			logging.FromContext(c.Request.Context()).Error("request failed",
				zap.String("code", appErr.Code),
				zap.Error(err))
		}

		c.JSON(appErr.Status, gin.H{
			"success": false,
			"error": errorBody{
				Code:    appErr.Code,
				Message: appErr.Message,
				Fields:  fields,
			},
		})
	}
}

func classify(err error) (*apperrors.AppError, map[string]string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		return apperrors.Validation("Invalid request"), fields
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return apperrors.Validation("Malformed JSON body"), nil
	case errors.As(err, &typeErr):
		return apperrors.Validation("Invalid value for " + typeErr.Field), nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.Validation("Malformed JSON body"), nil
	}
	return apperrors.As(err), nil
}

// fieldPath retire le nom de la struct racine, ex. "orderRequest.shippingInfo.city" -> "shippingInfo.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed on " + fe.Tag()
}
