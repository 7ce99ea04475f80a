package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, domain.ErrorResponse{Success: false, Message: message})
}

// validationMessage turns binding errors into "name is required; price must be gte 0".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request format"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}
