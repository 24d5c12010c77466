package server

import (
	"errors"
	"net/http"

	"llm_code_deployer/gateway"
	"llm_code_deployer/generator"
	"llm_code_deployer/publisher"
)

// HTTPStatus maps a build error to the response status.
func HTTPStatus(err error) int {
	var (
		authErr *gateway.AuthorizationError
		valErr  *gateway.ValidationError
		genErr  *generator.GenerationError
		pubErr  *publisher.PublishError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &authErr):
		return http.StatusForbidden
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &genErr), errors.As(err, &pubErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
