package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mparreirinha/expensetrackerapp/internal/middleware"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

var validate = validator.New()

// normalizer is implemented by request DTOs that clean up fields before
// validation.
type normalizer interface {
	Normalize()
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure it has already written the 400 response.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request", nil, err)
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation error", validationDetails(err), err)
		return false
	}
	return true
}

// validationDetails lists the failing fields and tags for the client.
func validationDetails(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

func principalOrUnauthorized(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing principal", nil)
	}
	return p, ok
}
