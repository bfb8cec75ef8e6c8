package catalog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"songbook/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalizeInput trims every field and rejects any that end up empty.
func normalizeInput(in models.SongInput) (models.SongInput, error) {
	in = in.Trimmed()

	err := validate.Struct(in)
	if err == nil {
		return in, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return in, fmt.Errorf("failed to validate song: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
	}
	return in, &ValidationError{Problems: problems}
}
