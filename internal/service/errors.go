package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/mentor-api/pkg/database"
	appErrors "github.com/noah-isme/mentor-api/pkg/errors"
)

// storeError maps a repository failure onto the public error taxonomy.
func storeError(err error, notFound, failed string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	if database.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrConstraintViolation.Code, appErrors.ErrConstraintViolation.Status, failed)
	}
	return appErrors.Persistence(err, failed)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
