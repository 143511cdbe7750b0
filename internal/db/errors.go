package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"printshop-commerce/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
	codeNumericOutOfRange   = "22003"
	codeCheckViolation      = "23514"
	codeLockNotAvailable    = "55P03"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
)

// Translate maps driver errors onto domain sentinels. Unknown errors pass through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, pgErr.ConstraintName)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", domain.ErrIntegrity, pgErr.ConstraintName)
	case codeInvalidText:
		return domain.ErrNotFound
	case codeNumericOutOfRange:
		return domain.NewValidationError("amount", "value out of range")
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", domain.ErrIntegrity, pgErr.ConstraintName)
	case codeLockNotAvailable, codeSerialization, codeDeadlock:
		return fmt.Errorf("%w: %s", domain.ErrConcurrency, pgErr.Message)
	}
	return err
}
