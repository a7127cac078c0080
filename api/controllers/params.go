package controllers

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
