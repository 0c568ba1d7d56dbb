package users

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
)

// ParseUserID is the single boundary where external user ids become
// typed integers. Ids arrive as token claims, JSON numbers, and query
// strings; anything that does not resolve to a positive integer is
// rejected here instead of leaking downstream.
func ParseUserID(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return validateUserID(v)
	case int:
		return validateUserID(int64(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id must be an integer")
		}
		return validateUserID(int64(v))
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "user id must be an integer")
		}
		return validateUserID(id)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "user id must be an integer")
		}
		return validateUserID(id)
	case nil:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id must be an integer")
	}
}

func validateUserID(id int64) (int64, error) {
	if id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id must be positive")
	}
	return id, nil
}
