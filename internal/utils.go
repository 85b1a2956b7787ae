package internal

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidKey = errors.New("invalid key")

func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	return nil
}

// NormalizeOp lowercases and trims an op name, rejecting anything but get or set.
func NormalizeOp(op string) (string, error) {
	switch norm := strings.ToLower(strings.TrimSpace(op)); norm {
	case "get", "set":
		return norm, nil
	default:
		return "", fmt.Errorf("unknown op %q", op)
	}
}
