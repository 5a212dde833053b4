package usecase

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
)

func requireUser(principal user.Principal) error {
	if !principal.IsAuthenticated() {
		return fmt.Errorf("%w: sign in required", ErrUnauthorized)
	}
	return nil
}

func requireAdmin(principal user.Principal) error {
	if err := requireUser(principal); err != nil {
		return err
	}
	if !principal.IsAdmin {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}
	return nil
}

func normalizeIDs(ids []string) ([]string, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: player id cannot be empty", ErrInvalidInput)
		}
		cleaned = append(cleaned, id)
	}
	return cleaned, nil
}
