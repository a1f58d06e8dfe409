package auth

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tillward/tillward/internal/shared"
)

// Service resolves terminal credentials into an acting employee.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates a `<id>.<secret>` terminal key and returns
// the acting employee with the permission set for their role.
func (s *Service) Authenticate(ctx context.Context, token string) (*shared.Actor, error) {
	id, secret, ok := splitToken(token)
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}

	key, err := s.repo.GetTerminalKey(ctx, id)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !key.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(secret)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	perms := make(map[string]struct{})
	for _, p := range permissionsByRole[key.EmployeeRole] {
		perms[p] = struct{}{}
	}
	return &shared.Actor{
		EmployeeID:  key.EmployeeID,
		StoreID:     key.StoreID,
		Name:        key.EmployeeName,
		Role:        key.EmployeeRole,
		Permissions: perms,
	}, nil
}

func splitToken(token string) (int64, string, bool) {
	idPart, secret, found := strings.Cut(strings.TrimSpace(token), ".")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, secret, true
}
