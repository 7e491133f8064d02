package service

import (
	"context"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	"github.com/codax69/sever-main-sub001/internal/auth/dto"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/constant"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
)

type UserPage struct {
	Users []*domain.User
	Total int64
	Page  int
	Limit int
}

func (s *UserService) ListUsers(ctx context.Context, input dto.ListUsersInput) (*UserPage, error) {
	if err := dto.Validate(input); err != nil {
		return nil, err
	}

	page, limit := input.Page, input.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}

	users, total, err := s.repo.List(ctx, domain.UserFilter{
		Role:   input.Role,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

// DeleteUser removes a user record. Admin accounts and the caller's own
// account cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	target, err := s.targetOf(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if target.Role == constant.RoleAdmin {
		return autherror.ErrCannotDeleteAdmin
	}

	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("actor_id", actorID), zap.String("user_id", target.ID))
	return nil
}

func (s *UserService) SetApproval(ctx context.Context, actorID, targetID string, approved bool) error {
	target, err := s.targetOf(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	return s.repo.SetApproval(ctx, target.ID, approved)
}

// SetActive toggles an account. Deactivation also ends its session.
func (s *UserService) SetActive(ctx context.Context, actorID, targetID string, active bool) error {
	target, err := s.targetOf(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, target.ID, active); err != nil {
		return err
	}
	if !active {
		return s.repo.ClearSession(ctx, target.ID)
	}
	return nil
}

func (s *UserService) targetOf(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	if actorID == targetID {
		return nil, autherror.ErrCannotModifySelf
	}
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, autherror.ErrUserNotFound
	}
	return target, nil
}
