package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
)

// memoryRepo is an in-memory UserRepository used to exercise whole flows.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *memoryRepo) find(match func(*domain.User) bool) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			return clone(u)
		}
	}
	return nil
}

func (r *memoryRepo) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return autherror.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		switch {
		case u.Email == user.Email:
			return autherror.ErrUserAlreadyExists
		case u.Username == user.Username:
			return autherror.ErrUsernameTaken
		case user.Phone != "" && u.Phone == user.Phone && u.Role == user.Role:
			return autherror.ErrPhoneTaken
		}
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id }), nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email }), nil
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username }), nil
}

func (r *memoryRepo) GetByEmailAndRole(_ context.Context, email, role string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email && u.Role == role }), nil
}

func (r *memoryRepo) GetByPhoneAndRole(_ context.Context, phone, role string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Phone == phone && u.Role == role }), nil
}

func (r *memoryRepo) GetByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.GoogleID != "" && u.GoogleID == googleID }), nil
}

func (r *memoryRepo) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.ResetPasswordTokenHash == tokenHash && u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	}), nil
}

func (r *memoryRepo) GetByVerificationToken(_ context.Context, tokenHash, role string, now time.Time) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.Role == role && u.VerificationTokenHash == tokenHash &&
			u.VerificationTokenExpires != nil && u.VerificationTokenExpires.After(now)
	}), nil
}

func (r *memoryRepo) RecordLogin(_ context.Context, id string, fp domain.SessionFingerprint, at time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.AccessTokenHash = fp.AccessTokenHash
		u.RefreshTokenHash = fp.RefreshTokenHash
		u.IsLoggedIn = true
		u.LoginCount++
		u.LastLogin = &at
	})
}

func (r *memoryRepo) SaveSession(_ context.Context, id string, fp domain.SessionFingerprint) error {
	return r.mutate(id, func(u *domain.User) {
		u.AccessTokenHash = fp.AccessTokenHash
		u.RefreshTokenHash = fp.RefreshTokenHash
	})
}

func (r *memoryRepo) ClearSession(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) {
		u.AccessTokenHash = ""
		u.RefreshTokenHash = ""
		u.IsLoggedIn = false
	})
}

func (r *memoryRepo) SetResetToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.ResetPasswordTokenHash = tokenHash
		u.ResetPasswordExpires = &expires
	})
}

func (r *memoryRepo) ClearResetToken(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) {
		u.ResetPasswordTokenHash = ""
		u.ResetPasswordExpires = nil
	})
}

func (r *memoryRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = passwordHash
		u.ResetPasswordTokenHash = ""
		u.ResetPasswordExpires = nil
	})
}

func (r *memoryRepo) ConsumeResetToken(_ context.Context, id, tokenHash, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.ResetPasswordTokenHash == "" || u.ResetPasswordTokenHash != tokenHash ||
		u.ResetPasswordExpires == nil || !u.ResetPasswordExpires.After(now) {
		return autherror.ErrInvalidOrExpiredToken
	}
	u.PasswordHash = passwordHash
	u.ResetPasswordTokenHash = ""
	u.ResetPasswordExpires = nil
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) SetVerificationToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.VerificationTokenHash = tokenHash
		u.VerificationTokenExpires = &expires
	})
}

func (r *memoryRepo) MarkVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) {
		u.IsVerified = true
		u.VerificationTokenHash = ""
		u.VerificationTokenExpires = nil
	})
}

func (r *memoryRepo) LinkGoogleAccount(_ context.Context, id, googleID, picture string) error {
	return r.mutate(id, func(u *domain.User) {
		u.GoogleID = googleID
		u.Picture = picture
		u.IsVerified = true
	})
}

func (r *memoryRepo) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	var updated *domain.User
	err := r.mutate(id, func(u *domain.User) {
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Phone != nil {
			u.Phone = *update.Phone
		}
		updated = clone(u)
	})
	return updated, err
}

func (r *memoryRepo) SetApproval(_ context.Context, id string, approved bool) error {
	return r.mutate(id, func(u *domain.User) { u.IsApproved = approved })
}

func (r *memoryRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.mutate(id, func(u *domain.User) { u.IsActive = active })
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return autherror.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepo) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []*domain.User
	for _, u := range r.users {
		if filter.Role == "" || u.Role == filter.Role {
			all = append(all, clone(u))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], total, nil
}

func (r *memoryRepo) CountByRole(_ context.Context, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

var _ domain.UserRepository = (*memoryRepo)(nil)
