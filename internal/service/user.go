package service

import (
	"context"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/events"
	"github.com/usagi-project/usagi-api/internal/logging"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/repo"
	"github.com/usagi-project/usagi-api/internal/search"
	"github.com/usagi-project/usagi-api/internal/util"
)

// UserService covers listing, lookup and the administrative actions.
type UserService struct {
	Repo   *repo.GormRepo
	Events *events.Producer
	Search *search.Index
}

// List returns a page of users, optionally narrowed by a fuzzy alias search.
// The search goes through the elasticsearch index when configured and falls
// back to a SQL substring scan otherwise.
func (s *UserService) List(ctx context.Context, page, size int, searchString string) ([]models.User, int64, error) {
	if searchString != "" && s.Search.Enabled() {
		offset, limit := util.Calculate(page, size)
		ids, total, err := s.Search.SearchAlias(ctx, searchString, offset, limit)
		if err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "error", err)
			// degraded path, the store of record still answers
		} else {
			users, err := s.Repo.FindByIDs(ctx, ids)
			if err != nil {
				return nil, 0, err
			}
			return users, total, nil
		}
	}

	return s.Repo.List(ctx, repo.ListQuery{Page: page, Size: size, Search: searchString})
}

// ListNew returns users ordered newest-first; the ULID id carries the
// registration time, so ordering by id is ordering by creation.
func (s *UserService) ListNew(ctx context.Context, page, size int) ([]models.User, int64, error) {
	return s.Repo.List(ctx, repo.ListQuery{Page: page, Size: size, NewestFirst: true})
}

func (s *UserService) ListByRole(ctx context.Context, role models.Role, page, size int) ([]models.User, int64, error) {
	return s.Repo.List(ctx, repo.ListQuery{Page: page, Size: size, Role: role})
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.Repo.Count(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if !models.ValidID(id) {
		return nil, apperr.New(apperr.KindValidation, "invalid id")
	}
	return s.Repo.FindByID(ctx, id)
}

// Delete removes a user. Admins cannot delete themselves through this path.
func (s *UserService) Delete(ctx context.Context, current *models.User, id string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.delete")

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ID == user.ID {
		return nil, apperr.New(apperr.KindSelfDelete, "users may not delete themselves")
	}

	if err := s.Repo.Delete(ctx, user.ID); err != nil {
		return nil, err
	}

	l.Info("user_deleted", "user_id", user.ID, "by", current.ID)
	s.Events.Publish(ctx, events.TypeUserDeleted, user.ID, map[string]any{"by": current.ID})
	s.Search.Remove(ctx, user.ID)
	return user, nil
}

// Ban moves the target to BANNED and revokes all its tokens atomically.
// There is no unban path.
func (s *UserService) Ban(ctx context.Context, current *models.User, id, reason string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.ban")

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Ban(ctx, user.ID); err != nil {
		return nil, err
	}

	user, err = s.Repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	l.Info("user_banned", "user_id", user.ID, "by", current.ID, "reason", reason)
	s.Events.Publish(ctx, events.TypeUserBanned, user.ID, map[string]any{
		"by":     current.ID,
		"reason": reason,
	})
	s.Search.IndexUser(ctx, user)
	return user, nil
}

// SetRole changes the role among the active roles. Banning goes through Ban,
// never through here, so existing tokens stay valid across a role change.
func (s *UserService) SetRole(ctx context.Context, current *models.User, id string, role models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.set_role")

	if role == models.RoleBanned {
		return nil, apperr.New(apperr.KindValidation, "use the ban-user route instead")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role

	l.Info("role_updated", "user_id", user.ID, "role", role, "by", current.ID)
	s.Events.Publish(ctx, events.TypeUserRoleChanged, user.ID, map[string]any{
		"role": role,
		"by":   current.ID,
	})
	s.Search.IndexUser(ctx, user)
	return user, nil
}
