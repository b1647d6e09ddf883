package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/util"
)

// GormRepo is the account store. Every method is atomic per call; the ban
// transition runs inside a transaction.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo { return &GormRepo{DB: db} }

func (r *GormRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user does not exist")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	return &user, nil
}

// FindByEmail matches case-insensitively; emails are stored lowercased.
func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user does not exist")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	return &user, nil
}

func (r *GormRepo) FindByAlias(ctx context.Context, alias string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("alias = ?", alias).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user does not exist")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	return &user, nil
}

func (r *GormRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	u.Email = strings.ToLower(u.Email)
	if u.LastLogin.IsZero() {
		u.LastLogin = time.Now().UTC()
	}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.New(apperr.KindConflict, "a user with this email or alias already exists")
		}
		return apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	return nil
}

// Update applies a partial field set to one row.
func (r *GormRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.Wrap(apperr.KindInternal, "db error", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "user does not exist")
	}
	return nil
}

func (r *GormRepo) StampLogin(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if err := r.Update(ctx, u.ID, map[string]any{"last_login": now}); err != nil {
		return err
	}
	u.LastLogin = now
	return nil
}

// RevokeAccess advances the account's revocation stamp to now, killing all
// tokens issued strictly before it. The stamp only moves forward.
func (r *GormRepo) RevokeAccess(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.RevokedAt != nil && now.Before(*u.RevokedAt) {
		now = *u.RevokedAt
	}
	if err := r.Update(ctx, u.ID, map[string]any{"revoked_at": now}); err != nil {
		return err
	}
	u.RevokedAt = &now
	return nil
}

func (r *GormRepo) UpdatePassword(ctx context.Context, u *models.User, passwordHash string) error {
	if err := r.Update(ctx, u.ID, map[string]any{"password_hash": passwordHash}); err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	return nil
}

// Ban flips the role to BANNED and stamps the revocation in one transaction,
// so outstanding tokens die the moment the ban lands.
func (r *GormRepo) Ban(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
			"role":       models.RoleBanned,
			"revoked_at": now,
		})
		if res.Error != nil {
			return apperr.Wrap(apperr.KindInternal, "db error", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "user does not exist")
		}
		return nil
	})
}

func (r *GormRepo) SetRole(ctx context.Context, id string, role models.Role) error {
	return r.Update(ctx, id, map[string]any{"role": role})
}

func (r *GormRepo) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return apperr.Wrap(apperr.KindInternal, "db error", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "user does not exist")
	}
	return nil
}

func (r *GormRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	return count, nil
}

// ListQuery narrows and orders a user listing.
type ListQuery struct {
	Page        int
	Size        int
	Role        models.Role // zero value = all roles
	Search      string      // substring match on alias, SQL fallback path
	NewestFirst bool        // order by id DESC; ULIDs sort by creation time
}

func (r *GormRepo) List(ctx context.Context, q ListQuery) ([]models.User, int64, error) {
	offset, limit := util.Calculate(q.Page, q.Size)

	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if q.Role != "" {
		tx = tx.Where("role = ?", q.Role)
	}
	if q.Search != "" {
		tx = tx.Where("LOWER(alias) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "db error", err)
	}

	order := "id ASC"
	if q.NewestFirst {
		order = "id DESC"
	}

	var users []models.User
	if err := tx.Order(order).Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	return users, total, nil
}

// FindByIDs fetches the given rows preserving the input order, for listings
// resolved through the search index.
func (r *GormRepo) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "db error", err)
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]models.User, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
