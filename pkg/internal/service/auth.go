package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeisme/vidvault/pkg/configs"
	"github.com/yeisme/vidvault/pkg/internal/model"
	"github.com/yeisme/vidvault/pkg/internal/types"
	nlog "github.com/yeisme/vidvault/pkg/log"
)

// Register 注册用户.
// 携带组织名时创建新组织并成为其管理员；组织名重复是冲突.
// 未携带组织名时挂靠默认组织，角色取请求值（缺省 editor）.
func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*model.User, error) {
	if !s.cfg.AllowRegistration {
		return nil, ErrRegistrationClosed
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.dbClient.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           model.NewID(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Active:       true,
	}

	err = s.dbClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.OrganizationName != "" {
			org, err := s.createOrganization(tx, req.OrganizationName)
			if err != nil {
				return err
			}

			user.OrganizationID = org.ID
			user.Role = model.RoleAdmin

			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			// 创建者的用户行就绪后回填 owner
			return tx.Model(&model.Organization{}).
				Where("id = ?", org.ID).
				Update("owner_id", user.ID).Error
		}

		org, err := s.ensureDefaultOrganization(tx)
		if err != nil {
			return err
		}

		user.OrganizationID = org.ID

		user.Role = model.RoleEditor
		if req.Role != "" {
			user.Role = model.ParseRole(req.Role)
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("user", user.ID).
		Str("org", user.OrganizationID).
		Str("role", string(user.Role)).
		Msg("user registered")

	return user, nil
}

// createOrganization 以名字创建组织，slug 冲突返回 ErrSlugTaken.
func (s *AuthService) createOrganization(tx *gorm.DB, name string) (*model.Organization, error) {
	slug := model.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("organization name yields empty slug")
	}

	var count int64
	if err := tx.Model(&model.Organization{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	if count > 0 {
		return nil, ErrSlugTaken
	}

	uploadCfg := configs.GetConfig().Upload

	org := &model.Organization{
		ID:     model.NewID(),
		Name:   strings.TrimSpace(name),
		Slug:   slug,
		Active: true,
		Settings: model.OrgSettings{
			MaxStorageGB:   uploadCfg.MaxStorageGB,
			MaxVideoSizeMB: uploadCfg.MaxVideoSizeMB,
		},
	}

	if err := tx.Create(org).Error; err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	return org, nil
}

// ensureDefaultOrganization 获取（或惰性创建）默认组织.
func (s *AuthService) ensureDefaultOrganization(tx *gorm.DB) (*model.Organization, error) {
	var org model.Organization

	err := tx.Where("slug = ?", s.cfg.DefaultOrgSlug).First(&org).Error
	if err == nil {
		return &org, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load default organization: %w", err)
	}

	uploadCfg := configs.GetConfig().Upload

	org = model.Organization{
		ID:     model.NewID(),
		Name:   s.cfg.DefaultOrgName,
		Slug:   s.cfg.DefaultOrgSlug,
		Active: true,
		Settings: model.OrgSettings{
			MaxStorageGB:   uploadCfg.MaxStorageGB,
			MaxVideoSizeMB: uploadCfg.MaxVideoSizeMB,
		},
	}

	if err := tx.Create(&org).Error; err != nil {
		return nil, fmt.Errorf("create default organization: %w", err)
	}

	return &org, nil
}

// Login 校验口令并更新最近登录时间.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user model.User

	err := s.dbClient.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 统一口径，不暴露邮箱是否注册
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("load user: %w", err)
	}

	if !user.Active {
		return nil, ErrInactiveUser
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now

	if err := s.dbClient.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("last_login_at", now).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("user", user.ID).Msg("update last_login_at failed")
	}

	return &user, nil
}

// IssueTokens 签发访问/刷新令牌并写入刷新令牌单槽.
func (s *AuthService) IssueTokens(ctx context.Context, user *model.User) (access, refresh string, err error) {
	access, _, err = s.tokens.IssueAccess(user.ID, string(user.Role), user.OrganizationID)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}

	refresh, _, err = s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.dbClient.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token_current", refresh).Error; err != nil {
		return "", "", fmt.Errorf("store refresh token: %w", err)
	}

	return access, refresh, nil
}

// Refresh 用刷新令牌换新令牌对.
// 单槽比对以 CAS 轮换：旧令牌与槽不一致说明已被用过（重放），清空槽并拒绝.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, string, string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, "", "", err
	}

	user, err := s.GetActiveUser(ctx, claims.Subject)
	if err != nil {
		return nil, "", "", err
	}

	newRefresh, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("issue refresh token: %w", err)
	}

	swap := s.dbClient.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token_current = ?", user.ID, refreshToken).
		Update("refresh_token_current", newRefresh)
	if swap.Error != nil {
		return nil, "", "", fmt.Errorf("rotate refresh token: %w", swap.Error)
	}

	if swap.RowsAffected == 0 {
		// 槽里已是别的令牌：当前令牌被重放. 清空槽，强制重新登录
		if err := s.dbClient.WithContext(ctx).Model(&model.User{}).
			Where("id = ?", user.ID).
			Update("refresh_token_current", "").Error; err != nil {
			nlog.Logger().Warn().Err(err).Str("user", user.ID).Msg("clear refresh slot failed")
		}

		nlog.Logger().Warn().Str("user", user.ID).Msg("refresh token reuse detected")

		return nil, "", "", ErrRefreshReuse
	}

	access, _, err := s.tokens.IssueAccess(user.ID, string(user.Role), user.OrganizationID)
	if err != nil {
		return nil, "", "", fmt.Errorf("issue access token: %w", err)
	}

	return user, access, newRefresh, nil
}

// Logout 清空刷新令牌单槽.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.dbClient.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("refresh_token_current", "").Error
}

// GetActiveUser 加载用户并要求 active. 令牌有效但用户被停用时同样拒绝.
func (s *AuthService) GetActiveUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User

	err := s.dbClient.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("load user: %w", err)
	}

	if !user.Active {
		return nil, ErrInactiveUser
	}

	return &user, nil
}
