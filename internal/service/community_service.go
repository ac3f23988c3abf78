package service

import (
	"context"
	"log/slog"
	"slices"

	"rockae/internal/cache"
	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// CommunityAliasPlaceholder is used when a community name has no slug characters.
const CommunityAliasPlaceholder = "community"

// CommunityService provides community lifecycle business logic.
type CommunityService struct {
	tx          repository.Transactor
	communities repository.CommunityRepository
	members     repository.MembershipRepository
	plans       repository.PlanRepository
	forums      repository.ForumRepository
	tags        repository.TagRepository
	cache       *cache.Cache
}

// NewCommunityService returns a new CommunityService. A nil cache disables caching.
func NewCommunityService(
	tx repository.Transactor,
	communities repository.CommunityRepository,
	members repository.MembershipRepository,
	plans repository.PlanRepository,
	forums repository.ForumRepository,
	tags repository.TagRepository,
	c *cache.Cache,
) *CommunityService {
	return &CommunityService{
		tx:          tx,
		communities: communities,
		members:     members,
		plans:       plans,
		forums:      forums,
		tags:        tags,
		cache:       c,
	}
}

// CreateCommunityInput holds the fields accepted when creating a community.
type CreateCommunityInput struct {
	Name            string   `json:"name" validate:"required,max=255"`
	Alias           string   `json:"alias" validate:"omitempty,slug,max=255"`
	Summary         *string  `json:"summary" validate:"omitempty,max=500"`
	Description     *string  `json:"description"`
	PublicNotes     *string  `json:"public_notes"`
	Category        *string  `json:"category" validate:"omitempty,max=100"`
	IsOpen          bool     `json:"is_open"`
	RestrictPosting bool     `json:"restrict_posting_to_owners_moderators"`
	UseLogoOnly     bool     `json:"use_logo_only"`
	Tags            []string `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

// CreateCommunity stores a community owned by ownerID together with the owner
// membership, the default free plan and the default forum.
func (s *CommunityService) CreateCommunity(ctx context.Context, ownerID uint, input CreateCommunityInput) (community *models.Community, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "community", "CreateCommunity")
	defer span.Finish(&err)

	input.Name = trimmed(input.Name)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	community = &models.Community{
		Name:                              input.Name,
		Summary:                           input.Summary,
		Description:                       input.Description,
		PublicNotes:                       input.PublicNotes,
		Category:                          input.Category,
		IsOpen:                            input.IsOpen,
		RestrictPostingToOwnersModerators: input.RestrictPosting,
		UseLogoOnly:                       input.UseLogoOnly,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		alias, err := s.resolveAlias(ctx, input.Alias, input.Name, 0)
		if err != nil {
			return err
		}
		community.Alias = alias

		if err := s.communities.Create(ctx, community); err != nil {
			return err
		}
		owner := &models.CommunityMember{
			CommunityID: community.ID,
			UserID:      ownerID,
			Role:        models.RoleOwner,
			JoinedAt:    now(),
		}
		if err := s.members.Create(ctx, owner); err != nil {
			return err
		}
		if _, _, err := s.ProvisionDefaults(ctx, community.ID); err != nil {
			return err
		}
		return s.setTags(ctx, community, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	span.AddAttributes(attribute.Int("community.id", int(community.ID)), attribute.String("community.alias", community.Alias))
	observability.RecordEvent(observability.EventCommunityCreated)
	observability.Logger.InfoContext(ctx, "community created",
		slog.Uint64("community_id", uint64(community.ID)),
		slog.String("alias", community.Alias),
		slog.Uint64("owner_id", uint64(ownerID)),
	)
	return community, nil
}

// ProvisionDefaults makes sure the community has its default free plan and
// default forum. Calling it again returns the existing rows.
func (s *CommunityService) ProvisionDefaults(ctx context.Context, communityID uint) (*models.PaymentPlan, *models.Forum, error) {
	var (
		plan  *models.PaymentPlan
		forum *models.Forum
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		plan, err = s.plans.GetByName(ctx, communityID, models.DefaultPlanName)
		if err != nil {
			return err
		}
		if plan == nil {
			plan = &models.PaymentPlan{
				CommunityID: communityID,
				Name:        models.DefaultPlanName,
				Description: ptr(models.DefaultPlanDescription),
				IsFree:      true,
				IsActive:    true,
			}
			plan.Normalize()
			if err := s.plans.Create(ctx, plan); err != nil {
				return err
			}
		}

		forum, err = s.forums.GetByName(ctx, communityID, models.DefaultForumName)
		if err != nil {
			return err
		}
		if forum == nil {
			forum = &models.Forum{
				CommunityID: communityID,
				Name:        models.DefaultForumName,
				Description: ptr(models.DefaultForumDescription),
			}
			return s.forums.Create(ctx, forum)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return plan, forum, nil
}

// resolveAlias validates an explicit alias or derives one from name.
func (s *CommunityService) resolveAlias(ctx context.Context, alias, name string, excludeID uint) (string, error) {
	if alias != "" {
		if !validation.IsSlug(alias) {
			return "", models.NewFieldValidationError("alias", "Only letters, numbers, underscores and hyphens are allowed.")
		}
		taken, err := s.communities.AliasExists(ctx, alias, excludeID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", models.NewFieldValidationError("alias", "A community with this alias already exists.")
		}
		return alias, nil
	}

	base := validation.SlugOrPlaceholder(name, CommunityAliasPlaceholder)
	alias, err := validation.UniqueSlug(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return s.communities.AliasExists(ctx, candidate, excludeID)
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return alias, nil
}

func (s *CommunityService) setTags(ctx context.Context, community *models.Community, names []string) error {
	if names == nil {
		return nil
	}
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = trimmed(name)
		if name == "" {
			continue
		}
		tag, err := s.tags.GetOrCreate(ctx, name, tagSlug(name))
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(tags, func(t models.Tag) bool { return t.ID == tag.ID }) {
			tags = append(tags, *tag)
		}
	}
	return s.communities.ReplaceTags(ctx, community, tags)
}

// GetByID returns a community with its tags.
func (s *CommunityService) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	return s.communities.GetByID(ctx, id)
}

// GetByAlias returns a community by alias, served from Redis when cached.
func (s *CommunityService) GetByAlias(ctx context.Context, alias string) (*models.Community, error) {
	var community models.Community
	err := s.cache.Aside(ctx, cache.NameCommunity, cache.CommunityAliasKey(alias), &community, cache.CommunityTTL, func() error {
		found, err := s.communities.GetByAlias(ctx, alias)
		if err != nil {
			return err
		}
		community = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// UpdateCommunityInput carries optional changes. Nil fields are left alone.
type UpdateCommunityInput struct {
	Name            *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Alias           *string  `json:"alias" validate:"omitempty,slug,max=255"`
	Summary         *string  `json:"summary" validate:"omitempty,max=500"`
	Description     *string  `json:"description"`
	PublicNotes     *string  `json:"public_notes"`
	Category        *string  `json:"category" validate:"omitempty,max=100"`
	IsOpen          *bool    `json:"is_open"`
	RestrictPosting *bool    `json:"restrict_posting_to_owners_moderators"`
	UseLogoOnly     *bool    `json:"use_logo_only"`
	AvatarURL       *string  `json:"avatar_url" validate:"omitempty,max=200"`
	BannerURL       *string  `json:"banner_url" validate:"omitempty,max=200"`
	Tags            []string `json:"tags" validate:"omitempty,max=20,dive,required,max=50"`
}

// UpdateCommunity applies input on behalf of a manager and drops cached copies.
func (s *CommunityService) UpdateCommunity(ctx context.Context, actorID, communityID uint, input UpdateCommunityInput) (*models.Community, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}

	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	oldAlias := community.Alias

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if input.Name != nil {
			if trimmed(*input.Name) == "" {
				return models.NewFieldValidationError("name", "This field is required.")
			}
			community.Name = trimmed(*input.Name)
		}
		if input.Alias != nil && *input.Alias != community.Alias {
			alias, err := s.resolveAlias(ctx, *input.Alias, community.Name, community.ID)
			if err != nil {
				return err
			}
			community.Alias = alias
		}
		if input.Summary != nil {
			community.Summary = input.Summary
		}
		if input.Description != nil {
			community.Description = input.Description
		}
		if input.PublicNotes != nil {
			community.PublicNotes = input.PublicNotes
		}
		if input.Category != nil {
			community.Category = input.Category
		}
		if input.IsOpen != nil {
			community.IsOpen = *input.IsOpen
		}
		if input.RestrictPosting != nil {
			community.RestrictPostingToOwnersModerators = *input.RestrictPosting
		}
		if input.UseLogoOnly != nil {
			community.UseLogoOnly = *input.UseLogoOnly
		}
		if input.AvatarURL != nil {
			community.AvatarURL = input.AvatarURL
		}
		if input.BannerURL != nil {
			community.BannerURL = input.BannerURL
		}
		if err := s.communities.Update(ctx, community); err != nil {
			return err
		}
		return s.setTags(ctx, community, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.CommunityAliasKey(oldAlias), cache.CommunityAliasKey(community.Alias))
	return s.communities.GetByID(ctx, community.ID)
}

// DeleteCommunity removes a community and everything hanging off it. Only the owner may do it.
func (s *CommunityService) DeleteCommunity(ctx context.Context, actorID, communityID uint) (err error) {
	span, ctx := observability.StartServiceSpan(ctx, "community", "DeleteCommunity")
	defer span.Finish(&err)

	if _, err := requireRole(ctx, s.members, communityID, actorID, models.RoleOwner); err != nil {
		return err
	}
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if err := s.communities.Delete(ctx, communityID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.CommunityAliasKey(community.Alias))
	observability.RecordEvent(observability.EventCommunityDeleted)
	return nil
}

// List returns a page of communities.
func (s *CommunityService) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	return s.communities.List(ctx, limit, offset)
}

// Like records that userID likes the community. Liking twice is a no-op.
func (s *CommunityService) Like(ctx context.Context, userID, communityID uint) (int64, error) {
	if _, err := s.communities.GetByID(ctx, communityID); err != nil {
		return 0, err
	}
	if err := s.communities.Like(ctx, communityID, userID); err != nil {
		return 0, err
	}
	return s.communities.CountLikes(ctx, communityID)
}

// Unlike removes the like of userID, if any.
func (s *CommunityService) Unlike(ctx context.Context, userID, communityID uint) (int64, error) {
	if err := s.communities.Unlike(ctx, communityID, userID); err != nil {
		return 0, err
	}
	return s.communities.CountLikes(ctx, communityID)
}

// ListTags returns every known tag.
func (s *CommunityService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.List(ctx)
}
