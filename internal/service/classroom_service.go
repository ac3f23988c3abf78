package service

import (
	"context"
	"log/slog"
	"slices"

	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"
)

// ClassroomService provides course, lesson and completion business logic.
type ClassroomService struct {
	tx         repository.Transactor
	members    repository.MembershipRepository
	plans      repository.PlanRepository
	classrooms repository.ClassroomRepository
	access     *AccessService
}

// NewClassroomService returns a new ClassroomService.
func NewClassroomService(
	tx repository.Transactor,
	members repository.MembershipRepository,
	plans repository.PlanRepository,
	classrooms repository.ClassroomRepository,
	access *AccessService,
) *ClassroomService {
	return &ClassroomService{
		tx:         tx,
		members:    members,
		plans:      plans,
		classrooms: classrooms,
		access:     access,
	}
}

// ClassroomInput describes a classroom. Name is a slug unique within the community.
type ClassroomInput struct {
	Name               string  `json:"name" validate:"required,slug,max=255"`
	Title              string  `json:"title" validate:"required,max=255"`
	Description        *string `json:"description"`
	BannerURL          *string `json:"banner_url" validate:"omitempty,max=200"`
	EnforceProgression bool    `json:"enforce_progression"`
	IssueCertificate   bool    `json:"issue_certificate"`
	PaymentPlanIDs     []uint  `json:"payment_plans"`
}

func (s *ClassroomService) CreateClassroom(ctx context.Context, actorID, communityID uint, input ClassroomInput) (*models.Classroom, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, communityID, input.Name, 0); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, communityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	room := &models.Classroom{CommunityID: communityID}
	input.apply(room)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.classrooms.Create(ctx, room); err != nil {
			return err
		}
		return s.classrooms.ReplacePlans(ctx, room, plans)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *ClassroomService) UpdateClassroom(ctx context.Context, actorID, classroomID uint, input ClassroomInput) (*models.Classroom, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	room, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, room.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, room.CommunityID, input.Name, room.ID); err != nil {
		return nil, err
	}
	plans, err := resolvePlans(ctx, s.plans, room.CommunityID, input.PaymentPlanIDs)
	if err != nil {
		return nil, err
	}

	input.apply(room)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.classrooms.Update(ctx, room); err != nil {
			return err
		}
		return s.classrooms.ReplacePlans(ctx, room, plans)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (in ClassroomInput) apply(room *models.Classroom) {
	room.Name = in.Name
	room.Title = trimmed(in.Title)
	room.Description = in.Description
	room.BannerURL = in.BannerURL
	room.EnforceProgression = in.EnforceProgression
	room.IssueCertificate = in.IssueCertificate
}

func (s *ClassroomService) checkName(ctx context.Context, communityID uint, name string, excludeID uint) error {
	rooms, err := s.classrooms.List(ctx, communityID)
	if err != nil {
		return err
	}
	taken := slices.ContainsFunc(rooms, func(r models.Classroom) bool {
		return r.Name == name && r.ID != excludeID
	})
	if taken {
		return models.NewFieldValidationError("name", "A classroom with this name already exists in this community.")
	}
	return nil
}

func (s *ClassroomService) ListClassrooms(ctx context.Context, communityID uint) ([]models.Classroom, error) {
	return s.classrooms.List(ctx, communityID)
}

// ContentInput describes a lesson. A nil Order appends the lesson at the end.
type ContentInput struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description *string            `json:"description"`
	Notes       *string            `json:"notes"`
	ContentURL  *string            `json:"content_url" validate:"omitempty,max=200"`
	ContentType models.ContentType `json:"content_type" validate:"required,oneof=video document article link other"`
	IsActive    *bool              `json:"is_active"`
	Order       *int               `json:"order" validate:"omitempty,gte=0"`
}

// AddContent appends a lesson to a classroom.
func (s *ClassroomService) AddContent(ctx context.Context, actorID, classroomID uint, input ContentInput) (*models.ClassroomContent, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	room, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, room.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}

	content := &models.ClassroomContent{ClassroomID: classroomID, IsActive: true}
	if input.Order == nil {
		next, err := s.classrooms.NextContentOrder(ctx, classroomID)
		if err != nil {
			return nil, err
		}
		input.Order = &next
	}
	input.apply(content)
	if err := s.classrooms.CreateContent(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *ClassroomService) UpdateContent(ctx context.Context, actorID, contentID uint, input ContentInput) (*models.ClassroomContent, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	content, room, err := s.contentWithRoom(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, room.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	input.apply(content)
	if err := s.classrooms.UpdateContent(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (in ContentInput) apply(c *models.ClassroomContent) {
	c.Title = trimmed(in.Title)
	c.Description = in.Description
	c.Notes = in.Notes
	c.ContentURL = in.ContentURL
	c.ContentType = in.ContentType
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.Order != nil {
		c.Order = *in.Order
	}
}

// ListContents returns the lessons a user may see, in order.
func (s *ClassroomService) ListContents(ctx context.Context, userID, classroomID uint) ([]models.ClassroomContent, error) {
	room, err := s.classrooms.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(ctx, userID, room.CommunityID, room.PaymentPlans); err != nil {
		return nil, err
	}
	return s.classrooms.ListContents(ctx, classroomID, true)
}

// AddAttachment adds a file to a lesson.
func (s *ClassroomService) AddAttachment(ctx context.Context, actorID, contentID uint, fileURL string, fileType models.AttachmentType, description *string) (*models.ClassroomAttachment, error) {
	if trimmed(fileURL) == "" {
		return nil, models.NewFieldValidationError("file_url", "This field is required.")
	}
	if !fileType.Valid() {
		return nil, models.NewFieldValidationError("file_type", "file_type must be image, video, pdf or file.")
	}
	_, room, err := s.contentWithRoom(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, room.CommunityID, actorID, ManagerRoles...); err != nil {
		return nil, err
	}
	a := &models.ClassroomAttachment{
		ContentID:   contentID,
		FileURL:     fileURL,
		FileType:    fileType,
		Description: description,
	}
	if err := s.classrooms.AddAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ClassroomService) ListAttachments(ctx context.Context, contentID uint) ([]models.ClassroomAttachment, error) {
	return s.classrooms.ListAttachments(ctx, contentID)
}

// CompletionResult is the state after a lesson is marked complete.
// Certificate is set once every active lesson is done and the classroom issues certificates.
type CompletionResult struct {
	Progress    models.ClassroomProgress     `json:"progress"`
	Certificate *models.ClassroomCertificate `json:"certificate,omitempty"`
}

// CompleteContent marks a lesson as done for userID. With enforced progression
// every earlier active lesson must be complete first.
func (s *ClassroomService) CompleteContent(ctx context.Context, userID, contentID uint) (*CompletionResult, error) {
	content, room, err := s.contentWithRoom(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if !content.IsActive {
		return nil, models.NewValidationError("This lesson is not available.")
	}
	if err := s.access.RequireAccess(ctx, userID, room.CommunityID, room.PaymentPlans); err != nil {
		return nil, err
	}

	contents, err := s.classrooms.ListContents(ctx, room.ID, true)
	if err != nil {
		return nil, err
	}
	done, err := s.classrooms.CompletedContentIDs(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}

	if room.EnforceProgression {
		for _, c := range contents {
			if c.ID == content.ID {
				break
			}
			if !slices.Contains(done, c.ID) {
				return nil, models.NewValidationError("Complete the previous lessons first.")
			}
		}
	}

	result := &CompletionResult{}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		completion := &models.ClassroomContentCompletion{
			ContentID:   content.ID,
			UserID:      userID,
			CompletedAt: now(),
		}
		if err := s.classrooms.CreateCompletion(ctx, completion); err != nil {
			return err
		}
		if !slices.Contains(done, content.ID) {
			done = append(done, content.ID)
		}
		result.Progress = models.ClassroomProgress{Total: int64(len(contents)), Completed: int64(len(done))}

		if !room.IssueCertificate || result.Progress.Completed < result.Progress.Total {
			return nil
		}
		cert, err := s.classrooms.GetCertificate(ctx, room.ID, userID)
		if err != nil {
			return err
		}
		if cert == nil {
			cert = &models.ClassroomCertificate{ClassroomID: room.ID, UserID: userID, IssuedAt: now()}
			if err := s.classrooms.CreateCertificate(ctx, cert); err != nil {
				return err
			}
			observability.RecordEvent(observability.EventCertificateIssued)
			observability.Logger.InfoContext(ctx, "classroom certificate issued",
				slog.Uint64("classroom_id", uint64(room.ID)),
				slog.Uint64("user_id", uint64(userID)),
			)
		}
		result.Certificate = cert
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Progress reports how many active lessons userID has completed.
func (s *ClassroomService) Progress(ctx context.Context, userID, classroomID uint) (models.ClassroomProgress, error) {
	contents, err := s.classrooms.ListContents(ctx, classroomID, true)
	if err != nil {
		return models.ClassroomProgress{}, err
	}
	done, err := s.classrooms.CompletedContentIDs(ctx, classroomID, userID)
	if err != nil {
		return models.ClassroomProgress{}, err
	}
	return models.ClassroomProgress{Total: int64(len(contents)), Completed: int64(len(done))}, nil
}

func (s *ClassroomService) contentWithRoom(ctx context.Context, contentID uint) (*models.ClassroomContent, *models.Classroom, error) {
	content, err := s.classrooms.GetContent(ctx, contentID)
	if err != nil {
		return nil, nil, err
	}
	room, err := s.classrooms.GetByID(ctx, content.ClassroomID)
	if err != nil {
		return nil, nil, err
	}
	return content, room, nil
}
