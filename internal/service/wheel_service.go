package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"rockae/internal/models"
	"rockae/internal/notifications"
	"rockae/internal/observability"
	"rockae/internal/repository"
	"rockae/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// MinWheelParticipants is the number of approved participants needed to start a wheel.
const MinWheelParticipants = 2

// WheelService runs favor-exchange wheels.
type WheelService struct {
	tx      repository.Transactor
	members repository.MembershipRepository
	wheels  repository.WheelRepository
	notify  Publisher
}

func NewWheelService(tx repository.Transactor, members repository.MembershipRepository, wheels repository.WheelRepository) *WheelService {
	return &WheelService{tx: tx, members: members, wheels: wheels}
}

// WithPublisher tells handoff parties about progress through p.
func (s *WheelService) WithPublisher(p Publisher) *WheelService {
	s.notify = p
	return s
}

type WheelInput struct {
	Title                *string          `json:"title" validate:"omitempty,max=255"`
	RequestMessage       string           `json:"request_message" validate:"required"`
	Mode                 models.WheelMode `json:"mode" validate:"omitempty,oneof=chain collective"`
	MaxFavorDurationDays *float64         `json:"max_favor_duration_days" validate:"omitempty,gte=0,lte=999"`
	MaxMembers           *uint            `json:"max_members" validate:"omitempty,gte=2"`
	Notes                *string          `json:"notes"`
}

// CreateWheel starts a draft wheel. Only staff may create wheels.
func (s *WheelService) CreateWheel(ctx context.Context, actorID, communityID uint, input WheelInput) (wheel *models.Wheel, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "wheel", "CreateWheel")
	defer span.Finish(&err)

	input.RequestMessage = trimmed(input.RequestMessage)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, communityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	if input.Mode == "" {
		input.Mode = models.WheelChain
	}

	wheel = &models.Wheel{
		CommunityID:          communityID,
		CreatedByID:          actorID,
		Title:                input.Title,
		RequestMessage:       input.RequestMessage,
		Status:               models.WheelDraft,
		Mode:                 input.Mode,
		MaxFavorDurationDays: input.MaxFavorDurationDays,
		MaxMembers:           input.MaxMembers,
		Notes:                input.Notes,
	}
	if err := s.wheels.Create(ctx, wheel); err != nil {
		return nil, err
	}
	return wheel, nil
}

func (s *WheelService) GetWheel(ctx context.Context, wheelID uint) (*models.Wheel, error) {
	return s.wheels.GetByID(ctx, wheelID)
}

func (s *WheelService) ListWheels(ctx context.Context, communityID uint) ([]models.Wheel, error) {
	return s.wheels.List(ctx, communityID)
}

// TransitionStatus moves the wheel along its lifecycle. Starting a wheel needs
// at least two approved participants.
func (s *WheelService) TransitionStatus(ctx context.Context, actorID, wheelID uint, next models.WheelStatus) (*models.Wheel, error) {
	if !next.Valid() {
		return nil, models.NewFieldValidationError("status", fmt.Sprintf("%q is not a valid wheel status.", next))
	}
	wheel, err := s.staffWheel(ctx, actorID, wheelID)
	if err != nil {
		return nil, err
	}
	if !wheel.Status.CanTransitionTo(next) {
		return nil, models.NewBadRequestError(
			fmt.Sprintf("A %s wheel cannot become %s.", wheel.Status, next), "INVALID_TRANSITION")
	}
	if next == models.WheelInProgress {
		approved, err := s.approvedParticipants(ctx, wheelID)
		if err != nil {
			return nil, err
		}
		if len(approved) < MinWheelParticipants {
			return nil, models.NewValidationError(
				fmt.Sprintf("A wheel needs at least %d approved participants to start.", MinWheelParticipants))
		}
	}

	wheel.Status = next
	if err := s.wheels.Update(ctx, wheel); err != nil {
		return nil, err
	}
	return wheel, nil
}

// AddParticipant appends a member at the next free position, already approved.
func (s *WheelService) AddParticipant(ctx context.Context, actorID, wheelID, userID uint, preference *string) (*models.WheelParticipant, error) {
	wheel, err := s.staffWheel(ctx, actorID, wheelID)
	if err != nil {
		return nil, err
	}
	maxOrder, err := s.wheels.MaxOrder(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	return s.addApproved(ctx, actorID, wheel, userID, maxOrder+1, preference)
}

// AddParticipantAt places a member at an explicit 1-based position. Taken positions are rejected.
func (s *WheelService) AddParticipantAt(ctx context.Context, actorID, wheelID, userID, position uint, preference *string) (*models.WheelParticipant, error) {
	if position < 1 {
		return nil, models.NewFieldValidationError("order", "Positions start at 1.")
	}
	wheel, err := s.staffWheel(ctx, actorID, wheelID)
	if err != nil {
		return nil, err
	}
	participants, err := s.wheels.ListParticipants(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(participants, func(p models.WheelParticipant) bool { return p.Order == position }) {
		return nil, models.NewFieldValidationError("order", fmt.Sprintf("Position %d is already taken in this wheel.", position))
	}
	return s.addApproved(ctx, actorID, wheel, userID, position, preference)
}

func (s *WheelService) addApproved(ctx context.Context, actorID uint, wheel *models.Wheel, userID, position uint, preference *string) (*models.WheelParticipant, error) {
	if err := s.checkJoinable(ctx, wheel, userID); err != nil {
		return nil, err
	}
	p := &models.WheelParticipant{
		WheelID:           wheel.ID,
		UserID:            userID,
		Order:             position,
		PreferenceMessage: preference,
		ApprovalStatus:    models.ApprovalApproved,
		ApprovedByID:      ptr(actorID),
		ApprovedAt:        ptr(now()),
	}
	if err := s.wheels.AddParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Join asks to take part in a wheel that is open for joining. Staff approve the request later.
func (s *WheelService) Join(ctx context.Context, userID, wheelID uint, preference *string) (*models.WheelParticipant, error) {
	wheel, err := s.wheels.GetByID(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	if wheel.Status != models.WheelOpenForJoin {
		return nil, models.NewValidationError("This wheel is not open for joining.")
	}
	if err := s.checkJoinable(ctx, wheel, userID); err != nil {
		return nil, err
	}
	maxOrder, err := s.wheels.MaxOrder(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	p := &models.WheelParticipant{
		WheelID:           wheelID,
		UserID:            userID,
		Order:             maxOrder + 1,
		PreferenceMessage: preference,
		ApprovalStatus:    models.ApprovalPending,
	}
	if err := s.wheels.AddParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *WheelService) checkJoinable(ctx context.Context, wheel *models.Wheel, userID uint) error {
	if wheel.Status == models.WheelCompleted || wheel.Status == models.WheelCancelled {
		return models.NewValidationError("This wheel has ended.")
	}
	if _, err := requireRole(ctx, s.members, wheel.CommunityID, userID); err != nil {
		return err
	}
	existing, err := s.wheels.GetParticipantByUser(ctx, wheel.ID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewValidationError("This user is already in the wheel.")
	}
	if wheel.MaxMembers != nil {
		n, err := s.wheels.CountParticipants(ctx, wheel.ID)
		if err != nil {
			return err
		}
		if n >= int64(*wheel.MaxMembers) {
			return models.NewValidationError("This wheel is full.")
		}
	}
	return nil
}

// SetApproval approves or rejects a pending participant.
func (s *WheelService) SetApproval(ctx context.Context, actorID, participantID uint, next models.ApprovalStatus) (*models.WheelParticipant, error) {
	p, err := s.wheels.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.staffWheel(ctx, actorID, p.WheelID); err != nil {
		return nil, err
	}
	if !p.ApprovalStatus.CanTransitionTo(next) {
		return nil, models.NewBadRequestError(
			fmt.Sprintf("A %s participant cannot become %s.", p.ApprovalStatus, next), "INVALID_TRANSITION")
	}
	p.ApprovalStatus = next
	p.ApprovedByID = ptr(actorID)
	p.ApprovedAt = ptr(now())
	if err := s.wheels.UpdateParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *WheelService) ListParticipants(ctx context.Context, wheelID uint) ([]models.WheelParticipant, error) {
	return s.wheels.ListParticipants(ctx, wheelID)
}

// PlanHandoffs pairs givers with receivers by position. In chain mode each
// position acts for the next one and the last position gives to nobody. In
// collective mode every other position acts for recipient.
func PlanHandoffs(mode models.WheelMode, positions []uint, recipient uint) ([]models.HandoffPlan, error) {
	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	if len(slices.Compact(slices.Clone(sorted))) != len(sorted) {
		return nil, models.NewValidationError("Participant positions must be unique.")
	}

	var plans []models.HandoffPlan
	switch mode {
	case models.WheelChain:
		for i := 0; i+1 < len(sorted); i++ {
			plans = append(plans, models.HandoffPlan{From: sorted[i], To: sorted[i+1]})
		}
	case models.WheelCollective:
		if !slices.Contains(sorted, recipient) {
			return nil, models.NewFieldValidationError("recipient", fmt.Sprintf("No participant holds position %d.", recipient))
		}
		for _, pos := range sorted {
			if pos != recipient {
				plans = append(plans, models.HandoffPlan{From: pos, To: recipient})
			}
		}
	default:
		return nil, models.NewFieldValidationError("mode", fmt.Sprintf("%q is not a valid wheel mode.", mode))
	}
	return plans, nil
}

// CreateHandoffs stores the planned handoffs of a running wheel. Existing
// handoffs for a giver are kept, so calling it again only fills gaps.
// recipient is the receiving position and only matters in collective mode.
func (s *WheelService) CreateHandoffs(ctx context.Context, actorID, wheelID, recipient uint) (handoffs []models.WheelHandoff, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "wheel", "CreateHandoffs")
	defer span.Finish(&err)

	wheel, err := s.staffWheel(ctx, actorID, wheelID)
	if err != nil {
		return nil, err
	}
	if wheel.Status != models.WheelInProgress {
		return nil, models.NewValidationError("Handoffs can only be created for a wheel in progress.")
	}
	approved, err := s.approvedParticipants(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	byPosition := make(map[uint]models.WheelParticipant, len(approved))
	positions := make([]uint, 0, len(approved))
	for _, p := range approved {
		byPosition[p.Order] = p
		positions = append(positions, p.Order)
	}
	plans, err := PlanHandoffs(wheel.Mode, positions, recipient)
	if err != nil {
		return nil, err
	}

	created := 0
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, plan := range plans {
			h := &models.WheelHandoff{
				WheelID:           wheelID,
				FromParticipantID: byPosition[plan.From].ID,
				ToParticipantID:   byPosition[plan.To].ID,
				Status:            models.HandoffPending,
			}
			isNew, err := s.wheels.GetOrCreateHandoff(ctx, h)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
			handoffs = append(handoffs, *h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.AddAttributes(attribute.Int("wheel.handoffs_created", created))
	if created > 0 {
		observability.RecordEvent(observability.EventWheelHandoffChanged)
	}
	return handoffs, nil
}

// MarkActionDone lets the giver report the favor as done.
func (s *WheelService) MarkActionDone(ctx context.Context, userID, handoffID uint, note *string) (*models.WheelHandoff, error) {
	h, err := s.wheels.GetHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}
	if h.FromParticipant == nil || h.FromParticipant.UserID != userID {
		return nil, models.NewForbiddenError("Only the giver can mark this handoff as done.")
	}
	if err := s.advance(h, models.HandoffActionDone); err != nil {
		return nil, err
	}
	if note != nil {
		h.Note = note
	}
	if err := s.wheels.UpdateHandoff(ctx, h); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventWheelHandoffChanged)
	if s.notify != nil && h.ToParticipant != nil {
		logPublishError(ctx, notifications.EventHandoffDone,
			s.notify.PublishUser(ctx, h.ToParticipant.UserID, notifications.EventHandoffDone, h))
	}
	return h, nil
}

// Acknowledge confirms a completed favor. Any approved participant of the wheel may confirm.
func (s *WheelService) Acknowledge(ctx context.Context, userID, handoffID uint) (*models.WheelHandoff, error) {
	h, err := s.wheels.GetHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}
	p, err := s.wheels.GetParticipantByUser(ctx, h.WheelID, userID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ApprovalStatus != models.ApprovalApproved {
		return nil, models.NewForbiddenError("Only wheel participants can acknowledge a handoff.")
	}
	if err := s.advance(h, models.HandoffAcknowledged); err != nil {
		return nil, err
	}
	h.AcknowledgedAt = ptr(now())
	h.AcknowledgedByID = ptr(userID)
	if err := s.wheels.UpdateHandoff(ctx, h); err != nil {
		return nil, err
	}

	observability.RecordEvent(observability.EventWheelHandoffChanged)
	observability.Logger.InfoContext(ctx, "wheel handoff acknowledged",
		slog.Uint64("wheel_id", uint64(h.WheelID)),
		slog.Uint64("handoff_id", uint64(h.ID)),
		slog.Uint64("acknowledged_by", uint64(userID)),
	)
	if s.notify != nil && h.FromParticipant != nil {
		logPublishError(ctx, notifications.EventHandoffAcked,
			s.notify.PublishUser(ctx, h.FromParticipant.UserID, notifications.EventHandoffAcked, h))
	}
	return h, nil
}

func (s *WheelService) advance(h *models.WheelHandoff, next models.HandoffStatus) error {
	if !h.Status.CanTransitionTo(next) {
		return models.NewBadRequestError(
			fmt.Sprintf("A %s handoff cannot become %s.", h.Status, next), "INVALID_TRANSITION")
	}
	h.Status = next
	return nil
}

// AddHandoffAttachment stores evidence uploaded by the giver.
func (s *WheelService) AddHandoffAttachment(ctx context.Context, userID, handoffID uint, fileURL string, fileType models.MediaType) (*models.WheelHandoffAttachment, error) {
	if err := checkMedia(fileURL, fileType); err != nil {
		return nil, err
	}
	h, err := s.wheels.GetHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}
	if h.FromParticipant == nil || h.FromParticipant.UserID != userID {
		return nil, models.NewForbiddenError("Only the giver can attach evidence to this handoff.")
	}
	a := &models.WheelHandoffAttachment{WheelHandoffID: handoffID, FileURL: fileURL, FileType: fileType}
	if err := s.wheels.AddHandoffAttachment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *WheelService) ListHandoffs(ctx context.Context, wheelID uint) ([]models.WheelHandoff, error) {
	return s.wheels.ListHandoffs(ctx, wheelID)
}

// VerifySequence compares stored handoffs with the plan derived from approved
// participants and returns one line per mismatch. An empty result means the
// handoffs mirror participant order.
func (s *WheelService) VerifySequence(ctx context.Context, wheelID uint) ([]string, error) {
	wheel, err := s.wheels.GetByID(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	approved, err := s.approvedParticipants(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	handoffs, err := s.wheels.ListHandoffs(ctx, wheelID)
	if err != nil {
		return nil, err
	}

	positionOf := make(map[uint]uint, len(approved))
	positions := make([]uint, 0, len(approved))
	for _, p := range approved {
		positionOf[p.ID] = p.Order
		positions = append(positions, p.Order)
	}

	var problems []string
	stored := make(map[uint]uint, len(handoffs))
	var recipient uint
	for _, h := range handoffs {
		from, okFrom := positionOf[h.FromParticipantID]
		to, okTo := positionOf[h.ToParticipantID]
		if !okFrom || !okTo {
			problems = append(problems, fmt.Sprintf("handoff %d involves a participant who is not approved", h.ID))
			continue
		}
		stored[from] = to
		recipient = to
	}
	if len(handoffs) == 0 {
		return problems, nil
	}

	plans, err := PlanHandoffs(wheel.Mode, positions, recipient)
	if err != nil {
		return nil, err
	}
	expected := make(map[uint]uint, len(plans))
	for _, plan := range plans {
		expected[plan.From] = plan.To
		to, ok := stored[plan.From]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("position %d has no handoff", plan.From))
		case to != plan.To:
			problems = append(problems, fmt.Sprintf("position %d gives to %d, expected %d", plan.From, to, plan.To))
		}
	}
	for from, to := range stored {
		if _, ok := expected[from]; !ok {
			problems = append(problems, fmt.Sprintf("position %d gives to %d but should not give", from, to))
		}
	}
	slices.Sort(problems)
	return problems, nil
}

func (s *WheelService) staffWheel(ctx context.Context, actorID, wheelID uint) (*models.Wheel, error) {
	wheel, err := s.wheels.GetByID(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.members, wheel.CommunityID, actorID, StaffRoles...); err != nil {
		return nil, err
	}
	return wheel, nil
}

func (s *WheelService) approvedParticipants(ctx context.Context, wheelID uint) ([]models.WheelParticipant, error) {
	all, err := s.wheels.ListParticipants(ctx, wheelID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p models.WheelParticipant) bool {
		return p.ApprovalStatus != models.ApprovalApproved
	}), nil
}
