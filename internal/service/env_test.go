package service

import (
	"context"
	"testing"

	"rockae/internal/cache"
	"rockae/internal/models"
	"rockae/internal/repository"
	"rockae/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv wires every service over one in-memory database.
type testEnv struct {
	db    *gorm.DB
	cache *cache.Cache
	redis *miniredis.Miniredis

	communities *CommunityService
	memberships *MembershipService
	plans       *PlanService
	users       *UserService
	blogs       *BlogService
	forums      *ForumService
	chats       *ChatService
	classrooms  *ClassroomService
	feedback    *FeedbackService
	meetings    *MeetingService
	polls       *PollService
	feeds       *PublicFeedService
	quizzes     *QuizService
	wheels      *WheelService
	billing     *BillingService
	access      *AccessService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client)

	tx := repository.NewTransactor(db)
	communityRepo := repository.NewCommunityRepository(db)
	memberRepo := repository.NewMembershipRepository(db)
	planRepo := repository.NewPlanRepository(db)
	forumRepo := repository.NewForumRepository(db)
	tagRepo := repository.NewTagRepository(db)
	userRepo := repository.NewUserRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	billingRepo := repository.NewBillingRepository(db)

	access := NewAccessService(memberRepo, billingRepo)
	return &testEnv{
		db:          db,
		cache:       c,
		redis:       mr,
		access:      access,
		communities: NewCommunityService(tx, communityRepo, memberRepo, planRepo, forumRepo, tagRepo, c),
		memberships: NewMembershipService(tx, communityRepo, memberRepo, userRepo, feedbackRepo),
		plans:       NewPlanService(planRepo, memberRepo),
		users:       NewUserService(tx, userRepo, tagRepo),
		blogs:       NewBlogService(repository.NewBlogRepository(db), memberRepo),
		forums:      NewForumService(tx, communityRepo, memberRepo, planRepo, forumRepo, access),
		chats:       NewChatService(repository.NewChatRepository(db), memberRepo),
		classrooms:  NewClassroomService(tx, memberRepo, planRepo, repository.NewClassroomRepository(db), access),
		feedback:    NewFeedbackService(feedbackRepo, memberRepo),
		meetings:    NewMeetingService(tx, memberRepo, planRepo, repository.NewMeetingRepository(db), userRepo, access),
		polls:       NewPollService(tx, memberRepo, planRepo, repository.NewPollRepository(db), access),
		feeds:       NewPublicFeedService(memberRepo, repository.NewPublicFeedRepository(db)),
		quizzes:     NewQuizService(tx, memberRepo, planRepo, repository.NewQuizRepository(db), access),
		wheels:      NewWheelService(tx, memberRepo, repository.NewWheelRepository(db)),
		billing:     NewBillingService(tx, billingRepo, planRepo, memberRepo, c, 2),
	}
}

// community creates a community owned by a fresh user through the service.
func (e *testEnv) community(t *testing.T, name string) (*models.Community, *models.User) {
	t.Helper()
	owner := testutil.CreateUser(t, e.db, "owner")
	c, err := e.communities.CreateCommunity(context.Background(), owner.ID, CreateCommunityInput{Name: name, IsOpen: true})
	require.NoError(t, err)
	return c, owner
}

// member creates a user holding role in communityID.
func (e *testEnv) member(t *testing.T, communityID uint, role models.MemberRole) *models.User {
	t.Helper()
	u := testutil.CreateUser(t, e.db, string(role))
	testutil.AddMember(t, e.db, communityID, u.ID, role)
	return u
}

// paidPlan creates an active paid plan in communityID.
func (e *testEnv) paidPlan(t *testing.T, communityID uint, name string) *models.PaymentPlan {
	t.Helper()
	p := &models.PaymentPlan{CommunityID: communityID, Name: name, Fee: 10, IsActive: true}
	require.NoError(t, e.db.Create(p).Error)
	return p
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, field)
}
