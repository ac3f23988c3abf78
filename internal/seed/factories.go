package seed

import (
	"context"
	"fmt"
	"log/slog"

	"rockae/internal/bootstrap"
	"rockae/internal/models"
	"rockae/internal/observability"
	"rockae/internal/service"
	"rockae/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoPassword is shared by every generated account. It satisfies the password policy.
const DemoPassword = "Demo-Passw0rd!"

// Services are the entry points the factory writes through, so generated data
// passes the same validation as real input.
type Services struct {
	Users       *service.UserService
	Communities *service.CommunityService
	Memberships *service.MembershipService
	Plans       *service.PlanService
	Forums      *service.ForumService
	Polls       *service.PollService
}

// FromRuntime picks the services the factory needs.
func FromRuntime(all *bootstrap.Services) Services {
	return Services{
		Users:       all.Users,
		Communities: all.Communities,
		Memberships: all.Memberships,
		Plans:       all.Plans,
		Forums:      all.Forums,
		Polls:       all.Polls,
	}
}

// Options sizes the demo dataset.
type Options struct {
	Users          int
	Communities    int
	MembersPerComm int
	PostsPerComm   int
}

// DefaultOptions is a small dataset suitable for local development.
var DefaultOptions = Options{Users: 20, Communities: 3, MembersPerComm: 8, PostsPerComm: 10}

// Factory builds demo entities with gofakeit.
type Factory struct {
	svc   Services
	faker *gofakeit.Faker
	n     int
}

// NewFactory returns a factory. A non-zero seed makes the generated data reproducible.
func NewFactory(svc Services, seed int64) *Factory {
	return &Factory{svc: svc, faker: gofakeit.New(seed)}
}

// User registers a verified-looking account with a unique email and username.
func (f *Factory) User(ctx context.Context) (*models.User, error) {
	f.n++
	handle := validation.SlugOrPlaceholder(f.faker.FirstName()+" "+f.faker.LastName(), "member")
	username := fmt.Sprintf("%s-%d", handle, f.n)
	user, err := f.svc.Users.CreateUser(ctx, service.CreateUserInput{
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: DemoPassword,
		Username: &username,
	})
	if err != nil {
		return nil, err
	}
	_, err = f.svc.Users.SaveProfile(ctx, user.ID, service.ProfileInput{
		FirstName: f.faker.FirstName(),
		LastName:  f.faker.LastName(),
		Bio:       ptr(f.faker.Sentence(12)),
		Interests: []string{f.faker.Hobby(), f.faker.Hobby()},
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Community creates an open community owned by ownerID with a paid plan next
// to the default free one.
func (f *Factory) Community(ctx context.Context, ownerID uint) (*models.Community, error) {
	c, err := f.svc.Communities.CreateCommunity(ctx, ownerID, service.CreateCommunityInput{
		Name:        f.faker.Company(),
		Summary:     ptr(f.faker.Sentence(8)),
		Description: ptr(f.faker.Paragraph(2, 3, 10, "\n\n")),
		Category:    ptr(f.faker.Hobby()),
		IsOpen:      true,
		Tags:        []string{f.faker.Hobby(), f.faker.Word()},
	})
	if err != nil {
		return nil, err
	}
	_, err = f.svc.Plans.CreatePlan(ctx, ownerID, c.ID, service.PlanInput{
		Name:        "Supporter",
		Description: ptr(f.faker.Sentence(6)),
		Fee:         f.faker.Price(5, 50),
		IsRecurring: true,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Demo is what a demo run created.
type Demo struct {
	Users       []*models.User
	Communities []*models.Community
	Posts       int
}

// SeedDemo fills the database with users, communities, memberships, forum
// posts and one poll per community.
func (f *Factory) SeedDemo(ctx context.Context, opts Options) (*Demo, error) {
	if opts.Users < 1 || opts.Communities < 1 {
		return nil, fmt.Errorf("demo needs at least one user and one community")
	}
	demo := &Demo{}
	for range opts.Users {
		u, err := f.User(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		demo.Users = append(demo.Users, u)
	}

	for i := range opts.Communities {
		owner := demo.Users[i%len(demo.Users)]
		c, err := f.Community(ctx, owner.ID)
		if err != nil {
			return nil, fmt.Errorf("create community: %w", err)
		}
		demo.Communities = append(demo.Communities, c)

		members := []*models.User{owner}
		for _, u := range f.pick(demo.Users, opts.MembersPerComm) {
			if u.ID == owner.ID {
				continue
			}
			if _, err := f.svc.Memberships.Join(ctx, u.ID, c.ID); err != nil {
				return nil, fmt.Errorf("join community %d: %w", c.ID, err)
			}
			members = append(members, u)
		}

		n, err := f.posts(ctx, c, members, opts.PostsPerComm)
		if err != nil {
			return nil, err
		}
		demo.Posts += n
		if err := f.poll(ctx, c, owner, members); err != nil {
			return nil, err
		}
	}

	observability.Logger.InfoContext(ctx, "demo data seeded",
		slog.Int("users", len(demo.Users)),
		slog.Int("communities", len(demo.Communities)),
		slog.Int("posts", demo.Posts),
	)
	return demo, nil
}

func (f *Factory) posts(ctx context.Context, c *models.Community, members []*models.User, count int) (int, error) {
	_, forum, err := f.svc.Communities.ProvisionDefaults(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	var threads []*models.Post
	for i := range count {
		author := members[f.faker.Number(0, len(members)-1)]
		input := service.PostInput{Message: f.faker.Paragraph(1, 3, 12, " ")}
		// Every third post answers an earlier thread.
		if i%3 == 2 && len(threads) > 0 {
			input.ParentPostID = &threads[f.faker.Number(0, len(threads)-1)].ID
			input.Message = f.faker.Sentence(10)
		}
		post, err := f.svc.Forums.CreatePost(ctx, author.ID, forum.ID, input)
		if err != nil {
			return i, fmt.Errorf("create post in community %d: %w", c.ID, err)
		}
		if post.ParentPostID == nil {
			threads = append(threads, post)
		}
	}
	return count, nil
}

func (f *Factory) poll(ctx context.Context, c *models.Community, owner *models.User, members []*models.User) error {
	options := []string{f.faker.Word(), f.faker.Word(), f.faker.Word()}
	poll, err := f.svc.Polls.CreatePoll(ctx, owner.ID, c.ID, service.PollInput{
		Title:   f.faker.Question(),
		Options: options,
	})
	if err != nil {
		return fmt.Errorf("create poll in community %d: %w", c.ID, err)
	}
	results, err := f.svc.Polls.Results(ctx, poll.ID)
	if err != nil {
		return err
	}
	for _, m := range members {
		choice := results[f.faker.Number(0, len(results)-1)]
		if _, err := f.svc.Polls.Vote(ctx, m.ID, poll.ID, choice.OptionID); err != nil {
			return fmt.Errorf("vote in poll %d: %w", poll.ID, err)
		}
	}
	return nil
}

// pick returns up to n users in random order.
func (f *Factory) pick(users []*models.User, n int) []*models.User {
	shuffled := make([]*models.User, len(users))
	copy(shuffled, users)
	f.faker.ShuffleAnySlice(shuffled)
	return shuffled[:min(n, len(shuffled))]
}

func ptr[T any](v T) *T {
	return &v
}
