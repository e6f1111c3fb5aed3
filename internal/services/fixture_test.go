package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"forum/internal/models"
	"forum/internal/services/memstore"
	"forum/internal/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	utils.SetLogger(utils.NewNopLogger())
}

// fakeClock 每次调用前进一秒，保证创建时间严格递增
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

// recordingNotifier 记录推送的审核事件
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.ModerationEvent
}

func (n *recordingNotifier) Publish(event models.ModerationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []models.ModerationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.ModerationEvent{}, n.events...)
}

type fixture struct {
	store      *memstore.Store
	clock      *fakeClock
	notifier   *recordingNotifier
	tags       *TagService
	categories *CategoryService
	types      *ProblemTypeService
	problems   *ProblemService
	daily      *DailyProblemService
	comments   *CommentService
	reports    *ReportService
	roles      *RoleService
	users      *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	clock := newFakeClock()
	notifier := &recordingNotifier{}
	hasher := utils.NewBcryptHasher(bcrypt.MinCost)

	f := &fixture{store: store, clock: clock, notifier: notifier}
	f.tags = NewTagService(store)
	f.tags.now = clock.Now
	f.categories = NewCategoryService(store)
	f.categories.now = clock.Now
	f.types = NewProblemTypeService(store)
	f.types.now = clock.Now
	f.problems = NewProblemService(store, store, store, f.tags, DefaultMaxPageSize)
	f.problems.now = clock.Now
	f.daily = NewDailyProblemService(store, f.problems)
	f.daily.now = clock.Now
	f.roles = NewRoleService(store)
	f.roles.now = clock.Now
	f.users = NewUserService(store, f.roles, hasher, nil)
	f.users.now = clock.Now
	f.comments = NewCommentService(store, store, f.users, DefaultMaxPageSize)
	f.comments.now = clock.Now
	f.reports = NewReportService(store, notifier, DefaultMaxPageSize)
	f.reports.now = clock.Now

	require.NoError(t, f.users.EnsureDefaults(context.Background(), nil, ""))
	return f
}

func (f *fixture) newUser(t *testing.T, username string, roles ...string) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.users.Register(ctx, models.RegisterRequest{
		Username: username,
		Password: "secret123",
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	if len(roles) > 0 {
		user, err = f.users.AssignRoles(ctx, user.ID, append(user.RoleCodes(), roles...))
		require.NoError(t, err)
	}
	return user
}

func (f *fixture) newProblem(t *testing.T, subject, title string, difficulty int, tagNames ...string) *models.Problem {
	t.Helper()
	p, err := f.problems.Create(context.Background(), 1, models.CreateProblemRequest{
		Title:      title,
		Subject:    subject,
		Content:    "content of " + title,
		Difficulty: difficulty,
		TagNames:   tagNames,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) publishedProblem(t *testing.T, subject, title string) *models.Problem {
	t.Helper()
	p := f.newProblem(t, subject, title, 3)
	p, err := f.problems.Publish(context.Background(), p.ID)
	require.NoError(t, err)
	return p
}

func uintp(v uint) *uint { return &v }

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }
