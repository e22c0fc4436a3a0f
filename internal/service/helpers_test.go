package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/queue"
	"github.com/iliyamo/quiz-api/internal/testutil"
	"github.com/iliyamo/quiz-api/internal/utils"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type outbox struct {
	mu     sync.Mutex
	events []queue.EmailEvent
}

func (o *outbox) PublishEmail(_ context.Context, ev queue.EmailEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
	return nil
}

func (o *outbox) last(t *testing.T) queue.EmailEvent {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.events)
	return o.events[len(o.events)-1]
}

var tokenCfg = utils.TokenConfig{
	Secret:     "service-test-secret",
	Algorithm:  "HS256",
	AccessTTL:  15 * time.Minute,
	RefreshTTL: 7 * 24 * time.Hour,
	ResetTTL:   time.Hour,
}

type env struct {
	db    *sql.DB
	clock *testClock
	mail  *outbox
}

func newEnv(t *testing.T) *env {
	return &env{db: testutil.OpenDB(t), clock: &testClock{t: epoch}, mail: &outbox{}}
}

func (e *env) users() *UserService {
	return NewUserService(e.db, tokenCfg, 4, e.mail, e.clock.Now, zap.NewNop())
}

func (e *env) auth() *AuthService { return NewAuthService(e.db, tokenCfg, e.clock.Now) }

func (e *env) categories() *CategoryService { return NewCategoryService(e.db, e.clock.Now) }

func (e *env) questions() *QuestionService { return NewQuestionService(e.db, e.clock.Now) }

func (e *env) quizzes() *QuizService { return NewQuizService(e.db, e.clock.Now) }

// verifiedUser registers and verifies an account with password "password1".
func (e *env) verifiedUser(t *testing.T, name, email string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.users().Register(ctx, RegisterInput{
		Name: name, Email: email, Password: "password1", ConfirmPassword: "password1",
	})
	require.NoError(t, err)
	u, err = e.users().VerifyEmail(ctx, email, e.mail.last(t).Token)
	require.NoError(t, err)
	return u
}

func (e *env) admin(t *testing.T) *model.User {
	t.Helper()
	u := e.verifiedUser(t, "Admin", "admin@example.com")
	_, err := e.db.Exec(`UPDATE users SET user_type = 'admin' WHERE id = ?`, u.ID)
	require.NoError(t, err)
	u.UserType = model.UserTypeAdmin
	return u
}
