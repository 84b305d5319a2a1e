package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahoaccounts/cache"
	"github.com/princinho/sahoaccounts/models"
)

// FakeUserStore is an in-memory UserStore. Like the real store it
// enforces email uniqueness atomically, which is what the concurrent
// activation test depends on. "Hashing" is a reversible marker so tests
// stay fast.
type FakeUserStore struct {
	mu        sync.Mutex
	byEmail   map[string]*models.User
	createErr error
	findErr   error
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{byEmail: make(map[string]*models.User)}
}

func fakeHash(password string) string {
	if password == "" {
		return ""
	}
	return "hashed:" + password
}

func (f *FakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	user, ok := f.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *FakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID.Hex() == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *FakeUserStore) Create(_ context.Context, params CreateUserParams) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[params.Email]; exists {
		return nil, ErrDuplicateEmail
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           bson.NewObjectID(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: fakeHash(params.Password),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if params.AvatarURL != "" {
		user.Avatar = &models.Avatar{URL: params.AvatarURL}
	}
	f.byEmail[params.Email] = user
	copied := *user
	return &copied, nil
}

func (f *FakeUserStore) ComparePassword(user *models.User, password string) bool {
	return user.PasswordHash != "" && user.PasswordHash == fakeHash(password)
}

func (f *FakeUserStore) UpdateInfo(ctx context.Context, id string, params UpdateUserParams) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.findLocked(id)
	if user == nil {
		return nil, ErrUserNotFound
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Email != nil && *params.Email != user.Email {
		if _, exists := f.byEmail[*params.Email]; exists {
			return nil, ErrDuplicateEmail
		}
		delete(f.byEmail, user.Email)
		user.Email = *params.Email
		f.byEmail[user.Email] = user
	}
	user.UpdatedAt = time.Now().UTC()
	copied := *user
	return &copied, nil
}

func (f *FakeUserStore) UpdatePassword(_ context.Context, id string, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.findLocked(id)
	if user == nil {
		return ErrUserNotFound
	}
	user.PasswordHash = fakeHash(newPassword)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *FakeUserStore) UpdateAvatar(_ context.Context, id string, avatar *models.Avatar) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.findLocked(id)
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.Avatar = avatar
	user.UpdatedAt = time.Now().UTC()
	copied := *user
	return &copied, nil
}

func (f *FakeUserStore) List(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]*models.User, 0, len(f.byEmail))
	for _, user := range f.byEmail {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

func (f *FakeUserStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

func (f *FakeUserStore) findLocked(id string) *models.User {
	for _, user := range f.byEmail {
		if user.ID.Hex() == id {
			return user
		}
	}
	return nil
}

// sentMail captures one delivery for assertions.
type sentMail struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

// FakeMailer records sends and can be told to fail.
type FakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

func (f *FakeMailer) Send(_ context.Context, to, subject, template string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	payload, _ := data.(map[string]any)
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Template: template, Data: payload})
	return nil
}

func (f *FakeMailer) LastSent() (sentMail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}, false
	}
	return f.sent[len(f.sent)-1], true
}

// countingCache wraps the in-memory cache and counts writes, so tests
// can assert an operation performed no cache mutation.
type countingCache struct {
	*cache.MemoryCache
	mu      sync.Mutex
	puts    int
	deletes int
}

func newCountingCache() *countingCache {
	return &countingCache{MemoryCache: cache.NewMemoryCache()}
}

func (c *countingCache) Put(ctx context.Context, userID string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.MemoryCache.Put(ctx, userID, data, ttl)
}

func (c *countingCache) Delete(ctx context.Context, userID string) (bool, error) {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.MemoryCache.Delete(ctx, userID)
}

func (c *countingCache) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}
