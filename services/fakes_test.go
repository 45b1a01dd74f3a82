package services

import (
	"sync"
	"time"

	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/store"
)

// fixedClock returns a Clock pinned to t.
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// movableClock is a Clock whose current time can be advanced from the
// test body.
type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMovableClock(start time.Time) *movableClock {
	return &movableClock{now: start}
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	failWith error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]models.Session{}}
}

func (f *fakeSessionStore) Create(session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.sessions[session.Token] = *session
	return nil
}

func (f *fakeSessionStore) FindByToken(token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	session, ok := f.sessions[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &session, nil
}

func (f *fakeSessionStore) Touch(token string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if session, ok := f.sessions[token]; ok {
		session.LastUsedAt = now
		f.sessions[token] = session
	}
	return nil
}

func (f *fakeSessionStore) DeleteByToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) DeleteAllForUser(userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

func (f *fakeSessionStore) get(token string) (models.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[token]
	return session, ok
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[uint]models.User{}}
}

func (f *fakeUserStore) add(user models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	}
	f.users[user.ID] = user
	return &user
}

func (f *fakeUserStore) Create(user *models.User) error {
	created := f.add(*user)
	user.ID = created.ID
	return nil
}

func (f *fakeUserStore) FindByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (f *fakeUserStore) FindByEmail(email string) (*models.User, error) {
	return f.findBy(func(u models.User) bool { return u.Email == email })
}

func (f *fakeUserStore) FindByActivationToken(token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return f.findBy(func(u models.User) bool { return u.ActivationToken == token })
}

func (f *fakeUserStore) FindByPasswordResetToken(token string) (*models.User, error) {
	if token == "" {
		return nil, store.ErrNotFound
	}
	return f.findBy(func(u models.User) bool { return u.PasswordResetToken == token })
}

func (f *fakeUserStore) findBy(match func(models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if match(user) {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) Update(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) ListActive(page, size int, excludeID uint) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []models.User
	for _, user := range f.users {
		if !user.Inactive && user.ID != excludeID {
			active = append(active, user)
		}
	}
	return active, int64(len(active)), nil
}

type fakeAttachmentStore struct {
	mu          sync.Mutex
	nextID      uint
	attachments map[uint]models.FileAttachment
	createErr   error
	deleteErr   error
}

func newFakeAttachmentStore() *fakeAttachmentStore {
	return &fakeAttachmentStore{nextID: 1, attachments: map[uint]models.FileAttachment{}}
}

func (f *fakeAttachmentStore) Create(attachment *models.FileAttachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	attachment.ID = f.nextID
	f.nextID++
	f.attachments[attachment.ID] = *attachment
	return nil
}

func (f *fakeAttachmentStore) FindByID(id uint) (*models.FileAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attachment, ok := f.attachments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &attachment, nil
}

func (f *fakeAttachmentStore) FindByPost(postID uint) (*models.FileAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, attachment := range f.attachments {
		if attachment.PostID != nil && *attachment.PostID == postID {
			a := attachment
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeAttachmentStore) Associate(attachmentID, postID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attachment, ok := f.attachments[attachmentID]
	if !ok || attachment.PostID != nil {
		// first association wins, unknown ids are a no-op
		return nil
	}
	attachment.PostID = &postID
	f.attachments[attachmentID] = attachment
	return nil
}

func (f *fakeAttachmentStore) FindOrphansBefore(cutoff time.Time, limit int) ([]models.FileAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orphans []models.FileAttachment
	for _, attachment := range f.attachments {
		if attachment.PostID == nil && attachment.UploadDate.Before(cutoff) && len(orphans) < limit {
			orphans = append(orphans, attachment)
		}
	}
	return orphans, nil
}

func (f *fakeAttachmentStore) FindForUserPosts(userID uint) ([]models.FileAttachment, error) {
	return nil, nil
}

func (f *fakeAttachmentStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.attachments, id)
	return nil
}

func (f *fakeAttachmentStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attachments)
}

type fakePostStore struct {
	mu     sync.Mutex
	nextID uint
	posts  map[uint]models.Post
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{nextID: 1, posts: map[uint]models.Post{}}
}

func (f *fakePostStore) Create(post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	post.ID = f.nextID
	f.nextID++
	f.posts[post.ID] = *post
	return nil
}

func (f *fakePostStore) FindByID(id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &post, nil
}

func (f *fakePostStore) List(page, size int, userID uint) ([]models.Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var posts []models.Post
	for _, post := range f.posts {
		if userID == 0 || post.UserID == userID {
			posts = append(posts, post)
		}
	}
	return posts, int64(len(posts)), nil
}

func (f *fakePostStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	return nil
}

func (f *fakePostStore) DeleteAllForUser(userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, post := range f.posts {
		if post.UserID == userID {
			delete(f.posts, id)
		}
	}
	return nil
}

type fakeMailer struct {
	mu              sync.Mutex
	activationSent  []string
	activationToken string
	resetSent       []string
	resetToken      string
	failWith        error
}

func (f *fakeMailer) SendAccountActivation(email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.activationSent = append(f.activationSent, email)
	f.activationToken = token
	return nil
}

func (f *fakeMailer) SendPasswordReset(email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.resetSent = append(f.resetSent, email)
	f.resetToken = token
	return nil
}
