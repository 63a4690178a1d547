package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"siteforge/api/internal/config"
	"siteforge/api/internal/generator"
	"siteforge/api/internal/models"
	"siteforge/api/internal/repository"
)

// In-memory store fakes mirroring the repository semantics, including which
// sentinel errors come back for which conflicts.

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret:  "access-secret",
			JWTRefreshSecret: "refresh-secret",
			JWTAccessTTL:     15 * time.Minute,
			JWTRefreshTTL:    24 * time.Hour,
		},
		Storage: config.StorageConfig{
			PublicBaseURL: "https://sites.test",
		},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeUserStore struct {
	orgs  map[string]models.Organization
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		orgs:  make(map[string]models.Organization),
		users: make(map[string]models.User),
	}
}

func (f *fakeUserStore) CreateWithOrganization(_ context.Context, org models.Organization, user models.User) error {
	for _, existing := range f.orgs {
		if existing.Slug == org.Slug {
			return repository.ErrSlugTaken
		}
	}
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	f.orgs[org.ID] = org
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ListByOrganization(_ context.Context, orgID string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeSessionStore struct {
	sessions map[string]models.Session // keyed by refresh token hash
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (f *fakeSessionStore) Create(_ context.Context, session models.Session) error {
	f.sessions[string(session.RefreshTokenHash)] = session
	return nil
}

func (f *fakeSessionStore) Rotate(_ context.Context, oldHash []byte, replacement models.Session) (models.Session, error) {
	old, ok := f.sessions[string(oldHash)]
	if !ok || !old.ExpiresAt.After(time.Now()) {
		return models.Session{}, repository.ErrSessionNotFound
	}
	delete(f.sessions, string(oldHash))
	f.sessions[string(replacement.RefreshTokenHash)] = replacement
	return old, nil
}

func (f *fakeSessionStore) DeleteByHash(_ context.Context, userID string, hash []byte) error {
	if s, ok := f.sessions[string(hash)]; ok && s.UserID == userID {
		delete(f.sessions, string(hash))
	}
	return nil
}

func (f *fakeSessionStore) DeleteByUser(_ context.Context, userID string) error {
	for k, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, k)
		}
	}
	return nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	var out []models.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeOrgStore struct {
	orgs map[string]models.Organization
}

func newFakeOrgStore(orgs ...models.Organization) *fakeOrgStore {
	f := &fakeOrgStore{orgs: make(map[string]models.Organization)}
	for _, o := range orgs {
		f.orgs[o.ID] = o
	}
	return f
}

func (f *fakeOrgStore) GetByID(_ context.Context, id string) (models.Organization, error) {
	o, ok := f.orgs[id]
	if !ok {
		return models.Organization{}, repository.ErrOrganizationNotFound
	}
	return o, nil
}

type fakeSiteStore struct {
	sites map[string]models.Site
}

func newFakeSiteStore() *fakeSiteStore {
	return &fakeSiteStore{sites: make(map[string]models.Site)}
}

func (f *fakeSiteStore) CreateWithQuota(_ context.Context, site models.Site, maxSites int) error {
	if maxSites > 0 {
		count := 0
		for _, s := range f.sites {
			if s.OrganizationID == site.OrganizationID {
				count++
			}
		}
		if count >= maxSites {
			return repository.ErrQuotaExceeded
		}
	}
	for _, s := range f.sites {
		if s.Slug == site.Slug {
			return repository.ErrSlugTaken
		}
	}
	site.CreatedAt = time.Now().UTC()
	site.UpdatedAt = site.CreatedAt
	f.sites[site.ID] = site
	return nil
}

func (f *fakeSiteStore) GetByID(_ context.Context, id, orgID string) (models.Site, error) {
	s, ok := f.sites[id]
	if !ok || s.OrganizationID != orgID {
		return models.Site{}, repository.ErrSiteNotFound
	}
	return s, nil
}

func (f *fakeSiteStore) List(_ context.Context, orgID, ownerID string) ([]models.Site, error) {
	var out []models.Site
	for _, s := range f.sites {
		if s.OrganizationID != orgID {
			continue
		}
		if ownerID != "" && s.OwnerID != ownerID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSiteStore) Update(_ context.Context, site models.Site) error {
	existing, ok := f.sites[site.ID]
	if !ok || existing.OrganizationID != site.OrganizationID {
		return repository.ErrSiteNotFound
	}
	site.UpdatedAt = time.Now().UTC()
	f.sites[site.ID] = site
	return nil
}

func (f *fakeSiteStore) UpdateGeneration(_ context.Context, id string, content json.RawMessage, state models.GenerationState) error {
	s, ok := f.sites[id]
	if !ok {
		return repository.ErrSiteNotFound
	}
	s.Content = content
	s.GenerationState = state
	s.UpdatedAt = time.Now().UTC()
	f.sites[id] = s
	return nil
}

func (f *fakeSiteStore) Delete(_ context.Context, id, orgID string) error {
	s, ok := f.sites[id]
	if !ok || s.OrganizationID != orgID {
		return repository.ErrSiteNotFound
	}
	delete(f.sites, id)
	return nil
}

func (f *fakeSiteStore) GetPublishedBySlug(_ context.Context, slug string) (models.Site, error) {
	for _, s := range f.sites {
		if s.Slug == slug && s.Status == models.SiteStatusPublished {
			return s, nil
		}
	}
	return models.Site{}, repository.ErrSiteNotFound
}

func (f *fakeSiteStore) AddViews(_ context.Context, slug string, delta int64) error {
	for id, s := range f.sites {
		if s.Slug == slug {
			s.ViewCount += delta
			f.sites[id] = s
			return nil
		}
	}
	return repository.ErrSiteNotFound
}

func (f *fakeSiteStore) ListStalePending(_ context.Context, olderThan time.Time) ([]models.Site, error) {
	var out []models.Site
	for _, s := range f.sites {
		if s.GenerationState == models.GenerationPending && s.CreatedAt.Before(olderThan) {
			out = append(out, s)
		}
	}
	return out, nil
}

// stubGenerator returns a canned result; calls counts invocations.
type stubGenerator struct {
	content json.RawMessage
	err     error
	calls   int
}

func (g *stubGenerator) Generate(context.Context, generator.SiteSpec) (json.RawMessage, error) {
	g.calls++
	return g.content, g.err
}

type fakeViews struct {
	counts map[string]int64
	err    error
}

func newFakeViews() *fakeViews {
	return &fakeViews{counts: make(map[string]int64)}
}

func (f *fakeViews) Record(_ context.Context, slug string) error {
	if f.err != nil {
		return f.err
	}
	f.counts[slug]++
	return nil
}

type fakeSnapshots struct {
	puts map[string][]byte
	err  error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{puts: make(map[string][]byte)}
}

func (f *fakeSnapshots) Put(_ context.Context, slug string, content []byte) error {
	if f.err != nil {
		return f.err
	}
	f.puts[slug] = append([]byte(nil), content...)
	return nil
}
