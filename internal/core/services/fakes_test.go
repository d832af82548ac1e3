package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"

	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the storage-layer contracts the
// services depend on: unique indexes surface as gorm.ErrDuplicatedKey, missing
// rows as gorm.ErrRecordNotFound, and the locked primitives run under one
// mutex so precondition checks cannot race.

type memApplicationRepo struct {
	mu             sync.Mutex
	nextID         uint
	nextDocID      uint
	nextOfficialID uint
	apps           map[uint]*models.Application
}

func newMemApplicationRepo() *memApplicationRepo {
	return &memApplicationRepo{apps: make(map[uint]*models.Application)}
}

func (r *memApplicationRepo) CreateIfNoActive(ctx context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.apps {
		if existing.UserID == app.UserID && existing.ServiceID == app.ServiceID && existing.CurrentStatus().IsActive() {
			return domain.ErrDuplicateActiveApplication
		}
	}
	for _, existing := range r.apps {
		if existing.ApplicationNumber == app.ApplicationNumber {
			return gorm.ErrDuplicatedKey
		}
	}

	r.nextID++
	app.ID = r.nextID
	for i := range app.Documents {
		r.nextDocID++
		app.Documents[i].ID = r.nextDocID
		app.Documents[i].ApplicationID = app.ID
	}
	r.apps[app.ID] = app
	return nil
}

func (r *memApplicationRepo) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return app, nil
}

func (r *memApplicationRepo) FindActive(ctx context.Context, userID, serviceID uint) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.UserID == userID && app.ServiceID == serviceID && app.CurrentStatus().IsActive() {
			return app, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memApplicationRepo) ListByUser(ctx context.Context, userID uint) ([]*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Application
	for _, app := range r.apps {
		if app.UserID == userID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (r *memApplicationRepo) List(ctx context.Context, status string, offset, limit int) ([]*models.Application, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.Application
	for _, app := range r.apps {
		if status == "" || app.Status == status {
			matched = append(matched, app)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *memApplicationRepo) UpdateLocked(ctx context.Context, id uint, mutate func(app *models.Application) error) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := mutate(app); err != nil {
		return nil, err
	}
	// Mirror the database assigning ids to rows appended by the mutation
	for i := range app.Documents {
		if app.Documents[i].ID == 0 {
			r.nextDocID++
			app.Documents[i].ID = r.nextDocID
			app.Documents[i].ApplicationID = app.ID
		}
	}
	for i := range app.OfficialDocuments {
		if app.OfficialDocuments[i].ID == 0 {
			r.nextOfficialID++
			app.OfficialDocuments[i].ID = r.nextOfficialID
			app.OfficialDocuments[i].ApplicationID = app.ID
		}
	}
	return app, nil
}

func (r *memApplicationRepo) AppendOfficialDocument(ctx context.Context, appID uint, doc *models.OfficialDocument) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[appID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if app.CurrentStatus() != domain.StatusApproved {
		return nil, domain.ErrInvalidStateForIssuance
	}
	r.nextOfficialID++
	doc.ID = r.nextOfficialID
	doc.ApplicationID = app.ID
	app.OfficialDocuments = append(app.OfficialDocuments, *doc)
	app.Status = string(domain.StatusCompleted)
	return app, nil
}

func isLegacy(fileData, filePath *string) bool {
	return (fileData == nil || *fileData == "") && filePath != nil && *filePath != ""
}

func (r *memApplicationRepo) ListLegacyDocuments(ctx context.Context, afterID uint, limit int) ([]*models.ApplicationDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ApplicationDocument
	for _, app := range r.apps {
		for i := range app.Documents {
			if app.Documents[i].ID > afterID && isLegacy(app.Documents[i].FileData, app.Documents[i].FilePath) {
				out = append(out, &app.Documents[i])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memApplicationRepo) ListLegacyOfficialDocuments(ctx context.Context, afterID uint, limit int) ([]*models.OfficialDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.OfficialDocument
	for _, app := range r.apps {
		for i := range app.OfficialDocuments {
			if app.OfficialDocuments[i].ID > afterID && isLegacy(app.OfficialDocuments[i].FileData, app.OfficialDocuments[i].FilePath) {
				out = append(out, &app.OfficialDocuments[i])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Legacy listings hand out pointers into the stored slices, so the sweep's
// mutations are already visible and Save is a no-op.
func (r *memApplicationRepo) SaveDocument(ctx context.Context, doc *models.ApplicationDocument) error {
	return nil
}

func (r *memApplicationRepo) SaveOfficialDocument(ctx context.Context, doc *models.OfficialDocument) error {
	return nil
}

func (r *memApplicationRepo) CountDocumentsByShape(ctx context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var legacy, inline int64
	count := func(fileData, filePath *string) {
		if isLegacy(fileData, filePath) {
			legacy++
		} else if fileData != nil && *fileData != "" {
			inline++
		}
	}
	for _, app := range r.apps {
		for i := range app.Documents {
			count(app.Documents[i].FileData, app.Documents[i].FilePath)
		}
		for i := range app.OfficialDocuments {
			count(app.OfficialDocuments[i].FileData, app.OfficialDocuments[i].FilePath)
		}
	}
	return legacy, inline, nil
}

type memArchiveRepo struct {
	mu       sync.Mutex
	nextID   uint
	archives map[uint]*models.Archive // keyed by application ID
}

func newMemArchiveRepo() *memArchiveRepo {
	return &memArchiveRepo{archives: make(map[uint]*models.Archive)}
}

func (r *memArchiveRepo) Create(ctx context.Context, archive *models.Archive) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.archives[archive.ApplicationID]; ok {
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.archives {
		if existing.ArchiveNumber == archive.ArchiveNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	archive.ID = r.nextID
	r.archives[archive.ApplicationID] = archive
	return nil
}

func (r *memArchiveRepo) GetByApplicationID(ctx context.Context, applicationID uint) (*models.Archive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	archive, ok := r.archives[applicationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return archive, nil
}

func (r *memArchiveRepo) ExistsByApplicationID(ctx context.Context, applicationID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.archives[applicationID]
	return ok, nil
}

func (r *memArchiveRepo) List(ctx context.Context, filter repositories.ArchiveFilter, offset, limit int) ([]*models.Archive, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.Archive
	for _, archive := range r.archives {
		if filter.MedicalService != "" && archive.MedicalService != filter.MedicalService {
			continue
		}
		if filter.Year > 0 && archive.ArchivedAt.Year() != filter.Year {
			continue
		}
		if filter.Month > 0 && int(archive.ArchivedAt.Month()) != filter.Month {
			continue
		}
		matched = append(matched, archive)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type memServiceRepo struct {
	mu       sync.Mutex
	services map[uint]*models.Service
}

func newMemServiceRepo(services ...*models.Service) *memServiceRepo {
	r := &memServiceRepo{services: make(map[uint]*models.Service)}
	for _, svc := range services {
		r.services[svc.ID] = svc
	}
	return r
}

func (r *memServiceRepo) GetByID(ctx context.Context, id uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return svc, nil
}

func (r *memServiceRepo) ListActive(ctx context.Context) ([]*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Service
	for _, svc := range r.services {
		if svc.IsActive {
			out = append(out, svc)
		}
	}
	return out, nil
}

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint]*models.User)}
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*models.RefreshToken
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: make(map[uint]*models.RefreshToken)}
}

func (r *memRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	r.tokens[token.ID] = token
	return nil
}

func (r *memRefreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			return token, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRefreshTokenRepo) Revoke(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if token, ok := r.tokens[id]; ok && token.RevokedAt == nil {
		now := time.Now()
		token.RevokedAt = &now
	}
	return nil
}

func (r *memRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenHash == tokenHash && token.RevokedAt == nil {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.UserID == userID && token.RevokedAt == nil {
			now := time.Now()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, token := range r.tokens {
		if time.Now().After(token.ExpiresAt) {
			delete(r.tokens, id)
		}
	}
	return nil
}
