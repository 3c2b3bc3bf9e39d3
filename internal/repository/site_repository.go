package repository

import (
	"context"
	"errors"
	"time"

	"vibe-domain-service/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSiteNotFound    = errors.New("published site not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrSubdomainTaken  = errors.New("subdomain already claimed by a published site")
)

// SiteRepository handles database operations for published sites and the
// Vibe projects they are built from
type SiteRepository struct {
	db *gorm.DB
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *gorm.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// GetProject retrieves a Vibe project by ID
func (r *SiteRepository) GetProject(ctx context.Context, projectID string) (*models.VibeProject, error) {
	var project models.VibeProject
	err := r.db.WithContext(ctx).Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject stores a Vibe project. Projects are owned by the builder;
// this exists for seeding and tests.
func (r *SiteRepository) CreateProject(ctx context.Context, project *models.VibeProject) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// MarkProjectPublished writes the publish summary back onto the project
func (r *SiteRepository) MarkProjectPublished(ctx context.Context, projectID, publishedURL string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.VibeProject{}).Where("id = ?", projectID).Updates(map[string]interface{}{
		"status":            models.ProjectStatusPublished,
		"published_url":     publishedURL,
		"last_published_at": publishedAt,
		"updated_at":        time.Now(),
	}).Error
}

// MarkProjectDraft sets the project status back to draft
func (r *SiteRepository) MarkProjectDraft(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).Model(&models.VibeProject{}).Where("id = ?", projectID).Updates(map[string]interface{}{
		"status":     models.ProjectStatusDraft,
		"updated_at": time.Now(),
	}).Error
}

// SubdomainTaken reports whether a published record other than excludeProjectID's holds the subdomain
func (r *SiteRepository) SubdomainTaken(ctx context.Context, subdomain, excludeProjectID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PublishedSite{}).
		Where("subdomain = ? AND status = ?", subdomain, models.SiteStatusPublished)
	if excludeProjectID != "" {
		query = query.Where("project_id <> ?", excludeProjectID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// GetActiveByProject retrieves the published record of a project
func (r *SiteRepository) GetActiveByProject(ctx context.Context, projectID string) (*models.PublishedSite, error) {
	return r.firstActive(ctx, r.db.WithContext(ctx).Where("project_id = ?", projectID))
}

// GetActiveByProjectForUser retrieves the published record of a project owned by userID
func (r *SiteRepository) GetActiveByProjectForUser(ctx context.Context, projectID, userID string) (*models.PublishedSite, error) {
	return r.firstActive(ctx, r.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", projectID, userID))
}

// GetActiveBySubdomain retrieves the published record claiming a subdomain
func (r *SiteRepository) GetActiveBySubdomain(ctx context.Context, subdomain string) (*models.PublishedSite, error) {
	return r.firstActive(ctx, r.db.WithContext(ctx).Where("subdomain = ?", subdomain))
}

// GetActiveByCustomDomain retrieves the published record a custom domain is attached to
func (r *SiteRepository) GetActiveByCustomDomain(ctx context.Context, domain string) (*models.PublishedSite, error) {
	return r.firstActive(ctx, r.db.WithContext(ctx).Where("custom_domain = ?", domain))
}

func (r *SiteRepository) firstActive(ctx context.Context, query *gorm.DB) (*models.PublishedSite, error) {
	var site models.PublishedSite
	err := query.
		Where("status = ?", models.SiteStatusPublished).
		Order("published_at DESC").
		First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// GetByID retrieves a site record regardless of status
func (r *SiteRepository) GetByID(ctx context.Context, id string) (*models.PublishedSite, error) {
	var site models.PublishedSite
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// CustomDomainInUse checks whether a published site holds the domain.
// Unpublished records keep their domain as history and do not block it.
func (r *SiteRepository) CustomDomainInUse(ctx context.Context, domain string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PublishedSite{}).
		Where("custom_domain = ? AND status = ?", domain, models.SiteStatusPublished).
		Count(&count).Error
	return count > 0, err
}

// Create creates a new published site. A write that loses a race for the
// subdomain returns ErrSubdomainTaken.
func (r *SiteRepository) Create(ctx context.Context, site *models.PublishedSite) error {
	err := r.db.WithContext(ctx).Create(site).Error
	if err == nil {
		return nil
	}
	if r.lostSubdomainRace(ctx, err, site) {
		return ErrSubdomainTaken
	}
	return err
}

// ReplaceSnapshot republishes an existing record in place with fresh content
func (r *SiteRepository) ReplaceSnapshot(ctx context.Context, site *models.PublishedSite) error {
	err := r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", site.ID).Updates(map[string]interface{}{
		"subdomain":    site.Subdomain,
		"user_id":      site.UserID,
		"tenant_id":    site.TenantID,
		"html":         site.HTML,
		"css":          site.CSS,
		"components":   site.Components,
		"styles":       site.Styles,
		"description":  site.Description,
		"status":       models.SiteStatusPublished,
		"published_at": site.PublishedAt,
		"updated_at":   time.Now(),
	}).Error
	if err == nil {
		return nil
	}
	if r.lostSubdomainRace(ctx, err, site) {
		return ErrSubdomainTaken
	}
	return err
}

func (r *SiteRepository) lostSubdomainRace(ctx context.Context, err error, site *models.PublishedSite) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	taken, checkErr := r.SubdomainTaken(ctx, site.Subdomain, site.ProjectID)
	return checkErr == nil && taken
}

// Unpublish flips a record to unpublished; the record is kept
func (r *SiteRepository) Unpublish(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":         models.SiteStatusUnpublished,
		"unpublished_at": &now,
		"updated_at":     now,
	}).Error
}

// SetCustomDomain attaches an unverified custom domain to a site
func (r *SiteRepository) SetCustomDomain(ctx context.Context, id, domain string) error {
	return r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", id).Updates(map[string]interface{}{
		"custom_domain":             domain,
		"custom_domain_verified":    false,
		"custom_domain_verified_at": nil,
		"updated_at":                time.Now(),
	}).Error
}

// MarkCustomDomainVerified records a successful verification of the site's custom domain
func (r *SiteRepository) MarkCustomDomainVerified(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", id).Updates(map[string]interface{}{
		"custom_domain_verified":    true,
		"custom_domain_verified_at": &now,
		"updated_at":                now,
	}).Error
}

// ClearCustomDomain detaches the custom domain from a site
func (r *SiteRepository) ClearCustomDomain(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", id).Updates(map[string]interface{}{
		"custom_domain":            nil,
		"custom_domain_verified":   false,
		"custom_domain_removed_at": &now,
		"updated_at":               now,
	}).Error
}

// IncrementViews adds one view. A missing counter counts as zero.
func (r *SiteRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("COALESCE(views, 0) + ?", 1)).Error
}

// RecordDNSCheck stamps a DNS lookup against the site's custom domain,
// whatever its outcome
func (r *SiteRepository) RecordDNSCheck(ctx context.Context, id string, checkedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PublishedSite{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"dns_last_checked_at": &checkedAt,
		"dns_check_attempts":  gorm.Expr("COALESCE(dns_check_attempts, 0) + ?", 1),
	}).Error
}

// GetPendingCustomDomains retrieves published sites whose custom domain is
// not yet verified, least recently checked first. Sites that used up
// MaxDNSCheckAttempts are left out.
func (r *SiteRepository) GetPendingCustomDomains(ctx context.Context, limit int) ([]models.PublishedSite, error) {
	var sites []models.PublishedSite
	err := r.db.WithContext(ctx).
		Where("status = ? AND custom_domain IS NOT NULL AND custom_domain <> '' AND custom_domain_verified = ?",
			models.SiteStatusPublished, false).
		Where("COALESCE(dns_check_attempts, 0) < ?", MaxDNSCheckAttempts).
		Order("dns_last_checked_at ASC NULLS FIRST").
		Limit(limit).
		Find(&sites).Error
	return sites, err
}

// GetProjectsWithDuplicatePublished lists projects holding more than one published record
func (r *SiteRepository) GetProjectsWithDuplicatePublished(ctx context.Context) ([]string, error) {
	var projectIDs []string
	err := r.db.WithContext(ctx).Model(&models.PublishedSite{}).
		Where("status = ?", models.SiteStatusPublished).
		Group("project_id").
		Having("COUNT(*) > 1").
		Pluck("project_id", &projectIDs).Error
	return projectIDs, err
}

// DemoteDuplicatePublished keeps the newest published record of a project and unpublishes the rest
func (r *SiteRepository) DemoteDuplicatePublished(ctx context.Context, projectID string) (int64, error) {
	var demoted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sites []models.PublishedSite
		if err := tx.Where("project_id = ? AND status = ?", projectID, models.SiteStatusPublished).
			Order("published_at DESC").
			Find(&sites).Error; err != nil {
			return err
		}
		if len(sites) < 2 {
			return nil
		}

		ids := make([]string, 0, len(sites)-1)
		for _, site := range sites[1:] {
			ids = append(ids, site.ID)
		}

		now := time.Now()
		result := tx.Model(&models.PublishedSite{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":         models.SiteStatusUnpublished,
			"unpublished_at": &now,
			"updated_at":     now,
		})
		demoted = result.RowsAffected
		return result.Error
	})
	return demoted, err
}
