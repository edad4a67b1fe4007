package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db/models"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
)

type educatorsRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Educator, error)
}

// Service resolves request hostnames onto educator storefronts.
type Service interface {
	Resolve(ctx context.Context, host, tenantParam string) (*ResolveResult, error)
	// LocalhostParam names the query parameter carrying the tenant slug on
	// localhost requests.
	LocalhostParam() string
}

type service struct {
	repo       educatorsRepository
	baseDomain string
	localParam string
}

// NewService builds a tenant resolution service bound to the configured base domain.
func NewService(repo educatorsRepository, cfg config.TenantConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("educators repository required")
	}
	if strings.TrimSpace(cfg.BaseDomain) == "" {
		return nil, fmt.Errorf("base domain required")
	}
	localParam := strings.TrimSpace(cfg.LocalhostParam)
	if localParam == "" {
		localParam = "tenant"
	}
	return &service{
		repo:       repo,
		baseDomain: cfg.BaseDomain,
		localParam: localParam,
	}, nil
}

func (s *service) LocalhostParam() string {
	return s.localParam
}

// Resolve maps a hostname (or the localhost tenant parameter) onto a
// storefront payload. A nil Tenant in the result means the global site.
func (s *service) Resolve(ctx context.Context, host, tenantParam string) (*ResolveResult, error) {
	slug := ""
	if IsLocalhost(host) {
		slug = strings.ToLower(strings.TrimSpace(tenantParam))
	} else if fromHost, ok := SlugFromHost(host, s.baseDomain); ok {
		slug = fromHost
	}

	if slug == "" {
		return &ResolveResult{}, nil
	}

	educator, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}

	return &ResolveResult{Tenant: toStorefront(educator)}, nil
}
