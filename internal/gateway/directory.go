package gateway

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/metrics"
	"github.com/sakif/mentorlink/internal/model"
)

const institutionsKey = "institutions"

// DirectoryGateway serves the supported institutions and their departments.
//
// WHY CACHE?
// Every workspace loads the institution list and every primary change looks
// up departments. The directory changes rarely, so one fetch per TTL is
// plenty. singleflight collapses concurrent misses into one request.
type DirectoryGateway struct {
	c     *Client
	cache *cache.Cache
	group singleflight.Group
}

// NewDirectoryGateway creates a gateway whose directory snapshot lives for ttl.
func NewDirectoryGateway(c *Client, ttl time.Duration) *DirectoryGateway {
	return &DirectoryGateway{
		c:     c,
		cache: cache.New(ttl, 2*ttl),
	}
}

type directoryResponse struct {
	Universities []model.Institution `json:"universities"`
}

// Institutions returns the directory in backend order.
func (g *DirectoryGateway) Institutions(ctx context.Context) ([]model.Institution, error) {
	if x, ok := g.cache.Get(institutionsKey); ok {
		metrics.DirectoryCache.WithLabelValues("hit").Inc()
		return cloneInstitutions(x.([]model.Institution)), nil
	}
	metrics.DirectoryCache.WithLabelValues("miss").Inc()

	v, err, _ := g.group.Do(institutionsKey, func() (any, error) {
		if x, ok := g.cache.Get(institutionsKey); ok {
			return x, nil
		}
		var resp directoryResponse
		if err := g.c.call(ctx, "directory", "list", http.MethodGet, "/user/get_universities", nil, &resp); err != nil {
			return nil, failure(err, "failed to load the institution directory")
		}
		g.cache.SetDefault(institutionsKey, resp.Universities)
		return resp.Universities, nil
	})
	if err != nil {
		return nil, err
	}

	list, ok := v.([]model.Institution)
	if !ok {
		return nil, fmt.Errorf("gateway: unexpected directory value %T", v)
	}
	return cloneInstitutions(list), nil
}

// Departments returns the departments of one institution.
func (g *DirectoryGateway) Departments(ctx context.Context, institution string) ([]string, error) {
	list, err := g.Institutions(ctx)
	if err != nil {
		return nil, err
	}
	for _, inst := range list {
		if inst.Name == institution {
			return inst.Departments, nil
		}
	}
	return nil, apperror.NotFound("institution", institution)
}

// Invalidate drops the cached directory so the next call refetches.
func (g *DirectoryGateway) Invalidate() {
	g.cache.Delete(institutionsKey)
}

// cloneInstitutions copies the cached slice so callers cannot corrupt it.
func cloneInstitutions(in []model.Institution) []model.Institution {
	out := make([]model.Institution, len(in))
	for i, inst := range in {
		out[i] = model.Institution{Name: inst.Name, Departments: slices.Clone(inst.Departments)}
	}
	return out
}
