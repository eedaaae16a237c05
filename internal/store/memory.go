// memory.go implements Store over process-local maps. This is the mocked
// backend the dashboard runs against when store.driver=memory, and the backend
// every engine test uses. All access goes through a single RWMutex; entities
// are copied on the way in and out so callers never alias stored state.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/service-marketplace/service-marketplace/internal/db/models"
)

// Memory is an in-memory Store implementation.
type Memory struct {
	mu sync.RWMutex

	users            map[string]*models.User
	merchantProfiles map[string]*models.MerchantProfile
	consumerProfiles map[string]*models.ConsumerProfile
	services         map[string]*models.Service
	accessRequests   map[string]*models.AccessRequest
	apiKeys          map[string]*models.APIKey
	serviceBlocks    []*models.ServiceBlock
	dockerImages     map[string]*models.DockerImage
	usage            []*models.UsageRecord
	auditLogs        []*models.AuditLog
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:            make(map[string]*models.User),
		merchantProfiles: make(map[string]*models.MerchantProfile),
		consumerProfiles: make(map[string]*models.ConsumerProfile),
		services:         make(map[string]*models.Service),
		accessRequests:   make(map[string]*models.AccessRequest),
		apiKeys:          make(map[string]*models.APIKey),
		dockerImages:     make(map[string]*models.DockerImage),
	}
}

var _ Store = (*Memory)(nil)

// --- clone helpers ----------------------------------------------------------

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]models.Role(nil), u.Roles...)
	return &c
}

func cloneService(s *models.Service) *models.Service {
	c := *s
	c.Tags = append([]string(nil), s.Tags...)
	c.Pricing.Tiers = append([]models.PricingTier(nil), s.Pricing.Tiers...)
	if s.Endpoint != nil {
		ep := *s.Endpoint
		c.Endpoint = &ep
	}
	return &c
}

func cloneAPIKey(k *models.APIKey) *models.APIKey {
	c := *k
	c.ServiceIDs = append([]string(nil), k.ServiceIDs...)
	if k.RevokedAt != nil {
		t := *k.RevokedAt
		c.RevokedAt = &t
	}
	if k.RevokedBy != nil {
		s := *k.RevokedBy
		c.RevokedBy = &s
	}
	return &c
}

func cloneAccessRequest(r *models.AccessRequest) *models.AccessRequest {
	c := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	if r.ResolvedBy != nil {
		s := *r.ResolvedBy
		c.ResolvedBy = &s
	}
	return &c
}

// --- UserStore --------------------------------------------------------------

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (m *Memory) PutUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) GetMerchantProfile(_ context.Context, userID string) (*models.MerchantProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.merchantProfiles[userID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *Memory) PutMerchantProfile(_ context.Context, p *models.MerchantProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.merchantProfiles[p.UserID] = &c
	return nil
}

func (m *Memory) GetConsumerProfile(_ context.Context, userID string) (*models.ConsumerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.consumerProfiles[userID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *Memory) PutConsumerProfile(_ context.Context, p *models.ConsumerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.consumerProfiles[p.UserID] = &c
	return nil
}

func (m *Memory) ListMerchantProfiles(_ context.Context) ([]*models.MerchantProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.MerchantProfile, 0, len(m.merchantProfiles))
	for _, p := range m.merchantProfiles {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// --- ServiceStore -----------------------------------------------------------

func (m *Memory) GetService(_ context.Context, id string) (*models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	if !ok {
		return nil, nil
	}
	return cloneService(s), nil
}

func (m *Memory) PutService(_ context.Context, s *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[s.ID] = cloneService(s)
	return nil
}

func (m *Memory) ListServices(_ context.Context) ([]*models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Service, 0, len(m.services))
	for _, s := range m.services {
		out = append(out, cloneService(s))
	}
	sortServices(out)
	return out, nil
}

func (m *Memory) ListServicesByMerchant(_ context.Context, merchantID string) ([]*models.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Service, 0)
	for _, s := range m.services {
		if s.MerchantID == merchantID {
			out = append(out, cloneService(s))
		}
	}
	sortServices(out)
	return out, nil
}

func sortServices(ss []*models.Service) {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].ID < ss[j].ID
		}
		return ss[i].CreatedAt.Before(ss[j].CreatedAt)
	})
}

// --- AccessRequestStore -----------------------------------------------------

func (m *Memory) GetAccessRequest(_ context.Context, id string) (*models.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.accessRequests[id]
	if !ok {
		return nil, nil
	}
	return cloneAccessRequest(r), nil
}

func (m *Memory) PutAccessRequest(_ context.Context, r *models.AccessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessRequests[r.ID] = cloneAccessRequest(r)
	return nil
}

func (m *Memory) ListAccessRequestsByConsumer(_ context.Context, consumerID string) ([]*models.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.AccessRequest, 0)
	for _, r := range m.accessRequests {
		if r.ConsumerID == consumerID {
			out = append(out, cloneAccessRequest(r))
		}
	}
	sortAccessRequests(out)
	return out, nil
}

func (m *Memory) ListAccessRequestsByService(_ context.Context, serviceID string) ([]*models.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.AccessRequest, 0)
	for _, r := range m.accessRequests {
		if r.ServiceID == serviceID {
			out = append(out, cloneAccessRequest(r))
		}
	}
	sortAccessRequests(out)
	return out, nil
}

func (m *Memory) FindPendingAccessRequest(_ context.Context, consumerID, serviceID string) (*models.AccessRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.accessRequests {
		if r.ConsumerID == consumerID && r.ServiceID == serviceID && r.Status == models.AccessPending {
			return cloneAccessRequest(r), nil
		}
	}
	return nil, nil
}

func sortAccessRequests(rs []*models.AccessRequest) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].RequestedAt.Equal(rs[j].RequestedAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].RequestedAt.Before(rs[j].RequestedAt)
	})
}

// --- APIKeyStore ------------------------------------------------------------

func (m *Memory) GetAPIKey(_ context.Context, id string) (*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.apiKeys[id]
	if !ok {
		return nil, nil
	}
	return cloneAPIKey(k), nil
}

func (m *Memory) PutAPIKey(_ context.Context, k *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[k.ID] = cloneAPIKey(k)
	return nil
}

func (m *Memory) ListAPIKeysByConsumer(_ context.Context, consumerID string) ([]*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.APIKey, 0)
	for _, k := range m.apiKeys {
		if k.ConsumerID == consumerID {
			out = append(out, cloneAPIKey(k))
		}
	}
	sortAPIKeys(out)
	return out, nil
}

func (m *Memory) ListAPIKeysByPrefix(_ context.Context, keyPrefix string) ([]*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.APIKey, 0)
	for _, k := range m.apiKeys {
		if k.KeyPrefix == keyPrefix {
			out = append(out, cloneAPIKey(k))
		}
	}
	sortAPIKeys(out)
	return out, nil
}

func (m *Memory) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.APIKey, 0, len(m.apiKeys))
	for _, k := range m.apiKeys {
		out = append(out, cloneAPIKey(k))
	}
	sortAPIKeys(out)
	return out, nil
}

func sortAPIKeys(ks []*models.APIKey) {
	sort.Slice(ks, func(i, j int) bool {
		if ks[i].CreatedAt.Equal(ks[j].CreatedAt) {
			return ks[i].ID < ks[j].ID
		}
		return ks[i].CreatedAt.Before(ks[j].CreatedAt)
	})
}

// --- ServiceBlockStore ------------------------------------------------------

func (m *Memory) GetServiceBlock(_ context.Context, consumerID, serviceID string) (*models.ServiceBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.serviceBlocks {
		if b.ConsumerID == consumerID && b.ServiceID == serviceID {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) PutServiceBlock(_ context.Context, b *models.ServiceBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, have := range m.serviceBlocks {
		if have.ConsumerID == b.ConsumerID && have.ServiceID == b.ServiceID {
			c := *b
			m.serviceBlocks[i] = &c
			return nil
		}
	}
	c := *b
	m.serviceBlocks = append(m.serviceBlocks, &c)
	return nil
}

func (m *Memory) RemoveServiceBlock(_ context.Context, consumerID, serviceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.serviceBlocks {
		if b.ConsumerID == consumerID && b.ServiceID == serviceID {
			m.serviceBlocks = append(m.serviceBlocks[:i], m.serviceBlocks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListServiceBlocksByService(_ context.Context, serviceID string) ([]*models.ServiceBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ServiceBlock, 0)
	for _, b := range m.serviceBlocks {
		if b.ServiceID == serviceID {
			c := *b
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- DockerImageStore -------------------------------------------------------

func (m *Memory) GetDockerImage(_ context.Context, id string) (*models.DockerImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.dockerImages[id]
	if !ok {
		return nil, nil
	}
	c := *img
	return &c, nil
}

func (m *Memory) PutDockerImage(_ context.Context, img *models.DockerImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *img
	m.dockerImages[img.ID] = &c
	return nil
}

func (m *Memory) ListDockerImagesByService(_ context.Context, serviceID string) ([]*models.DockerImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.DockerImage, 0)
	for _, img := range m.dockerImages {
		if img.ServiceID == serviceID {
			c := *img
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- UsageStore -------------------------------------------------------------

func (m *Memory) AppendUsage(_ context.Context, rec *models.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *rec
	m.usage = append(m.usage, &c)
	return nil
}

func (m *Memory) ListUsage(_ context.Context, f UsageFilter) ([]*models.UsageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.UsageRecord, 0)
	for _, rec := range m.usage {
		if !matchUsage(rec, f) {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	return out, nil
}

func (m *Memory) CountUsageSince(_ context.Context, apiKeyID, serviceID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.usage {
		if rec.APIKeyID == apiKeyID && rec.ServiceID == serviceID && !rec.Timestamp.Before(since) {
			n++
		}
	}
	return n, nil
}

func matchUsage(rec *models.UsageRecord, f UsageFilter) bool {
	if f.ConsumerID != nil && rec.ConsumerID != *f.ConsumerID {
		return false
	}
	if f.APIKeyID != nil && rec.APIKeyID != *f.APIKeyID {
		return false
	}
	if f.ServiceID != nil && rec.ServiceID != *f.ServiceID {
		return false
	}
	if f.Since != nil && rec.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

// --- AuditLogStore ----------------------------------------------------------

func (m *Memory) AppendAuditLog(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *entry
	m.auditLogs = append(m.auditLogs, &c)
	return nil
}

func (m *Memory) ListAuditLogs(_ context.Context, f AuditFilter, limit, offset int) ([]*models.AuditLog, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*models.AuditLog, 0)
	// Newest first, matching the dashboard's audit view.
	for i := len(m.auditLogs) - 1; i >= 0; i-- {
		entry := m.auditLogs[i]
		if !matchAudit(entry, f) {
			continue
		}
		c := *entry
		matched = append(matched, &c)
	}

	total := len(matched)
	if offset >= total {
		return []*models.AuditLog{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func matchAudit(entry *models.AuditLog, f AuditFilter) bool {
	if f.ActorID != nil && entry.ActorID != *f.ActorID {
		return false
	}
	if f.Action != nil && entry.Action != *f.Action {
		return false
	}
	if f.TargetType != nil && entry.TargetType != *f.TargetType {
		return false
	}
	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}
	return true
}
