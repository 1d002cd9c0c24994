package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"profile-server/internal/domains/profile/model"

	"github.com/google/uuid"
)

// memoryState is one consistent snapshot of the store
type memoryState struct {
	profiles  map[uuid.UUID]*model.Profile
	versions  map[uuid.UUID]*model.ProfileVersion
	concepts  map[uuid.UUID]*model.Concept
	templates map[uuid.UUID]*model.Template
	patterns  map[uuid.UUID]*model.Pattern
}

func newMemoryState() *memoryState {
	return &memoryState{
		profiles:  make(map[uuid.UUID]*model.Profile),
		versions:  make(map[uuid.UUID]*model.ProfileVersion),
		concepts:  make(map[uuid.UUID]*model.Concept),
		templates: make(map[uuid.UUID]*model.Template),
		patterns:  make(map[uuid.UUID]*model.Pattern),
	}
}

// clone copies the maps; entities are never mutated in place so sharing
// the pointers is fine
func (s *memoryState) clone() *memoryState {
	cp := newMemoryState()
	for k, v := range s.profiles {
		cp.profiles[k] = v
	}
	for k, v := range s.versions {
		cp.versions[k] = v
	}
	for k, v := range s.concepts {
		cp.concepts[k] = v
	}
	for k, v := range s.templates {
		cp.templates[k] = v
	}
	for k, v := range s.patterns {
		cp.patterns[k] = v
	}
	return cp
}

type memoryRoot struct {
	txMu  sync.Mutex // serializes writers, including whole transactions
	mu    sync.RWMutex
	state *memoryState
}

// memoryRepository keeps everything in process. Used for tests and for
// STORE_DRIVER=memory.
type memoryRepository struct {
	root  *memoryRoot  // nil inside a transaction
	state *memoryState // working copy inside a transaction
}

// NewMemoryRepository creates an empty in-process store
func NewMemoryRepository() Repository {
	return &memoryRepository{root: &memoryRoot{state: newMemoryState()}}
}

func (r *memoryRepository) read(fn func(s *memoryState) error) error {
	if r.root == nil {
		return fn(r.state)
	}
	r.root.mu.RLock()
	defer r.root.mu.RUnlock()
	return fn(r.root.state)
}

func (r *memoryRepository) write(fn func(s *memoryState) error) error {
	if r.root == nil {
		return fn(r.state)
	}
	r.root.txMu.Lock()
	defer r.root.txMu.Unlock()
	r.root.mu.Lock()
	defer r.root.mu.Unlock()
	return fn(r.root.state)
}

func (r *memoryRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.root == nil {
		return fn(r)
	}
	r.root.txMu.Lock()
	defer r.root.txMu.Unlock()

	r.root.mu.RLock()
	working := r.root.state.clone()
	r.root.mu.RUnlock()

	if err := fn(&memoryRepository{state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.root.mu.Lock()
	r.root.state = working
	r.root.mu.Unlock()
	return nil
}

// ========================================
// PROFILES
// ========================================

func (r *memoryRepository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.profiles[profile.ID]; ok {
			return model.NewConflict(fmt.Sprintf("profile %s already exists", profile.ID))
		}
		if err := s.checkProfileIRI(profile.ID, profile.IRI); err != nil {
			return err
		}
		s.profiles[profile.ID] = profile.Clone()
		return nil
	})
}

func (r *memoryRepository) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.profiles[profile.ID]; !ok {
			return model.NewNotFound("profile")
		}
		if err := s.checkProfileIRI(profile.ID, profile.IRI); err != nil {
			return err
		}
		s.profiles[profile.ID] = profile.Clone()
		return nil
	})
}

func (r *memoryRepository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.profiles[id]; !ok {
			return model.NewNotFound("profile")
		}
		delete(s.profiles, id)
		for vid, v := range s.versions {
			if v.ProfileID == id {
				delete(s.versions, vid)
			}
		}
		return nil
	})
}

func (r *memoryRepository) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var out *model.Profile
	err := r.read(func(s *memoryState) error {
		p, ok := s.profiles[id]
		if !ok {
			return model.NewNotFound("profile")
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *memoryRepository) GetProfileByIRI(ctx context.Context, iri string) (*model.Profile, error) {
	var out *model.Profile
	err := r.read(func(s *memoryState) error {
		for _, p := range s.profiles {
			if p.IRI == iri {
				out = p.Clone()
				return nil
			}
		}
		return model.NewNotFound("profile")
	})
	return out, err
}

func (r *memoryRepository) ListPublished(ctx context.Context, filter model.ListFilter) ([]*model.ProfileVersion, error) {
	var out []*model.ProfileVersion
	err := r.read(func(s *memoryState) error {
		for _, p := range s.profiles {
			if p.CurrentPublishedVersionID == nil {
				continue
			}
			if filter.OrganizationID != nil && p.OrganizationID != *filter.OrganizationID {
				continue
			}
			if v, ok := s.versions[*p.CurrentPublishedVersionID]; ok {
				out = append(out, v.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedOn.Equal(out[j].UpdatedOn) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].UpdatedOn.After(out[j].UpdatedOn)
	})
	return paginate(out, filter.Offset, filter.Limit), nil
}

func (s *memoryState) checkProfileIRI(id uuid.UUID, iri string) error {
	for _, p := range s.profiles {
		if p.ID != id && p.IRI == iri {
			return model.NewConflict(fmt.Sprintf("a profile with IRI %s already exists", iri))
		}
	}
	return nil
}

// ========================================
// VERSIONS
// ========================================

func (r *memoryRepository) CreateVersion(ctx context.Context, version *model.ProfileVersion) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.versions[version.ID]; ok {
			return model.NewConflict(fmt.Sprintf("version %s already exists", version.ID))
		}
		if _, ok := s.profiles[version.ProfileID]; !ok {
			return model.NewNotFound("profile")
		}
		if err := s.checkVersionUnique(version); err != nil {
			return err
		}
		s.versions[version.ID] = version.Clone()
		return nil
	})
}

func (r *memoryRepository) UpdateVersion(ctx context.Context, version *model.ProfileVersion) error {
	return r.write(func(s *memoryState) error {
		current, ok := s.versions[version.ID]
		if !ok {
			return model.NewNotFound("profile version")
		}
		if current.State != version.State {
			return model.NewConflict(fmt.Sprintf("version %d is now %s", current.Version, current.State))
		}
		if err := s.checkVersionUnique(version); err != nil {
			return err
		}
		// lifecycle columns only change through TransitionVersion
		updated := version.Clone()
		updated.WasRevisionOf = current.WasRevisionOf
		updated.PublishedOn = current.PublishedOn
		updated.PublishedBy = current.PublishedBy
		updated.ImportedHistory = current.ImportedHistory
		s.versions[version.ID] = updated
		return nil
	})
}

func (r *memoryRepository) TransitionVersion(ctx context.Context, version *model.ProfileVersion, from model.State) error {
	return r.write(func(s *memoryState) error {
		current, ok := s.versions[version.ID]
		if !ok {
			return model.NewNotFound("profile version")
		}
		if current.State != from {
			return model.NewConflict(fmt.Sprintf("version %d is %s, expected %s", current.Version, current.State, from))
		}
		s.versions[version.ID] = version.Clone()
		return nil
	})
}

func (r *memoryRepository) DeleteVersion(ctx context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.versions[id]; !ok {
			return model.NewNotFound("profile version")
		}
		delete(s.versions, id)
		return nil
	})
}

func (r *memoryRepository) GetVersion(ctx context.Context, id uuid.UUID) (*model.ProfileVersion, error) {
	var out *model.ProfileVersion
	err := r.read(func(s *memoryState) error {
		v, ok := s.versions[id]
		if !ok {
			return model.NewNotFound("profile version")
		}
		out = v.Clone()
		return nil
	})
	return out, err
}

func (r *memoryRepository) GetVersionByIRI(ctx context.Context, iri string) (*model.ProfileVersion, error) {
	var out *model.ProfileVersion
	err := r.read(func(s *memoryState) error {
		for _, v := range s.versions {
			if v.IRI == iri {
				out = v.Clone()
				return nil
			}
		}
		return model.NewNotFound("profile version")
	})
	return out, err
}

func (r *memoryRepository) ListVersions(ctx context.Context, profileID uuid.UUID) ([]*model.ProfileVersion, error) {
	var out []*model.ProfileVersion
	err := r.read(func(s *memoryState) error {
		for _, v := range s.versions {
			if v.ProfileID == profileID {
				out = append(out, v.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, err
}

func (r *memoryRepository) ListVersionsByState(ctx context.Context, state model.State, limit int) ([]*model.ProfileVersion, error) {
	var out []*model.ProfileVersion
	err := r.read(func(s *memoryState) error {
		for _, v := range s.versions {
			if v.State == state {
				out = append(out, v.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedOn.After(out[j].UpdatedOn) })
	return paginate(out, 0, limit), err
}

func (s *memoryState) checkVersionUnique(version *model.ProfileVersion) error {
	for _, v := range s.versions {
		if v.ID == version.ID {
			continue
		}
		if v.IRI == version.IRI {
			return model.NewConflict(fmt.Sprintf("a profile version with IRI %s already exists", version.IRI))
		}
		if v.ProfileID == version.ProfileID && v.Version == version.Version {
			return model.NewConflict(fmt.Sprintf("version %d already exists for this profile", version.Version))
		}
	}
	return nil
}

// ========================================
// COMPONENTS
// ========================================

func (r *memoryRepository) SaveConcept(ctx context.Context, concept *model.Concept) error {
	return r.write(func(s *memoryState) error {
		if err := s.checkComponentIRI(concept.ComponentHeader); err != nil {
			return err
		}
		s.concepts[concept.ID] = concept.Clone()
		return nil
	})
}

func (r *memoryRepository) SaveTemplate(ctx context.Context, template *model.Template) error {
	return r.write(func(s *memoryState) error {
		if err := s.checkComponentIRI(template.ComponentHeader); err != nil {
			return err
		}
		s.templates[template.ID] = template.Clone()
		return nil
	})
}

func (r *memoryRepository) SavePattern(ctx context.Context, pattern *model.Pattern) error {
	return r.write(func(s *memoryState) error {
		if err := s.checkComponentIRI(pattern.ComponentHeader); err != nil {
			return err
		}
		s.patterns[pattern.ID] = pattern.Clone()
		return nil
	})
}

func (r *memoryRepository) GetComponent(ctx context.Context, id uuid.UUID) (*model.ComponentSummary, error) {
	var out *model.ComponentSummary
	err := r.read(func(s *memoryState) error {
		out = s.summary(func(h model.ComponentHeader) bool { return h.ID == id })
		if out == nil {
			return model.NewNotFound("component")
		}
		return nil
	})
	return out, err
}

func (r *memoryRepository) GetComponentByIRI(ctx context.Context, iri string) (*model.ComponentSummary, error) {
	var out *model.ComponentSummary
	err := r.read(func(s *memoryState) error {
		for _, candidate := range s.summaries(func(h model.ComponentHeader) bool { return h.IRI == iri }) {
			if out == nil || s.preferred(candidate, out) {
				out = candidate
			}
		}
		if out == nil {
			return model.NewNotFound("component")
		}
		return nil
	})
	return out, err
}

// preferred orders copies of one IRI: published before draft, then the
// newest version
func (s *memoryState) preferred(a, b *model.ComponentSummary) bool {
	va, vb := s.versions[a.ParentVersionID], s.versions[b.ParentVersionID]
	rank := func(v *model.ProfileVersion) (bool, int) {
		if v == nil {
			return false, -1
		}
		return !v.IsDraft(), v.Version
	}
	pa, na := rank(va)
	pb, nb := rank(vb)
	if pa != pb {
		return pa
	}
	if na != nb {
		return na > nb
	}
	return a.ID.String() < b.ID.String()
}

func (r *memoryRepository) GetConcepts(ctx context.Context, ids []uuid.UUID) ([]*model.Concept, error) {
	out := make([]*model.Concept, 0, len(ids))
	err := r.read(func(s *memoryState) error {
		for _, id := range ids {
			if c, ok := s.concepts[id]; ok {
				out = append(out, c.Clone())
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRepository) GetTemplates(ctx context.Context, ids []uuid.UUID) ([]*model.Template, error) {
	out := make([]*model.Template, 0, len(ids))
	err := r.read(func(s *memoryState) error {
		for _, id := range ids {
			if t, ok := s.templates[id]; ok {
				out = append(out, t.Clone())
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRepository) GetPatterns(ctx context.Context, ids []uuid.UUID) ([]*model.Pattern, error) {
	out := make([]*model.Pattern, 0, len(ids))
	err := r.read(func(s *memoryState) error {
		for _, id := range ids {
			if p, ok := s.patterns[id]; ok {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRepository) DeleteComponent(ctx context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		_, c := s.concepts[id]
		_, t := s.templates[id]
		_, p := s.patterns[id]
		if !c && !t && !p {
			return model.NewNotFound("component")
		}
		delete(s.concepts, id)
		delete(s.templates, id)
		delete(s.patterns, id)
		return nil
	})
}

func (r *memoryRepository) PatternsReferencing(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.read(func(s *memoryState) error {
		for pid, p := range s.patterns {
			if p.HasMember(id) {
				out = append(out, pid)
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRepository) VersionsOwning(ctx context.Context, t model.ComponentType, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.read(func(s *memoryState) error {
		for vid, v := range s.versions {
			for _, owned := range v.ComponentIDs(t) {
				if owned == id {
					out = append(out, vid)
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (s *memoryState) summary(match func(model.ComponentHeader) bool) *model.ComponentSummary {
	if found := s.summaries(match); len(found) > 0 {
		return found[0]
	}
	return nil
}

func (s *memoryState) summaries(match func(model.ComponentHeader) bool) []*model.ComponentSummary {
	var out []*model.ComponentSummary
	for _, c := range s.concepts {
		if match(c.ComponentHeader) {
			out = append(out, summarize(c.ComponentHeader, model.ComponentConcept, false))
		}
	}
	for _, t := range s.templates {
		if match(t.ComponentHeader) {
			out = append(out, summarize(t.ComponentHeader, model.ComponentTemplate, false))
		}
	}
	for _, p := range s.patterns {
		if match(p.ComponentHeader) {
			out = append(out, summarize(p.ComponentHeader, model.ComponentPattern, p.Primary))
		}
	}
	return out
}

// checkComponentIRI keeps IRIs unique within one version. Every published
// version owns its own copy of a component, so the same IRI repeats
// across versions of a profile.
func (s *memoryState) checkComponentIRI(h model.ComponentHeader) error {
	existing := s.summary(func(other model.ComponentHeader) bool {
		return other.IRI == h.IRI && other.ParentVersionID == h.ParentVersionID && other.ID != h.ID
	})
	if existing != nil {
		return model.NewConflict(fmt.Sprintf("a component with IRI %s already exists", h.IRI))
	}
	return nil
}

func summarize(h model.ComponentHeader, t model.ComponentType, primary bool) *model.ComponentSummary {
	return &model.ComponentSummary{
		ID:              h.ID,
		IRI:             h.IRI,
		Type:            t,
		ParentVersionID: h.ParentVersionID,
		ParentProfileID: h.ParentProfileID,
		Primary:         primary,
	}
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
