package memstore

import (
	"context"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type users struct{ d *db }

func (s *users) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *users) FindByAuthID(_ context.Context, authID string) (*models.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, u := range s.d.users {
		if u.AuthID == authID {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *users) Create(ctx context.Context, u *models.User) error {
	defer s.d.lock(ctx)()
	for _, existing := range s.d.users {
		if existing.AuthID == u.AuthID {
			return store.ErrDuplicate
		}
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.d.users[u.ID] = *u
	return nil
}

func (s *users) update(ctx context.Context, id primitive.ObjectID, fn func(*models.User)) (*models.User, error) {
	defer s.d.lock(ctx)()
	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	s.d.users[id] = u
	return &u, nil
}

func (s *users) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileUpdate) (*models.User, error) {
	return s.update(ctx, id, func(u *models.User) {
		if p.FirstName != "" {
			u.FirstName = p.FirstName
		}
		if p.LastName != "" {
			u.LastName = p.LastName
		}
		if p.PhoneMobile != "" {
			u.PhoneMobile = p.PhoneMobile
		}
	})
}

func (s *users) UpdateImage(ctx context.Context, id primitive.ObjectID, imageURL string) (*models.User, error) {
	return s.update(ctx, id, func(u *models.User) { u.ImageURL = imageURL })
}

func (s *users) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	return s.update(ctx, id, func(u *models.User) { u.Role = role })
}

func (s *users) Delete(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer s.d.lock(ctx)()
	u, ok := s.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.d.users, id)
	return &u, nil
}

func (s *users) List(_ context.Context, f store.UserFilter, page utils.Page) ([]models.User, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	all := sortedValues(s.d.users, func(a, b models.User) bool {
		if f.OldestFirst {
			return !newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		}
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	var matched []models.User
	for _, u := range all {
		if f.Search != "" && !containsFold(u.FirstName, f.Search) && !containsFold(u.Email, f.Search) {
			continue
		}
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		matched = append(matched, u)
	}
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *users) Count(_ context.Context) (int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	return int64(len(s.d.users)), nil
}
