package memstore

import (
	"context"
	"time"

	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mails struct{ d *db }

func (s *mails) Create(ctx context.Context, m *models.Mail) error {
	defer s.d.lock(ctx)()
	if m.Status == "" {
		m.Status = models.MailStatusUnread
	}
	if m.Replies == nil {
		m.Replies = []models.Reply{}
	}
	stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	s.d.mails[m.ID] = cloneMail(*m)
	return nil
}

func (s *mails) Get(_ context.Context, id primitive.ObjectID) (*models.Mail, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	m, ok := s.d.mails[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m = cloneMail(m)
	return &m, nil
}

func (s *mails) FindByOrder(_ context.Context, userID, orderID primitive.ObjectID) (*models.Mail, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	all := sortedValues(s.d.mails, func(a, b models.Mail) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	for _, m := range all {
		if m.UserID == userID && m.OrderID != nil && *m.OrderID == orderID {
			m = cloneMail(m)
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mails) List(_ context.Context, f store.MailFilter, page utils.Page) ([]models.Mail, int64, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	all := sortedValues(s.d.mails, func(a, b models.Mail) bool {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	var matched []models.Mail
	for _, m := range all {
		switch {
		case f.UserID != nil && m.UserID != *f.UserID:
			continue
		case f.Answered && m.AdminID == nil:
			continue
		case f.Search != "" && !containsFold(m.Subject, f.Search):
			continue
		case f.Status != nil && m.Status != *f.Status:
			continue
		case f.MailType != nil && m.MailType != *f.MailType:
			continue
		}
		matched = append(matched, cloneMail(m))
	}
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *mails) update(ctx context.Context, id primitive.ObjectID, fn func(*models.Mail)) (*models.Mail, error) {
	defer s.d.lock(ctx)()
	m, ok := s.d.mails[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m = cloneMail(m)
	fn(&m)
	m.UpdatedAt = time.Now()
	s.d.mails[id] = m
	m = cloneMail(m)
	return &m, nil
}

func (s *mails) Update(ctx context.Context, id primitive.ObjectID, u models.MailUpdate) (*models.Mail, error) {
	return s.update(ctx, id, func(m *models.Mail) {
		if u.OrderID != nil {
			m.OrderID = u.OrderID
		}
		if u.Subject != nil {
			m.Subject = *u.Subject
		}
		if u.Body != nil {
			m.Body = *u.Body
		}
		if u.MailType != nil {
			m.MailType = *u.MailType
		}
		if u.Image != nil {
			m.Image = *u.Image
		}
	})
}

func (s *mails) Delete(ctx context.Context, id primitive.ObjectID) (*models.Mail, error) {
	defer s.d.lock(ctx)()
	m, ok := s.d.mails[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.d.mails, id)
	return &m, nil
}

func (s *mails) AddReply(ctx context.Context, id primitive.ObjectID, reply models.Reply, adminID *primitive.ObjectID) (*models.Mail, error) {
	if reply.ID.IsZero() {
		reply.ID = primitive.NewObjectID()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	return s.update(ctx, id, func(m *models.Mail) {
		m.Replies = append(m.Replies, reply)
		if adminID != nil {
			m.AdminID = adminID
		}
	})
}

func (s *mails) SaveReadState(ctx context.Context, m *models.Mail) error {
	_, err := s.update(ctx, m.ID, func(stored *models.Mail) {
		stored.Status = m.Status
		read := make(map[primitive.ObjectID]bool, len(m.Replies))
		for _, r := range m.Replies {
			read[r.ID] = r.IsRead
		}
		for i := range stored.Replies {
			if read[stored.Replies[i].ID] {
				stored.Replies[i].IsRead = true
			}
		}
	})
	return err
}
