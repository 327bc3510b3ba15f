package db

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/puoklam/connectly-backend/db/model"
	"github.com/puoklam/connectly-backend/directory"
)

// Store implements directory.Store on gorm.
type Store struct {
	db       *gorm.DB
	lockRows bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		lockRows: db.Dialector.Name() == "postgres",
	}
}

func (s *Store) Create(ctx context.Context, u *directory.User) error {
	if err := u.CheckIdentity(); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Hobbies = directory.NormalizeHobbies(u.Hobbies)

	row := &model.User{
		Base:  model.Base{ID: u.ID},
		Name:  u.Name,
		Email: u.Email,
		Pass:  u.PasswordHash,
	}
	for _, h := range u.Hobbies {
		row.Hobbies = append(row.Hobbies, &model.Hobby{UserID: u.ID, Name: h})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := duplicateOf(tx, u); err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent signup; find out which index it hit
		if derr := duplicateOf(s.db.WithContext(ctx), u); derr != nil {
			return derr
		}
		return directory.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*directory.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*directory.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *Store) FindManyByID(ctx context.Context, ids []string) ([]directory.User, error) {
	if len(ids) == 0 {
		return []directory.User{}, nil
	}
	tx := s.db.WithContext(ctx)
	var rows []model.User
	if err := tx.Where("id IN ?", directory.Set(ids)).Find(&rows).Error; err != nil {
		return nil, err
	}
	users, err := hydrate(tx, rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]directory.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]directory.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) Search(ctx context.Context, term, excludeID string) ([]directory.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	tx := s.db.WithContext(ctx)
	q := tx.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []model.User
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return hydrate(tx, rows)
}

func (s *Store) FindWhere(ctx context.Context, query directory.Query) ([]directory.User, error) {
	tx := s.db.WithContext(ctx)
	q := tx.Model(&model.User{})
	if len(query.Exclude) > 0 {
		q = q.Where("id NOT IN ?", query.Exclude)
	}
	if len(query.Hobbies) > 0 {
		sub := tx.Model(&model.Hobby{}).Select("user_id").Where("name IN ?", query.Hobbies)
		q = q.Where("id IN (?)", sub)
	}
	var rows []model.User
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return hydrate(tx, rows)
}

func (s *Store) Update(ctx context.Context, ids []string, fn directory.UpdateFunc) error {
	ids = directory.Set(ids)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if s.lockRows {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var rows []model.User
		if err := q.Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) != len(ids) {
			return directory.ErrNotFound
		}
		loaded, err := hydrate(tx, rows)
		if err != nil {
			return err
		}

		before := make(map[string]*directory.User, len(loaded))
		users := make(map[string]*directory.User, len(loaded))
		for i := range loaded {
			u := &loaded[i]
			before[u.ID] = u.Clone()
			users[u.ID] = u
		}
		if err := fn(users); err != nil {
			return err
		}

		now := time.Now()
		for _, id := range ids {
			if directory.Equal(before[id], users[id]) {
				continue
			}
			if err := write(tx, before[id], users[id], now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) first(ctx context.Context, cond string, arg any) (*directory.User, error) {
	tx := s.db.WithContext(ctx)
	var row model.User
	if err := tx.Where(cond, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	users, err := hydrate(tx, []model.User{row})
	if err != nil {
		return nil, err
	}
	return &users[0], nil
}

// hydrate loads the set columns for rows, keeping the order of rows.
func hydrate(tx *gorm.DB, rows []model.User) ([]directory.User, error) {
	out := make([]directory.User, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, len(rows))
	index := make(map[string]*directory.User, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
		out[i] = directory.User{
			ID:           r.ID,
			Name:         r.Name,
			Email:        r.Email,
			PasswordHash: r.Pass,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		}
		index[r.ID] = &out[i]
	}

	var friends []model.Friendship
	if err := tx.Where("user_id IN ?", ids).Order("friend_id").Find(&friends).Error; err != nil {
		return nil, err
	}
	for _, f := range friends {
		u := index[f.UserID]
		u.Friends = append(u.Friends, f.FriendID)
	}

	var requests []model.FriendRequest
	if err := tx.Where("user_id IN ?", ids).Order("from_id").Find(&requests).Error; err != nil {
		return nil, err
	}
	for _, r := range requests {
		u := index[r.UserID]
		u.FriendRequests = append(u.FriendRequests, r.FromID)
	}

	var hobbies []model.Hobby
	if err := tx.Where("user_id IN ?", ids).Order("name").Find(&hobbies).Error; err != nil {
		return nil, err
	}
	for _, h := range hobbies {
		u := index[h.UserID]
		u.Hobbies = append(u.Hobbies, h.Name)
	}
	return out, nil
}

// write persists the difference between before and after.
func write(tx *gorm.DB, before, after *directory.User, now time.Time) error {
	err := tx.Model(&model.User{}).Where("id = ?", after.ID).Updates(map[string]any{
		"name":       after.Name,
		"email":      after.Email,
		"pass":       after.PasswordHash,
		"updated_at": now,
	}).Error
	if err != nil {
		return err
	}

	added, removed := diff(before.Friends, after.Friends)
	if len(removed) > 0 {
		if err := tx.Where("user_id = ? AND friend_id IN ?", after.ID, removed).Delete(&model.Friendship{}).Error; err != nil {
			return err
		}
	}
	if len(added) > 0 {
		rows := make([]model.Friendship, len(added))
		for i, id := range added {
			rows[i] = model.Friendship{UserID: after.ID, FriendID: id, CreatedAt: now}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	added, removed = diff(before.FriendRequests, after.FriendRequests)
	if len(removed) > 0 {
		if err := tx.Where("user_id = ? AND from_id IN ?", after.ID, removed).Delete(&model.FriendRequest{}).Error; err != nil {
			return err
		}
	}
	if len(added) > 0 {
		rows := make([]model.FriendRequest, len(added))
		for i, id := range added {
			rows[i] = model.FriendRequest{UserID: after.ID, FromID: id, CreatedAt: now}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}

	added, removed = diff(before.Hobbies, after.Hobbies)
	if len(removed) > 0 {
		if err := tx.Where("user_id = ? AND name IN ?", after.ID, removed).Delete(&model.Hobby{}).Error; err != nil {
			return err
		}
	}
	if len(added) > 0 {
		rows := make([]model.Hobby, len(added))
		for i, name := range added {
			rows[i] = model.Hobby{UserID: after.ID, Name: name}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	after.UpdatedAt = now
	return nil
}

func diff(before, after []string) (added, removed []string) {
	for _, id := range after {
		if !slices.Contains(before, id) {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !slices.Contains(after, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// duplicateOf returns ErrDuplicateEmail or ErrDuplicateName when u collides
// with a stored user. Email is checked first.
func duplicateOf(tx *gorm.DB, u *directory.User) error {
	if exists, err := existsWhere(tx, "email = ?", u.Email); err != nil {
		return err
	} else if exists {
		return directory.ErrDuplicateEmail
	}
	if exists, err := existsWhere(tx, "name = ?", u.Name); err != nil {
		return err
	} else if exists {
		return directory.ErrDuplicateName
	}
	return nil
}

func existsWhere(tx *gorm.DB, cond string, arg any) (bool, error) {
	var n int64
	if err := tx.Model(&model.User{}).Where(cond, arg).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
