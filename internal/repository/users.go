// Package repository holds the typed data-access functions for each
// collection. It is the only package that talks to the document store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type ListOptions struct {
	ExcludeAdmins bool
	ActiveOnly    bool
}

type UserRepository struct {
	store      docstore.Store
	collection string
}

func NewUserRepository(store docstore.Store, collection string) *UserRepository {
	return &UserRepository{store: store, collection: collection}
}

func (r *UserRepository) Collection() string { return r.collection }

func (r *UserRepository) query() docstore.Query {
	return docstore.Collection(r.collection).OrderBy(fieldCreatedAt, docstore.Desc)
}

func (r *UserRepository) decodeAll(docs []docstore.Document, opts ListOptions) []models.ApprovedUser {
	users := make([]models.ApprovedUser, 0, len(docs))
	for _, d := range docs {
		u := decodeUser(d)
		// Role casing and the active flag's field name vary in stored data, so
		// both filters run after decoding.
		if opts.ExcludeAdmins && u.Role == models.RoleAdmin {
			continue
		}
		if opts.ActiveOnly && !u.Active {
			continue
		}
		users = append(users, u)
	}
	return users
}

func (r *UserRepository) List(ctx context.Context, opts ListOptions) ([]models.ApprovedUser, error) {
	docs, err := r.store.Query(ctx, r.query())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return r.decodeAll(docs, opts), nil
}

// Subscribe pushes the decoded roster after every change until the returned
// handle is called.
func (r *UserRepository) Subscribe(ctx context.Context, opts ListOptions, onChange func([]models.ApprovedUser), onError func(error)) (docstore.Unsubscribe, error) {
	return r.store.Subscribe(ctx, r.query(), func(s docstore.Snapshot) {
		onChange(r.decodeAll(s.Docs, opts))
	}, onError)
}

func (r *UserRepository) Get(ctx context.Context, id string) (models.ApprovedUser, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.ApprovedUser{}, ErrUserNotFound
	}
	if err != nil {
		return models.ApprovedUser{}, fmt.Errorf("get user: %w", err)
	}
	return decodeUser(doc), nil
}

// FindByEmail returns users whose stored email equals email exactly.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) ([]models.ApprovedUser, error) {
	q := docstore.Collection(r.collection).Where(fieldEmail, docstore.OpEqual, strings.ToLower(strings.TrimSpace(email)))
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return r.decodeAll(docs, ListOptions{}), nil
}

// Create validates the form and adds an active, approved user.
func (r *UserRepository) Create(ctx context.Context, in models.NewApprovedUser) (models.ApprovedUser, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return models.ApprovedUser{}, errs
	}
	in = in.Normalized()

	fields := docstore.Fields{
		fieldName:       in.Name,
		fieldEmail:      in.Email,
		fieldRole:       in.Role,
		fieldIsActive:   true,
		fieldCreatedAt:  docstore.ServerTimestamp,
		fieldApprovedAt: docstore.ServerTimestamp,
	}
	if in.ApprovedBy != "" {
		fields[fieldApprovedBy] = in.ApprovedBy
	}

	id, err := r.store.Add(ctx, r.collection, fields)
	if err != nil {
		return models.ApprovedUser{}, fmt.Errorf("create user: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *UserRepository) Update(ctx context.Context, id string, patch models.UserPatch) (models.ApprovedUser, error) {
	if errs := patch.Validate(); len(errs) > 0 {
		return models.ApprovedUser{}, errs
	}
	if patch.Empty() {
		return r.Get(ctx, id)
	}

	fields := docstore.Fields{}
	if patch.Name != nil {
		fields[fieldName] = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		fields[fieldEmail] = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Role != nil {
		role, _ := models.ParseRole(*patch.Role)
		fields[fieldRole] = string(role)
	}

	if err := r.write(ctx, id, fields); err != nil {
		return models.ApprovedUser{}, err
	}
	return r.Get(ctx, id)
}

// SetActive writes the isActive flag and nothing else.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.write(ctx, id, docstore.Fields{fieldIsActive: active})
}

func (r *UserRepository) ToggleActive(ctx context.Context, id string) (models.ApprovedUser, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return models.ApprovedUser{}, err
	}
	if err := r.SetActive(ctx, id, !u.Active); err != nil {
		return models.ApprovedUser{}, err
	}
	u.Active = !u.Active
	return u, nil
}

// Delete permanently removes the user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) write(ctx context.Context, id string, fields docstore.Fields) error {
	err := r.store.Update(ctx, r.collection, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
