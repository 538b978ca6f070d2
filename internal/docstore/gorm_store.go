package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/nexxacraft/community-admin/internal/metrics"
	"github.com/nexxacraft/community-admin/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var pushdownField = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GormStore keeps every collection in the documents table.
type GormStore struct {
	db     *gorm.DB
	broker Broker
	now    func() time.Time
	newID  func() string
}

type Option func(*GormStore)

func WithClock(now func() time.Time) Option {
	return func(s *GormStore) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *GormStore) { s.newID = gen }
}

func NewGormStore(db *gorm.DB, broker Broker, opts ...Option) *GormStore {
	s := &GormStore{
		db:     db,
		broker: broker,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.broker == nil {
		s.broker = NewMemoryBroker()
	}
	return s
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeRow(row)
}

func (s *GormStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Where("collection = ?", q.collection)
	for _, f := range q.filters {
		str, ok := f.Value.(string)
		if f.Op == OpEqual && ok && pushdownField.MatchString(f.Field) {
			tx = tx.Where(datatypes.JSONQuery("data").Equals(str, f.Field))
		}
	}

	var rows []models.Document
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", q.collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			slog.Warn("skipping undecodable document", "collection", row.Collection, "id", row.ID, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return q.apply(docs), nil
}

func (s *GormStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("%w: empty collection name", ErrInvalidQuery)
	}
	now := s.now().UTC()
	data, err := encodeFields(fields, now)
	if err != nil {
		return "", err
	}

	row := models.Document{
		Collection: collection,
		ID:         s.newID(),
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}

	s.publish(ctx, Change{Collection: collection, ID: row.ID, Kind: ChangeAdded})
	return row.ID, nil
}

func (s *GormStore) Update(ctx context.Context, collection, id string, partial Fields) error {
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row models.Document
		err := tx.Where("collection = ? AND id = ?", collection, id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		current := Fields{}
		if err := json.Unmarshal(row.Data, &current); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		for k, v := range partial {
			current[k] = v
		}
		data, err := encodeFields(current, now)
		if err != nil {
			return err
		}

		return tx.Model(&models.Document{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{"data": data, "updated_at": now}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, Change{Collection: collection, ID: id, Kind: ChangeModified})
	return nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected > 0 {
		s.publish(ctx, Change{Collection: collection, ID: id, Kind: ChangeRemoved})
	}
	return nil
}

// publish failures do not fail the write; subscribers catch up on the next change.
func (s *GormStore) publish(ctx context.Context, change Change) {
	metrics.DocstoreWrites.WithLabelValues(change.Collection, string(change.Kind)).Inc()
	if err := s.broker.Publish(context.WithoutCancel(ctx), change); err != nil {
		metrics.BrokerPublishErrors.WithLabelValues(change.Collection).Inc()
		slog.Warn("change publish failed", "collection", change.Collection, "id", change.ID, "error", err)
	}
}

func encodeFields(fields Fields, now time.Time) (datatypes.JSON, error) {
	if fields == nil {
		fields = Fields{}
	}
	resolved := resolveSentinels(fields, FormatTimestamp(now))
	b, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeRow(row models.Document) (Document, error) {
	fields := Fields{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &fields); err != nil {
			return Document{}, fmt.Errorf("decode %s/%s: %w", row.Collection, row.ID, err)
		}
	}
	return Document{
		ID:        row.ID,
		Fields:    fields,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
