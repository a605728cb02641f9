package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/interfaces"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	"github.com/taskdesk/taskdesk/pkg/utils/logging"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a session does not exist
var ErrNotFound = interfaces.ErrNotFound

type Postgres struct {
	db        *gorm.DB
	chat      *chatRepository
	content   *contentRepository
	embedding *embeddingRepository
}

var _ interfaces.Repository = &Postgres{}

type Option func(*Postgres)

// WithEmbeddingDimension sets the width of the vector column created by Ensure
func WithEmbeddingDimension(dim int) Option {
	return func(p *Postgres) {
		p.embedding.dimension = dim
	}
}

func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	gormLog := gormLogger.New(
		slog.NewLogLogger(logging.Default().Handler(), slog.LevelWarn),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	p := &Postgres{
		db:        db,
		chat:      newChatRepository(db),
		content:   newContentRepository(db),
		embedding: newEmbeddingRepository(db, model.DefaultEmbeddingDimension),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.Ping(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

// Migrate creates or updates every table. The vector table is created separately by
// Embedding().Ensure because it depends on the pgvector extension.
func (p *Postgres) Migrate(ctx context.Context) error {
	if err := p.db.WithContext(ctx).AutoMigrate(
		&chatSessionRow{},
		&chatMessageRow{},
		&noteRow{},
		&guideRow{},
		&taskRow{},
		&templateRow{},
		&favoriteRow{},
		&dataTableRow{},
	); err != nil {
		return goerr.Wrap(err, "failed to migrate postgres schema")
	}
	return nil
}

func (p *Postgres) Chat() interfaces.ChatRepository {
	return p.chat
}

func (p *Postgres) Content() interfaces.ContentRepository {
	return p.content
}

func (p *Postgres) Embedding() interfaces.EmbeddingRepository {
	return p.embedding
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get postgres connection pool")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return goerr.Wrap(err, "failed to reach postgres")
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get postgres connection pool")
	}
	return sqlDB.Close()
}
