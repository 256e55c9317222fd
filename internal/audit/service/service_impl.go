package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/dealerhub/internal/audit/domain"
	"github.com/smallbiznis/dealerhub/internal/audit/masking"
	"github.com/smallbiznis/dealerhub/internal/clock"
	obscontext "github.com/smallbiznis/dealerhub/internal/observability/context"
	"github.com/smallbiznis/dealerhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, actor string, action auditdomain.Action, entity auditdomain.Entity, entityID string, metadata map[string]any) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return auditdomain.ErrInvalidActor
	}
	if !action.Valid() {
		return auditdomain.ErrInvalidAction
	}
	if !entity.Valid() {
		return auditdomain.ErrInvalidEntity
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return auditdomain.ErrInvalidEntityID
	}

	payload := masking.MaskMetadata(metadata)
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["requestId"] = requestID
	}

	entry := auditdomain.AuditLog{
		ID:        s.genID.Generate(),
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Metadata:  datatypes.JSONMap(payload),
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", string(action)),
			zap.String("entity", string(entity)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) Query(ctx context.Context, req auditdomain.QueryRequest) (auditdomain.QueryResponse, error) {
	filter := auditdomain.ListFilter{
		EntityID: strings.TrimSpace(req.EntityID),
		Limit:    pagination.NormalizePageSize(req.PageSize),
	}
	if entity := strings.ToUpper(strings.TrimSpace(req.Entity)); entity != "" {
		filter.Entity = auditdomain.Entity(entity)
		if !filter.Entity.Valid() {
			return auditdomain.QueryResponse{}, auditdomain.ErrInvalidEntity
		}
	}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeCursor(token)
		if err != nil {
			return auditdomain.QueryResponse{}, err
		}
		filter.Cursor = cursor
	} else {
		filter.Offset = pagination.Offset(req.Page, filter.Limit)
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return auditdomain.QueryResponse{}, err
	}

	pageInfo, items := pagination.BuildCursorPageInfo(items, filter.Limit, func(item *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}
	return auditdomain.QueryResponse{PageInfo: pageInfo, AuditLogs: logs}, nil
}

func decodeCursor(token string) (*auditdomain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, auditdomain.ErrInvalidPageToken
	}
	return &auditdomain.Cursor{ID: id, CreatedAt: createdAt.UTC()}, nil
}
