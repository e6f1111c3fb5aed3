package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/utils"

	"github.com/gosimple/slug"
)

// MaxTagNameLength 标签名最大字符数
const MaxTagNameLength = 64

// TagService 标签服务
type TagService struct {
	tagRepo TagRepositoryInterface
	logger  utils.Logger
	now     func() time.Time
}

// NewTagService 创建标签服务
func NewTagService(tagRepo TagRepositoryInterface) *TagService {
	return &TagService{
		tagRepo: tagRepo,
		logger:  utils.GetLogger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrGet 按 (subject, name) 查找标签，不存在时创建
//
// 并发创建同名标签时，后到者会收到 ErrDuplicateEntry，此时重新查询即可拿到先到者的记录。
func (s *TagService) CreateOrGet(ctx context.Context, subject, rawName string) (*models.Tag, error) {
	subject = utils.NormalizeSubject(subject)
	if !utils.ValidateSubject(subject) {
		return nil, utils.NewValidationError("无效的学科标识")
	}
	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, utils.NewValidationError("标签名不能为空")
	}
	if !utils.RuneLengthBetween(name, 1, MaxTagNameLength) {
		return nil, utils.NewValidationError("标签名不能超过%d个字符", MaxTagNameLength)
	}

	existing, err := s.tagRepo.FindTagByName(ctx, subject, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	tag := &models.Tag{
		Subject:   subject,
		Name:      name,
		Slug:      makeSlug(name),
		CreatedAt: s.now(),
	}
	if err := s.tagRepo.CreateTag(ctx, tag); err != nil {
		if !errors.Is(err, utils.ErrDuplicateEntry) {
			return nil, err
		}
		s.logger.Debug("标签已被并发创建，重新查询", "subject", subject, "name", name)
		existing, err := s.tagRepo.FindTagByName(ctx, subject, name)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, utils.ErrDatabaseQuery
		}
		return existing, nil
	}

	s.logger.Info("标签创建成功", "tagID", tag.ID, "subject", subject, "name", name)
	return tag, nil
}

// ResolveIDs 校验一组标签ID都存在且属于同一学科，返回按ID升序的标签
func (s *TagService) ResolveIDs(ctx context.Context, subject string, ids []uint) ([]models.Tag, error) {
	subject = utils.NormalizeSubject(subject)
	unique := utils.UniqueUints(ids)
	if len(unique) == 0 {
		return []models.Tag{}, nil
	}

	tags, err := s.tagRepo.FindTagsByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}

	found := make(map[uint]models.Tag, len(tags))
	for _, t := range tags {
		found[t.ID] = t
	}
	for _, id := range unique {
		t, ok := found[id]
		if !ok || t.Subject != subject {
			return nil, utils.NewNotFoundError("标签不存在: %d", id)
		}
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

// List 获取学科下的全部标签
func (s *TagService) List(ctx context.Context, subject string) ([]models.Tag, error) {
	subject = utils.NormalizeSubject(subject)
	if !utils.ValidateSubject(subject) {
		return nil, utils.NewValidationError("无效的学科标识")
	}
	return s.tagRepo.ListTags(ctx, subject)
}

// makeSlug 生成 URL 友好的标识，无法转写时保留原名
func makeSlug(name string) string {
	if sl := slug.Make(name); sl != "" {
		return sl
	}
	return name
}
