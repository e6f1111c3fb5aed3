// Package memstore 内存实现的全部仓储接口，用于服务层测试和本地调试
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// Store 内存存储，行为与 MySQL 仓储保持一致：
// Find* 未命中返回 (nil, nil)，违反唯一约束返回 utils.ErrDuplicateEntry。
type Store struct {
	mu sync.RWMutex

	nextID uint

	tags         map[uint]models.Tag
	categories   map[uint]models.Category
	problemTypes map[uint]models.ProblemType
	problems     map[uint]models.Problem
	daily        map[string]models.DailyProblem
	comments     map[uint]models.ProblemComment
	reports      map[uint]models.Report
	roles        map[uint]models.Role
	users        map[uint]models.User
	userRoles    map[uint][]uint
}

// New 创建空的内存存储
func New() *Store {
	return &Store{
		tags:         make(map[uint]models.Tag),
		categories:   make(map[uint]models.Category),
		problemTypes: make(map[uint]models.ProblemType),
		problems:     make(map[uint]models.Problem),
		daily:        make(map[string]models.DailyProblem),
		comments:     make(map[uint]models.ProblemComment),
		reports:      make(map[uint]models.Report),
		roles:        make(map[uint]models.Role),
		users:        make(map[uint]models.User),
		userRoles:    make(map[uint][]uint),
	}
}

// id 生成自增ID，调用方需持有写锁
func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ========== Tag ==========

func (s *Store) CreateTag(_ context.Context, tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Subject == tag.Subject && t.Name == tag.Name {
			return utils.ErrDuplicateEntry
		}
	}
	tag.ID = s.id()
	s.tags[tag.ID] = *tag
	return nil
}

func (s *Store) FindTagByName(_ context.Context, subject, name string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tags {
		if t.Subject == subject && t.Name == name {
			tag := t
			return &tag, nil
		}
	}
	return nil, nil
}

func (s *Store) FindTagsByIDs(_ context.Context, ids []uint) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := []models.Tag{}
	for _, id := range ids {
		if t, ok := s.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	return tags, nil
}

func (s *Store) ListTags(_ context.Context, subject string) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := []models.Tag{}
	for _, t := range s.tags {
		if t.Subject == subject {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Name != tags[j].Name {
			return tags[i].Name < tags[j].Name
		}
		return tags[i].ID < tags[j].ID
	})
	return tags, nil
}

// ========== Category ==========

func (s *Store) CreateCategory(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.categories[c.ID] = copyCategory(*c)
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok {
		return nil, nil
	}
	updated := copyCategory(*c)
	updated.Subject = existing.Subject
	updated.Enabled = existing.Enabled
	updated.CreatedAt = existing.CreatedAt
	s.categories[c.ID] = updated
	out := copyCategory(updated)
	return &out, nil
}

func (s *Store) SetCategoryEnabled(_ context.Context, id uint, enabled bool, updatedAt time.Time) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	c.Enabled = enabled
	c.UpdatedAt = updatedAt
	s.categories[id] = c
	out := copyCategory(c)
	return &out, nil
}

func (s *Store) FindCategoryByID(_ context.Context, id uint) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	out := copyCategory(c)
	return &out, nil
}

func (s *Store) ListCategories(_ context.Context, subject string) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []models.Category{}
	for _, c := range s.categories {
		if c.Subject == subject {
			list = append(list, copyCategory(c))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func copyCategory(c models.Category) models.Category {
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	return c
}

// ========== ProblemType ==========

func (s *Store) CreateProblemType(_ context.Context, pt *models.ProblemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt.ID = s.id()
	s.problemTypes[pt.ID] = *pt
	return nil
}

func (s *Store) UpdateProblemType(_ context.Context, pt *models.ProblemType) (*models.ProblemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.problemTypes[pt.ID]
	if !ok {
		return nil, nil
	}
	updated := *pt
	updated.Subject = existing.Subject
	updated.Enabled = existing.Enabled
	updated.CreatedAt = existing.CreatedAt
	s.problemTypes[pt.ID] = updated
	return &updated, nil
}

func (s *Store) SetProblemTypeEnabled(_ context.Context, id uint, enabled bool, updatedAt time.Time) (*models.ProblemType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pt, ok := s.problemTypes[id]
	if !ok {
		return nil, nil
	}
	pt.Enabled = enabled
	pt.UpdatedAt = updatedAt
	s.problemTypes[id] = pt
	return &pt, nil
}

func (s *Store) FindProblemTypeByID(_ context.Context, id uint) (*models.ProblemType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pt, ok := s.problemTypes[id]
	if !ok {
		return nil, nil
	}
	return &pt, nil
}

func (s *Store) ListProblemTypes(_ context.Context, subject string) ([]models.ProblemType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []models.ProblemType{}
	for _, pt := range s.problemTypes {
		if pt.Subject == subject {
			list = append(list, pt)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// ========== Problem ==========

func (s *Store) CreateProblem(_ context.Context, p *models.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.problems[p.ID] = copyProblem(*p)
	return nil
}

func (s *Store) UpdateProblem(_ context.Context, p *models.Problem) (*models.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.problems[p.ID]
	if !ok {
		return nil, nil
	}
	updated := copyProblem(*p)
	updated.Subject = existing.Subject
	updated.AuthorID = existing.AuthorID
	updated.Status = existing.Status
	updated.PublishedAt = existing.PublishedAt
	updated.CreatedAt = existing.CreatedAt
	updated.TagIDs = existing.TagIDs
	s.problems[p.ID] = updated
	out := copyProblem(updated)
	return &out, nil
}

func (s *Store) UpdateProblemStatus(_ context.Context, id uint, change models.ProblemStatusChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[id]
	if !ok || p.Status != change.From {
		return false, nil
	}
	p.Status = change.To
	if change.PublishedAt != nil {
		publishedAt := *change.PublishedAt
		p.PublishedAt = &publishedAt
	}
	p.UpdatedAt = change.UpdatedAt
	s.problems[id] = p
	return true, nil
}

func (s *Store) FindProblemByID(_ context.Context, id uint) (*models.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.problems[id]
	if !ok {
		return nil, nil
	}
	out := copyProblem(p)
	return &out, nil
}

func (s *Store) ReplaceProblemTags(_ context.Context, problemID uint, tagIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.problems[problemID]
	if !ok {
		return nil
	}
	p.TagIDs = append([]uint{}, tagIDs...)
	sort.Slice(p.TagIDs, func(i, j int) bool { return p.TagIDs[i] < p.TagIDs[j] })
	p.UpdatedAt = time.Now().UTC()
	s.problems[problemID] = p
	return nil
}

func (s *Store) ListProblems(_ context.Context, q models.ProblemQuery) ([]models.Problem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyword := strings.ToLower(q.Keyword)
	wanted := make(map[uint]struct{}, len(q.TagIDs))
	for _, id := range q.TagIDs {
		wanted[id] = struct{}{}
	}

	matched := []models.Problem{}
	for _, p := range s.problems {
		if p.Subject != q.Subject {
			continue
		}
		if len(wanted) > 0 && !hasAnyTag(p.TagIDs, wanted) {
			continue
		}
		if q.MinDifficulty != nil && p.Difficulty < *q.MinDifficulty {
			continue
		}
		if q.MaxDifficulty != nil && p.Difficulty > *q.MaxDifficulty {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(p.Title), keyword) {
			continue
		}
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		if q.Visibility != nil && p.Visibility != *q.Visibility {
			continue
		}
		if q.Viewer != nil && !q.Viewer.Privileged && p.AuthorID != q.Viewer.UserID &&
			(p.Status != models.ProblemStatusPublished || p.Visibility != models.VisibilityPublic) {
			continue
		}
		matched = append(matched, copyProblem(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch q.Sort {
		case models.SortDifficulty:
			if a.Difficulty != b.Difficulty {
				return a.Difficulty < b.Difficulty
			}
			return a.ID < b.ID
		case models.SortPublishedAt:
			// MySQL 倒序时 NULL 排在最后
			switch {
			case a.PublishedAt == nil && b.PublishedAt == nil:
			case a.PublishedAt == nil:
				return false
			case b.PublishedAt == nil:
				return true
			case !a.PublishedAt.Equal(*b.PublishedAt):
				return a.PublishedAt.After(*b.PublishedAt)
			}
			return a.ID > b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})

	return paginate(matched, models.Offset(q.Page, q.PageSize), q.PageSize), len(matched), nil
}

func hasAnyTag(tagIDs []uint, wanted map[uint]struct{}) bool {
	for _, id := range tagIDs {
		if _, ok := wanted[id]; ok {
			return true
		}
	}
	return false
}

func copyProblem(p models.Problem) models.Problem {
	p.TagIDs = append([]uint{}, p.TagIDs...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		p.PublishedAt = &t
	}
	return p
}

// ========== DailyProblem ==========

func (s *Store) CreateDailyProblem(_ context.Context, dp *models.DailyProblem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.daily[dp.Day]; ok {
		return utils.ErrDuplicateEntry
	}
	s.daily[dp.Day] = *dp
	return nil
}

func (s *Store) UpdateDailyProblem(_ context.Context, dp *models.DailyProblem) (*models.DailyProblem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.daily[dp.Day]
	if !ok {
		return nil, nil
	}
	existing.ProblemID = dp.ProblemID
	existing.Copywriting = dp.Copywriting
	existing.OperatorID = dp.OperatorID
	existing.UpdatedAt = dp.UpdatedAt
	s.daily[dp.Day] = existing
	return &existing, nil
}

func (s *Store) FindDailyProblem(_ context.Context, day string) (*models.DailyProblem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dp, ok := s.daily[day]
	if !ok {
		return nil, nil
	}
	return &dp, nil
}

func (s *Store) ListDailyProblems(_ context.Context, from, to string) ([]models.DailyProblem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []models.DailyProblem{}
	for day, dp := range s.daily {
		// YYYY-MM-DD 可以直接按字符串比较
		if day >= from && day <= to {
			list = append(list, dp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Day < list[j].Day })
	return list, nil
}

// DailyProblemCount 当前每日一题条数
func (s *Store) DailyProblemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.daily)
}

// ========== Comment ==========

func (s *Store) CreateComment(_ context.Context, c *models.ProblemComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.comments[c.ID] = copyComment(*c)
	return nil
}

func (s *Store) FindCommentByID(_ context.Context, id uint) (*models.ProblemComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	out := copyComment(c)
	return &out, nil
}

func (s *Store) SoftDeleteComment(_ context.Context, id uint) (*models.ProblemComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	c.Content = nil
	c.Deleted = true
	s.comments[id] = c
	out := copyComment(c)
	return &out, nil
}

func (s *Store) IncrementCommentLikes(_ context.Context, id uint) (*models.ProblemComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	c.LikeCount++
	s.comments[id] = c
	out := copyComment(c)
	return &out, nil
}

func (s *Store) ListTopLevelComments(_ context.Context, problemID uint, offset, limit int) ([]models.ProblemComment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []models.ProblemComment{}
	for _, c := range s.comments {
		if c.ProblemID == problemID && c.ParentID == nil {
			list = append(list, copyComment(c))
		}
	}
	sortComments(list)
	return paginate(list, offset, limit), len(list), nil
}

func (s *Store) ListReplies(_ context.Context, parentIDs []uint) ([]models.ProblemComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	parents := make(map[uint]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	list := []models.ProblemComment{}
	for _, c := range s.comments {
		if c.ParentID == nil {
			continue
		}
		if _, ok := parents[*c.ParentID]; ok {
			list = append(list, copyComment(c))
		}
	}
	sortComments(list)
	return list, nil
}

func sortComments(list []models.ProblemComment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func copyComment(c models.ProblemComment) models.ProblemComment {
	if c.ParentID != nil {
		v := *c.ParentID
		c.ParentID = &v
	}
	if c.ReplyToCommentID != nil {
		v := *c.ReplyToCommentID
		c.ReplyToCommentID = &v
	}
	if c.Content != nil {
		v := *c.Content
		c.Content = &v
	}
	return c
}

// ========== Report ==========

func (s *Store) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.reports[r.ID] = *r
	return nil
}

func (s *Store) FindReportByID(_ context.Context, id uint) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) MarkReportHandled(_ context.Context, id uint, h models.ReportHandling) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.Status != models.ReportStatusPending {
		return false, nil
	}
	handlerID := h.HandlerID
	handledAt := h.HandledAt
	r.Status = h.Status
	r.HandlerID = &handlerID
	r.HandledAt = &handledAt
	if h.Note != nil {
		note := *h.Note
		r.HandlingNote = &note
	}
	s.reports[id] = r
	return true, nil
}

func (s *Store) ListReports(_ context.Context, q models.ReportQuery) ([]models.Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []models.Report{}
	for _, r := range s.reports {
		if q.TargetType != nil && r.TargetType != *q.TargetType {
			continue
		}
		if q.Status != nil && r.Status != *q.Status {
			continue
		}
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return paginate(list, models.Offset(q.Page, q.PageSize), q.PageSize), len(list), nil
}

// ========== Role ==========

func (s *Store) CreateRole(_ context.Context, role *models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Code == role.Code {
			return utils.ErrDuplicateEntry
		}
	}
	role.ID = s.id()
	s.roles[role.ID] = *role
	return nil
}

func (s *Store) FindRoleByCode(_ context.Context, code string) (*models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Code == code {
			role := r
			return &role, nil
		}
	}
	return nil, nil
}

func (s *Store) FindRolesByCodes(_ context.Context, codes []string) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		wanted[c] = struct{}{}
	}
	list := []models.Role{}
	for _, r := range s.roles {
		if _, ok := wanted[r.Code]; ok {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *Store) ListRoles(_ context.Context) ([]models.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.Role, 0, len(s.roles))
	for _, r := range s.roles {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ========== User ==========

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return utils.ErrDuplicateEntry
		}
	}
	user.ID = s.id()
	stored := *user
	stored.Roles = nil
	s.users[user.ID] = stored
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return s.withRoles(u), nil
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return s.withRoles(u), nil
		}
	}
	return nil, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.withRoles(u), nil
		}
	}
	return nil, nil
}

func (s *Store) ReplaceUserRoles(_ context.Context, userID uint, roleIDs []uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := append([]uint{}, roleIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.userRoles[userID] = ids
	return nil
}

// withRoles 调用方需持有读锁
func (s *Store) withRoles(u models.User) *models.User {
	u.Roles = []models.Role{}
	for _, id := range s.userRoles[u.ID] {
		if r, ok := s.roles[id]; ok {
			u.Roles = append(u.Roles, r)
		}
	}
	return &u
}
