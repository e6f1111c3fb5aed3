package services

import (
	"context"
	"time"

	"forum/internal/models"
	"forum/internal/utils"
)

// MaxCommentLength 评论最大字符数
const MaxCommentLength = 2000

// CommentService 题目评论服务
type CommentService struct {
	commentRepo CommentRepositoryInterface
	problemRepo ProblemRepositoryInterface
	moderators  ModeratorChecker
	maxPageSize int
	logger      utils.Logger
	now         func() time.Time
}

// NewCommentService 创建评论服务
func NewCommentService(
	commentRepo CommentRepositoryInterface,
	problemRepo ProblemRepositoryInterface,
	moderators ModeratorChecker,
	maxPageSize int,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		problemRepo: problemRepo,
		moderators:  moderators,
		maxPageSize: maxPageSize,
		logger:      utils.GetLogger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create 发表评论或回复，回复只能挂在同一题目的顶层评论下
func (s *CommentService) Create(ctx context.Context, problemID, userID uint, req models.CreateCommentRequest) (*models.ProblemComment, error) {
	if err := s.ensureProblem(ctx, problemID); err != nil {
		return nil, err
	}

	content := utils.SanitizePlainText(req.Content)
	if !utils.RuneLengthBetween(content, 1, MaxCommentLength) {
		return nil, utils.NewValidationError("评论内容长度必须在1到%d个字符之间", MaxCommentLength)
	}

	if req.ParentID != nil {
		parent, err := s.commentRepo.FindCommentByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ProblemID != problemID {
			return nil, utils.NewValidationError("父评论不存在")
		}
		if !parent.IsTopLevel() {
			return nil, utils.NewValidationError("只能回复顶层评论")
		}
	}
	if req.ReplyToCommentID != nil {
		target, err := s.commentRepo.FindCommentByID(ctx, *req.ReplyToCommentID)
		if err != nil {
			return nil, err
		}
		if target == nil || target.ProblemID != problemID {
			return nil, utils.NewValidationError("被回复的评论不存在")
		}
	}

	comment := &models.ProblemComment{
		ProblemID:        problemID,
		UserID:           userID,
		ParentID:         req.ParentID,
		ReplyToCommentID: req.ReplyToCommentID,
		Content:          &content,
		CreatedAt:        s.now(),
	}
	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("评论发表成功",
		"commentID", comment.ID,
		"problemID", problemID,
		"userID", userID,
		"isReply", req.ParentID != nil)
	return comment, nil
}

// SoftDelete 删除评论，只有作者和审核员可以删除
func (s *CommentService) SoftDelete(ctx context.Context, commentID, requesterID uint) (*models.ProblemComment, error) {
	comment, err := s.get(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != requesterID {
		allowed := false
		if s.moderators != nil {
			allowed, err = s.moderators.IsModerator(ctx, requesterID)
			if err != nil {
				return nil, err
			}
		}
		if !allowed {
			return nil, utils.NewAuthorizationError("无权删除该评论")
		}
	}

	if comment.Deleted {
		return comment, nil
	}

	deleted, err := s.commentRepo.SoftDeleteComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, utils.NewNotFoundError("评论不存在")
	}

	s.logger.Info("评论已删除",
		"commentID", commentID,
		"requesterID", requesterID,
		"byAuthor", comment.UserID == requesterID)
	return deleted, nil
}

// Like 点赞，不区分用户，重复点赞会重复计数
func (s *CommentService) Like(ctx context.Context, commentID uint) (*models.ProblemComment, error) {
	comment, err := s.get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, utils.NewConflictError("评论已删除")
	}

	liked, err := s.commentRepo.IncrementCommentLikes(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if liked == nil {
		return nil, utils.NewNotFoundError("评论不存在")
	}
	return liked, nil
}

// ListByProblem 分页获取顶层评论，每条附带全部回复
func (s *CommentService) ListByProblem(ctx context.Context, problemID uint, page, pageSize int) (models.Page[models.CommentThread], error) {
	var empty models.Page[models.CommentThread]
	if err := validatePage(page, pageSize, s.maxPageSize); err != nil {
		return empty, err
	}
	if err := s.ensureProblem(ctx, problemID); err != nil {
		return empty, err
	}

	topLevel, total, err := s.commentRepo.ListTopLevelComments(ctx, problemID, models.Offset(page, pageSize), pageSize)
	if err != nil {
		return empty, err
	}

	parentIDs := make([]uint, 0, len(topLevel))
	for _, c := range topLevel {
		parentIDs = append(parentIDs, c.ID)
	}
	replies, err := s.commentRepo.ListReplies(ctx, parentIDs)
	if err != nil {
		return empty, err
	}

	byParent := make(map[uint][]models.ProblemComment, len(topLevel))
	for _, r := range replies {
		if r.ParentID == nil {
			continue
		}
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}

	threads := make([]models.CommentThread, 0, len(topLevel))
	for _, c := range topLevel {
		thread := models.CommentThread{ProblemComment: c, Replies: byParent[c.ID]}
		if thread.Replies == nil {
			thread.Replies = []models.ProblemComment{}
		}
		threads = append(threads, thread)
	}
	return models.NewPage(threads, total, page, pageSize), nil
}

func (s *CommentService) get(ctx context.Context, id uint) (*models.ProblemComment, error) {
	comment, err := s.commentRepo.FindCommentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, utils.NewNotFoundError("评论不存在")
	}
	return comment, nil
}

func (s *CommentService) ensureProblem(ctx context.Context, problemID uint) error {
	problem, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return err
	}
	if problem == nil {
		return utils.NewNotFoundError("题目不存在")
	}
	return nil
}
