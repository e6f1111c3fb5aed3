package models

import "time"

// ProblemComment 题目评论，最多两层
//
// ParentID 为空表示顶层评论；ReplyToCommentID 只用于展示"回复某人"。
// 删除为软删除：Content 置空、Deleted 置 true，其余字段保留。
type ProblemComment struct {
	ID               uint      `json:"id" db:"id"`
	ProblemID        uint      `json:"problem_id" db:"problem_id"`
	UserID           uint      `json:"user_id" db:"user_id"`
	ParentID         *uint     `json:"parent_id" db:"parent_id"`
	ReplyToCommentID *uint     `json:"reply_to_comment_id" db:"reply_to_comment_id"`
	Content          *string   `json:"content" db:"content"`
	LikeCount        int       `json:"like_count" db:"like_count"`
	Deleted          bool      `json:"deleted" db:"deleted"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// IsTopLevel 是否为顶层评论
func (c *ProblemComment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentThread 顶层评论及其回复
type CommentThread struct {
	ProblemComment
	Replies []ProblemComment `json:"replies"`
}

// CreateCommentRequest 发表评论请求
type CreateCommentRequest struct {
	Content          string `json:"content" binding:"required"`
	ParentID         *uint  `json:"parent_id"`
	ReplyToCommentID *uint  `json:"reply_to_comment_id"`
}
