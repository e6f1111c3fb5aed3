package bootstrap

import (
	"context"
	"time"

	"forum/internal/utils"
)

// InitAdminAccounts 初始化内置角色与管理员账号
// 在应用启动时创建 ADMIN/MODERATOR/USER 角色，并保证配置中的管理员账号存在且拥有 ADMIN 角色
func (c *Container) InitAdminAccounts(ctx context.Context) error {
	logger := utils.GetLogger()
	start := time.Now()

	logger.Info("开始初始化管理员账号", "count", len(c.Config.Admin.Usernames))

	if err := c.Users.EnsureDefaults(ctx, c.Config.Admin.Usernames, c.Config.Admin.DefaultPassword); err != nil {
		logger.Error("初始化管理员账号失败", "error", err.Error())
		return err
	}

	logger.Info("管理员账号初始化完成",
		"total", len(c.Config.Admin.Usernames),
		"duration", time.Since(start).String())
	return nil
}
