package model

// Identity 经过认证的调用方身份，由前置网关注入.
type Identity struct {
	SiteID    string
	AccountID string
	// Admin 管理员可跨租户读取，但不能代替站点写入
	Admin bool
}

// CanRead 调用方是否可读取 siteID 下的数据.
func (i Identity) CanRead(siteID string) bool {
	return i.Admin || (i.SiteID != "" && i.SiteID == siteID)
}

// Owns 调用方是否为 siteID 本身，写操作只认这一条.
func (i Identity) Owns(siteID string) bool {
	return i.SiteID != "" && i.SiteID == siteID
}
