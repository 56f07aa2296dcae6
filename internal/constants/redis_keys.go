package constants

import "time"

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// AnalysisModulePrefix 分析模块
	AnalysisModulePrefix = "analysis"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// SubmissionModulePrefix 异步提交模块
	SubmissionModulePrefix = "submission"

	// EntityReport 报告实体
	EntityReport = "report"
	// EntityLock 分布式锁实体
	EntityLock = "lock"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5到UUID的映射实体
	EntityMD5ToUUID = "md5_to_uuid"

	// KeyAnalysisReport 同步分析结果缓存 (STRING, JSON)
	// 格式: app:analysis:report:{sha256(text)}:{jobCategory}
	KeyAnalysisReport = AppPrefix + ":" + AnalysisModulePrefix + ":" + EntityReport + ":%s:%s"

	// KeySubmissionLock 单个提交的处理锁 (STRING)
	// 格式: app:submission:lock:{submissionUUID}
	KeySubmissionLock = AppPrefix + ":" + SubmissionModulePrefix + ":" + EntityLock + ":%s"

	// KeyFileMD5Set 文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5+岗位 到 SubmissionUUID 的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}:{jobCategory}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s:%s"
)

const (
	// DefaultReportCacheTTL 报告缓存默认有效期
	DefaultReportCacheTTL = 24 * time.Hour
	// DefaultDedupeTTL 上传去重映射默认有效期
	DefaultDedupeTTL = 30 * 24 * time.Hour
	// SubmissionLockTTL 提交处理锁有效期
	SubmissionLockTTL = 10 * time.Minute
)
