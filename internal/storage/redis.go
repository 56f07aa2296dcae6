package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"resume-advisor/internal/config"
	"resume-advisor/internal/constants"
	"resume-advisor/internal/tracing"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-advisor/storage/redis")

// 按 key 前缀采样自建 span, redisotel 已经为每条命令生成了 span
var redisKeySamplingRates = map[string]float64{
	constants.AppPrefix + ":" + constants.AnalysisModulePrefix + ":":   0.05,
	constants.AppPrefix + ":" + constants.SubmissionModulePrefix + ":": 0.5,
	constants.AppPrefix + ":" + constants.FileModulePrefix + ":":       0.25,
}

var (
	rnd      = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMutex sync.Mutex
)

func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}
	for prefix, rate := range redisKeySamplingRates {
		if strings.HasPrefix(key, prefix) {
			return randFloat() < rate
		}
	}
	return randFloat() < 0.05
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// checkAndSetMD5Script 原子地检查 MD5 映射, 不存在时写入映射并加入去重集合
// KEYS[1]=映射key KEYS[2]=集合key ARGV[1]=uuid ARGV[2]=ttl毫秒 ARGV[3]=md5
var checkAndSetMD5Script = redis.NewScript(`
local existing = redis.call('GET', KEYS[1])
if existing then
	return {1, existing}
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[2])
return {0, ARGV[1]}
`)

var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// AnalysisReportKey 同步分析缓存 key
func AnalysisReportKey(textSHA256, jobCategory string) string {
	return fmt.Sprintf(constants.KeyAnalysisReport, textSHA256, normalizeKeyPart(jobCategory))
}

// SubmissionLockKey 提交处理锁 key
func SubmissionLockKey(submissionUUID string) string {
	return fmt.Sprintf(constants.KeySubmissionLock, submissionUUID)
}

// FileMD5Key 上传去重映射 key
func FileMD5Key(md5Hex, jobCategory string) string {
	return fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex, normalizeKeyPart(jobCategory))
}

// normalizeKeyPart 岗位名可能包含空格和斜杠, 例如 "UX/UI Designer"
func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "/", "_", ":", "_").Replace(s)
}

// Get 获取键的值
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}

	var span trace.Span
	if shouldSampleRedisOp(key) {
		ctx, span = redisTracer.Start(ctx, "Redis.Get", trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		span.SetAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", "GET"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		)
	}

	val, err := r.Client.Get(ctx, key).Result()
	if span != nil {
		switch {
		case errors.Is(err, redis.Nil):
			span.SetStatus(codes.Ok, "key not found")
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		case err != nil:
			tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		default:
			span.SetAttributes(
				attribute.Bool("db.redis.key_exists", true),
				attribute.Int("db.redis.value_length", len(val)),
			)
		}
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set 设置键的值
func (r *Redis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}

	var span trace.Span
	if shouldSampleRedisOp(key) {
		ctx, span = redisTracer.Start(ctx, "Redis.Set", trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		span.SetAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", "SET"),
			attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
			attribute.Int("db.redis.value_length", len(value)),
		)
		if expiration > 0 {
			span.SetAttributes(attribute.Int64("db.redis.expiration_ms", expiration.Milliseconds()))
		}
	}

	err := r.Client.Set(ctx, key, value, expiration).Err()
	if err != nil && span != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
	}
	return err
}

// GetCachedReport 读取同步分析缓存, 未命中返回 ErrNotFound
func (r *Redis) GetCachedReport(ctx context.Context, textSHA256, jobCategory string) (string, error) {
	return r.Get(ctx, AnalysisReportKey(textSHA256, jobCategory))
}

// CacheReport 写入同步分析缓存
func (r *Redis) CacheReport(ctx context.Context, textSHA256, jobCategory, payload string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = constants.DefaultReportCacheTTL
	}
	return r.Set(ctx, AnalysisReportKey(textSHA256, jobCategory), payload, ttl)
}

// CheckAndSetFileMD5 原子地登记 文件MD5+岗位 对应的提交
// 已存在时返回 exists=true 和已登记的 submissionUUID
func (r *Redis) CheckAndSetFileMD5(ctx context.Context, md5Hex, jobCategory, submissionUUID string, ttl time.Duration) (bool, string, error) {
	if r.Client == nil {
		return false, "", fmt.Errorf("redis client is not initialized")
	}
	if ttl <= 0 {
		ttl = constants.DefaultDedupeTTL
	}

	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndSetFileMD5",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.String("file.md5", md5Hex),
			attribute.String("job.category", jobCategory),
		))
	defer span.End()

	res, err := checkAndSetMD5Script.Run(ctx, r.Client,
		[]string{FileMD5Key(md5Hex, jobCategory), constants.KeyFileMD5Set},
		submissionUUID, ttl.Milliseconds(), md5Hex,
	).Slice()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return false, "", fmt.Errorf("执行原子添加MD5操作失败: %w", err)
	}
	if len(res) != 2 {
		return false, "", fmt.Errorf("MD5去重脚本返回值格式错误: %v", res)
	}

	existed, _ := res[0].(int64)
	owner, _ := res[1].(string)
	span.SetAttributes(attribute.Bool("file.duplicate", existed == 1))
	return existed == 1, owner, nil
}

// RemoveFileMD5 提交失败时撤销去重登记
func (r *Redis) RemoveFileMD5(ctx context.Context, md5Hex, jobCategory string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	pipe := r.Client.TxPipeline()
	pipe.Del(ctx, FileMD5Key(md5Hex, jobCategory))
	pipe.SRem(ctx, constants.KeyFileMD5Set, md5Hex)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("移除MD5去重记录失败: %w", err)
	}
	return nil
}

// AcquireLock 尝试获取一个分布式锁, 未获取到时返回空串
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	lockValue := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey, lockValue, expiration).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return lockValue, nil
}

// ReleaseLock 释放一个分布式锁，使用Lua脚本保证原子性
func (r *Redis) ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	res, err := releaseLockScript.Run(ctx, r.Client, []string{lockKey}, lockValue).Int64()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
