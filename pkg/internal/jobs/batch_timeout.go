package jobs

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/model"
	"github.com/yeisme/ingestvault/pkg/internal/service"
	"github.com/yeisme/ingestvault/pkg/log"
	"github.com/yeisme/ingestvault/pkg/metrics"
)

// BatchExpirer 超时扫描依赖的批次操作.
type BatchExpirer interface {
	Stale(ctx context.Context, timeout time.Duration, limit int) ([]model.Batch, error)
	Expire(ctx context.Context, batchID string) (*model.Batch, bool, error)
}

// SweepResult 一次扫描的汇总.
type SweepResult struct {
	Expired int   `json:"expired"`
	Skipped int   `json:"skipped"`
	Failed  int   `json:"failed"`
	Err     error `json:"-"`
}

// BatchTimeoutScheduler 回收超时未结束的批次，本身无状态，可重复执行.
type BatchTimeoutScheduler struct {
	batches BatchExpirer
	timeout time.Duration
	limit   int
	clock   clockwork.Clock
}

// NewBatchTimeoutScheduler 创建超时扫描器.
func NewBatchTimeoutScheduler(batches BatchExpirer, cfg configs.BatchConfig, clock clockwork.Clock) *BatchTimeoutScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = configs.DefaultBatchTimeout
	}

	limit := cfg.SweepLimit
	if limit <= 0 {
		limit = configs.DefaultBatchSweepLimit
	}

	return &BatchTimeoutScheduler{batches: batches, timeout: timeout, limit: limit, clock: clock}
}

// Sweep 将所有超时的进行中批次置为 NOT_COMPLETED.
// 按 limit 分页查询直到积压清空，回收后的批次不再出现在下一页.
// 单个批次失败不影响其余批次，失败汇总在 SweepResult.Err 中.
func (s *BatchTimeoutScheduler) Sweep(ctx context.Context) SweepResult {
	l := log.Component("jobs").With().Str("job", JobBatchTimeoutSweep).Logger()
	begin := s.clock.Now()

	defer func() {
		metrics.SweepDuration.Observe(s.clock.Since(begin).Seconds())
	}()

	var (
		res  SweepResult
		errs *multierror.Error
		seen = make(map[string]struct{})
	)

	for ctx.Err() == nil {
		stale, err := s.batches.Stale(ctx, s.timeout, s.limit)
		if err != nil {
			errs = multierror.Append(errs, service.SchedulerError(err, "list stale batches"))
			l.Error().Err(err).Msg("list stale batches failed")

			break
		}

		fresh := 0

		for _, b := range stale {
			// 失败的批次仍是进行中，会在下一页重复出现
			if _, ok := seen[b.ID]; ok {
				continue
			}

			seen[b.ID] = struct{}{}
			fresh++

			if ctx.Err() != nil {
				break
			}

			s.expire(ctx, l, b, &res, &errs)
		}

		// 不足一页说明积压已清空；整页都是处理过的失败批次时留给下一轮
		if len(stale) < s.limit || fresh == 0 {
			break
		}
	}

	if ctx.Err() != nil {
		errs = multierror.Append(errs, ctx.Err())
	}

	res.Err = errs.ErrorOrNil()

	if len(seen) > 0 {
		l.Info().Int("expired", res.Expired).Int("skipped", res.Skipped).Int("failed", res.Failed).
			Dur("timeout", s.timeout).Msg("timeout sweep finished")
	}

	return res
}

func (s *BatchTimeoutScheduler) expire(ctx context.Context, l zerolog.Logger, b model.Batch, res *SweepResult, errs **multierror.Error) {
	expired, changed, err := s.batches.Expire(ctx, b.ID)
	if err != nil {
		res.Failed++
		*errs = multierror.Append(*errs, service.SchedulerError(err, "expire batch %s", b.ID))
		l.Error().Err(err).Str("batch_id", b.ID).Str("site_id", b.SiteID).Msg("expire batch failed")

		return
	}

	if !changed {
		// 扫描与客户端完成请求之间的竞争，批次已进入其他终态
		res.Skipped++
		l.Debug().Str("batch_id", b.ID).Str("status", string(expired.Status)).Msg("batch already terminal")

		return
	}

	res.Expired++
	l.Info().Str("batch_id", b.ID).Str("site_id", b.SiteID).
		Time("started_at", b.StartedAt).Msg("batch expired")
}
