package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/domain/notification"
	"github.com/calmerhq/calmer/internal/domain/user"
)

type Config struct {
	MorningHour  int           `mapstructure:"morning_hour"`
	EveningHour  int           `mapstructure:"evening_hour"`
	BatchSize    int           `mapstructure:"batch_size"`
	PaceInterval time.Duration `mapstructure:"pace_interval"`
	QuietWindow  time.Duration `mapstructure:"quiet_window"`
	Secret       string        `mapstructure:"secret"`
}

var windowMessages = map[string]notification.Message{
	WindowMorning: {Title: "Calmer in the morning", Body: "Start your day with a calm mind"},
	WindowEvening: {Title: "Calmer in the evening", Body: "End your day comfortably relaxed"},
}

var (
	mSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_candidates_selected_total", Help: "Candidates returned by the selection snapshot",
	})
	mDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_candidates_dropped_total", Help: "Candidates dropped by validation",
	})
	mBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_batches_total", Help: "Dispatched batches by window and outcome",
	}, []string{"window", "outcome"})
	mRunDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "reminder_run_duration_seconds", Help: "Reminder run duration",
		Buckets: prometheus.DefBuckets,
	})
)

// BatchResult records the outcome of one transport call.
type BatchResult struct {
	Window string
	Size   int
	Err    error
}

// Report summarizes one invocation. Batches hold every attempted dispatch,
// failed or not; a batch failure never stops later batches.
type Report struct {
	Selected int
	Dropped  int
	Notified int
	Batches  []BatchResult
}

func (r *Report) Failed() bool {
	for _, b := range r.Batches {
		if b.Err != nil {
			return true
		}
	}
	return false
}

type Usecase struct {
	cfg    Config
	source notification.CandidateSource
	sender notification.Sender
	log    *zap.Logger

	// newPacer is swappable so tests observe pacing without sleeping.
	newPacer func() Pacer
}

func NewUsecase(cfg Config, source notification.CandidateSource, sender notification.Sender, log *zap.Logger) *Usecase {
	return &Usecase{
		cfg:      cfg,
		source:   source,
		sender:   sender,
		log:      log.With(zap.String("component", "reminder.uc")),
		newPacer: func() Pacer { return NewPacer(cfg.PaceInterval) },
	}
}

// Run executes the full selection → validation → batch → dispatch pipeline
// for the given instant, sequentially within this invocation. The error
// return covers selection only; dispatch failures land in the Report.
func (u *Usecase) Run(ctx context.Context, now time.Time) (*Report, error) {
	start := time.Now()
	defer func() { mRunDur.Observe(time.Since(start).Seconds()) }()

	tr := otel.Tracer("reminder.uc")
	ctx, span := tr.Start(ctx, "reminder.run",
		trace.WithAttributes(attribute.Int("utc_hour", now.UTC().Hour())),
	)
	defer span.End()

	morning, evening := Windows(now, u.cfg.MorningHour, u.cfg.EveningHour)
	u.log.Debug("windows computed",
		zap.Int("morning_offset", morning.StartOffsetMinutes),
		zap.Int("evening_offset", evening.StartOffsetMinutes),
	)

	cands, err := u.source.SelectCandidates(ctx, notification.CandidateQuery{
		Windows:     []notification.Window{morning, evening},
		Provider:    user.ProviderFarcaster,
		QuietWindow: u.cfg.QuietWindow,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	mSelected.Add(float64(len(cands)))

	morningList, eveningList, dropped := Partition(cands, morning, evening, u.log)
	mDropped.Add(float64(dropped))

	rep := &Report{Selected: len(cands), Dropped: dropped}
	span.SetAttributes(
		attribute.Int("selected", rep.Selected),
		attribute.Int("dropped", rep.Dropped),
	)

	u.dispatchWindow(ctx, rep, morning.Label, morningList)
	u.dispatchWindow(ctx, rep, evening.Label, eveningList)

	u.log.Info("reminder run finished",
		zap.Int("selected", rep.Selected),
		zap.Int("dropped", rep.Dropped),
		zap.Int("notified", rep.Notified),
		zap.Int("batches", len(rep.Batches)),
		zap.Bool("failed", rep.Failed()),
	)
	return rep, nil
}

// dispatchWindow sends one window's recipients in batches of at most
// cfg.BatchSize, pacing between consecutive batches. An empty window makes
// no transport call at all. A failed batch is recorded and the loop
// continues with the next one.
func (u *Usecase) dispatchWindow(ctx context.Context, rep *Report, window string, recipients []notification.Recipient) {
	if len(recipients) == 0 {
		return
	}

	msg := windowMessages[window]
	size := u.cfg.BatchSize
	if size <= 0 {
		size = 100
	}

	pacer := u.newPacer()
	for i := 0; i < len(recipients); i += size {
		end := i + size
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[i:end]

		// Immediate for the first batch, one interval before each later one.
		if err := pacer.Wait(ctx); err != nil {
			rep.Batches = append(rep.Batches, BatchResult{Window: window, Size: len(batch), Err: err})
			return
		}

		if err := u.sender.Send(ctx, batch, msg.Title, msg.Body); err != nil {
			mBatches.WithLabelValues(window, "error").Inc()
			u.log.Warn("batch dispatch failed",
				zap.String("window", window),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			rep.Batches = append(rep.Batches, BatchResult{Window: window, Size: len(batch), Err: err})
			continue
		}
		mBatches.WithLabelValues(window, "ok").Inc()
		rep.Notified += len(batch)
		rep.Batches = append(rep.Batches, BatchResult{Window: window, Size: len(batch)})
	}
}
