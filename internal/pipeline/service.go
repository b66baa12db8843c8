package pipeline

import (
	"context"
	"sync"

	"github.com/ldzDmons/nf-data-crawler/internal/config"
	apperrors "github.com/ldzDmons/nf-data-crawler/pkg/errors"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Service 파이프라인을 Cron 스케줄에 맞춰 주기적으로 실행하는 서비스입니다.
type Service struct {
	appConfig *config.AppConfig
	pipeline  *Pipeline

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 파이프라인 스케줄 서비스를 생성합니다.
func NewService(appConfig *config.AppConfig, p *Pipeline) *Service {
	return &Service{
		appConfig: appConfig,
		pipeline:  p,
	}
}

// Run 서비스를 시작합니다. 스케줄 등록에 실패하면 에러를 반환합니다.
func (s *Service) Run(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	logger := applog.WithComponent("pipeline.service")
	logger.Info("수집 스케줄 서비스 시작중...")

	if s.running {
		defer serviceStopWaiter.Done()
		logger.Warn("수집 스케줄 서비스가 이미 시작됨!!!")
		return nil
	}

	// 초 단위 스케줄링 지원, Panic 복구 및 중복 실행 방지 미들웨어 설정
	s.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.VerbosePrintfLogger(log.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(log.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(log.StandardLogger())),
		),
	)

	timeSpec := s.appConfig.Scheduler.TimeSpec
	if _, err := s.cron.AddFunc(timeSpec, func() {
		if err := s.pipeline.Run(serviceStopCtx); err != nil {
			logger.WithError(err).Error("예약된 수집 파이프라인 실행이 실패했습니다")
		}
	}); err != nil {
		defer serviceStopWaiter.Done()
		return apperrors.Wrap(err, apperrors.ErrInvalidInput, "Cron 스케줄 등록에 실패했습니다 (TimeSpec: "+timeSpec+")")
	}

	s.cron.Start()
	s.running = true

	go s.waitForStop(serviceStopCtx, serviceStopWaiter)

	logger.WithField("time_spec", timeSpec).Info("수집 스케줄 서비스 시작됨")
	return nil
}

func (s *Service) waitForStop(serviceStopCtx context.Context, serviceStopWaiter *sync.WaitGroup) {
	defer serviceStopWaiter.Done()

	<-serviceStopCtx.Done()

	logger := applog.WithComponent("pipeline.service")
	logger.Info("수집 스케줄 서비스 중지중...")

	// 이미 실행 중인 파이프라인은 컨텍스트 취소로 중단되므로 스케줄러만 멈추면 됩니다.
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	logger.Info("수집 스케줄 서비스 중지됨")
}
