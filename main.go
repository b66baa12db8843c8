package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/ldzDmons/nf-data-crawler/internal/config"
	"github.com/ldzDmons/nf-data-crawler/internal/crawler"
	"github.com/ldzDmons/nf-data-crawler/internal/crawler/detail"
	"github.com/ldzDmons/nf-data-crawler/internal/crawler/listing"
	"github.com/ldzDmons/nf-data-crawler/internal/crawler/moredetail"
	"github.com/ldzDmons/nf-data-crawler/internal/db"
	"github.com/ldzDmons/nf-data-crawler/internal/pipeline"
	"github.com/ldzDmons/nf-data-crawler/internal/store"
	applog "github.com/ldzDmons/nf-data-crawler/pkg/log"
	log "github.com/sirupsen/logrus"
)

// 빌드 정보 변수 (ldflags로 주입됨)
var (
	Version   = "dev"     // Git 커밋 해시
	BuildDate = "unknown" // 빌드 날짜
)

const (
	banner = `
  _   _  _____   ____          _             ____                       _
 | \ | ||  ___| |  _ \   __ _ | |_  __ _    / ___| _ __  __ _ __      _| |  ___  _ __
 |  \| || |_    | | | | / _` + "`" + ` || __|/ _` + "`" + ` |  | |    | '__|/ _` + "`" + ` |\ \ /\ / / | / _ \| '__|
 | |\  ||  _|   | |_| || (_| || |_| (_| |  | |___ | |  | (_| | \ V  V /| ||  __/| |
 |_| \_||_|     |____/  \__,_| \__|\__,_|   \____||_|   \__,_|  \_/\_/ |_| \___||_|
                                                                            v%s
--------------------------------------------------------------------------------
`
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU()) // 모든 CPU 사용

	// 환경설정 정보를 읽어들인다.
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("환경설정 정보 로드 실패: %v", err)
	}

	// 로그를 초기화한다.
	logOpts := applog.NewProductionOptions(config.AppName)
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	}
	logCloser, err := applog.Setup(logOpts)
	if err != nil {
		log.Fatalf("로그 초기화 실패: %v", err)
	}
	defer logCloser.Close()

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, Version)

	log.Infof("빌드 정보 - 버전: %s, 빌드 날짜: %s", Version, BuildDate)
	log.Infof("Go 버전: %s, OS/Arch: %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)

	// 단계별 수집 결과를 보관할 스냅샷 저장소를 준비한다.
	st, err := store.NewFileStore(appConfig.OutputDir)
	if err != nil {
		log.Fatalf("스냅샷 저장소 초기화 실패: %v", err)
	}

	fetcher := crawler.NewHTTPFetcher()

	// 인증 토큰을 확보한다. 토큰이 없으면 계정 로그인으로 대체된다.
	token, err := appConfig.Auth.ResolveToken()
	if err != nil {
		log.Warnf("인증 토큰 로드 실패, 계정 로그인으로 대체합니다: %v", err)
	}
	tokens := moredetail.NewLoginTokenProvider(fetcher, appConfig.Crawler.LoginURL, appConfig.Auth.Username, appConfig.Auth.Password, token)

	// 데이터베이스에 연결한다. 연결에 실패하면 적재 단계 없이
	// 파일 스냅샷만 남기는 축소 모드로 동작한다.
	ctx := context.Background()

	var persister pipeline.Persister
	var filter *pipeline.ChangeFilter
	if pool, err := db.Connect(ctx, appConfig.Database.ConnString()); err != nil {
		log.Warnf("데이터베이스 연결 실패, 파일 스냅샷만 저장합니다: %v", err)
	} else {
		defer pool.Close()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("데이터베이스 스키마 초기화 실패: %v", err)
		}

		importer := db.NewImporter(pool)
		persister = importer
		if appConfig.Scheduler.CheckUpdates {
			filter = pipeline.NewChangeFilter(importer)
		}
	}

	// 수집 단계별 크롤러를 생성한다.
	listingCrawler := listing.New(fetcher, st, listing.Config{
		BaseURL:            appConfig.Crawler.BaseURL,
		StartPage:          appConfig.Crawler.StartPage,
		MaxPages:           appConfig.Crawler.MaxPages,
		MaxRetries:         appConfig.HTTPRetry.MaxRetries,
		RetryDelay:         appConfig.HTTPRetry.RetryDelayDuration(),
		PageDelay:          appConfig.Crawler.PageDelayDuration(),
		MaxEmptyPages:      appConfig.Crawler.MaxEmptyPages,
		CheckpointInterval: appConfig.Crawler.CheckpointInterval,
		Dedupe:             appConfig.Crawler.DedupeListing,
	})

	detailCrawler := detail.New(fetcher, st, detail.Config{
		DetailURL:          appConfig.Crawler.DetailURL,
		MaxRetries:         appConfig.HTTPRetry.MaxRetries,
		RetryDelay:         appConfig.HTTPRetry.RetryDelayDuration(),
		CheckpointInterval: appConfig.Crawler.CheckpointInterval,
		DumpDir:            "logs",
	})

	moreDetailCrawler := moredetail.New(fetcher, tokens, st, moredetail.Config{
		MoreDetailURL:      appConfig.Crawler.MoreDetailURL,
		MaxRetries:         appConfig.HTTPRetry.MaxRetries,
		RetryDelay:         appConfig.HTTPRetry.RetryDelayDuration(),
		CheckpointInterval: appConfig.Crawler.CheckpointInterval,
	})

	p := pipeline.New(listingCrawler, detailCrawler, moreDetailCrawler, filter, persister, st)

	if !appConfig.Scheduler.Runnable {
		runOnce(p)
		return
	}

	// Set up cancellation context and waitgroup
	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWaiter := &sync.WaitGroup{}

	// 스케줄 서비스를 시작한다.
	pipelineService := pipeline.NewService(appConfig, p)

	serviceStopWaiter.Add(1)
	if err := pipelineService.Run(serviceStopCtx, serviceStopWaiter); err != nil {
		log.Errorf("서비스 시작 실패: %v", err)
		cancel()
		serviceStopWaiter.Wait()
		log.Fatal("서비스 초기화 실패로 프로그램을 종료합니다")
	}

	// Handle sigterm and await termC signal
	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	<-termC // Blocks here until interrupted

	// Handle shutdown
	log.Info("Shutdown signal received")
	cancel()                 // Signal cancellation to context.Context
	serviceStopWaiter.Wait() // Block here until are workers are done
}

// runOnce 파이프라인을 1회 실행한다. 종료 시그널을 받으면 진행 상황을
// 체크포인트로 저장한 뒤 정상 종료한다.
func runOnce(p *pipeline.Pipeline) {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-termC
		log.Info("Shutdown signal received")
		cancel()
	}()

	if err := p.Run(runCtx); err != nil {
		log.Fatalf("수집 파이프라인 실행 실패: %v", err)
	}
}
