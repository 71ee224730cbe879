package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-bot/internal/config"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/request"
	appHTTP "github.com/cmlabs-hris/attendance-bot/internal/handler/http"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/keylock"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/oauth"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/slackapi"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"github.com/cmlabs-hris/attendance-bot/internal/repository/postgresql"
	"github.com/cmlabs-hris/attendance-bot/internal/repository/sheets"
	attendanceService "github.com/cmlabs-hris/attendance-bot/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-bot/internal/service/command"
	identityService "github.com/cmlabs-hris/attendance-bot/internal/service/identity"
	notificationService "github.com/cmlabs-hris/attendance-bot/internal/service/notification"
	reportService "github.com/cmlabs-hris/attendance-bot/internal/service/report"
	requestService "github.com/cmlabs-hris/attendance-bot/internal/service/request"
	"github.com/go-chi/httplog/v3"
)

const version = "v1.0.0"

type repositories struct {
	attendance attendance.AttendanceRepository
	requests   request.RequestRepository
	admins     identity.AdminRepository
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-bot"),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := upstream.Policy{
		Timeout:        cfg.Upstream.Timeout,
		MaxRetries:     cfg.Upstream.MaxRetries,
		InitialBackoff: cfg.Upstream.InitialBackoff,
		MaxBackoff:     upstream.DefaultPolicy.MaxBackoff,
	}

	repos, err := openRepositories(ctx, cfg, policy)
	if err != nil {
		slog.Error("Failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	src := clock.System{Location: cfg.App.Location}
	locks := keylock.New()
	slackClient := slackapi.NewClient(cfg.Slack.BotToken, policy)

	notifier := notificationService.NewNotificationService(slackClient, notificationService.Config{
		SendTimeout: cfg.Upstream.Timeout * time.Duration(cfg.Upstream.MaxRetries+1),
	})
	identitySvc := identityService.NewIdentityService(repos.admins, slackClient, cfg.Slack.ApproverIDs)
	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, locks, src)
	requestSvc := requestService.NewRequestService(repos.requests, attendanceSvc, identitySvc, notifier, locks, src)
	reportSvc := reportService.NewReportService(attendanceSvc, src)

	dispatcher := command.NewDispatcher(attendanceSvc, requestSvc, identitySvc, slackClient, src, command.Config{
		AsyncRangeDays: cfg.App.AsyncRangeDays,
	})

	scheduler := cron.NewScheduler()
	if cfg.Reminder.Enabled {
		cron.NewReminderJobs(attendanceSvc, requestSvc, identitySvc, notifier, src, cfg.Reminder.Hour).RegisterJobs(scheduler)
	}
	scheduler.Start()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Logger:             logger,
		AllowedOrigins:     cfg.App.AllowedOrigins,
		SlackSigningSecret: cfg.Slack.SigningSecret,
	}, JWTService, appHTTP.Handlers{
		Slack:      appHTTP.NewSlackHandler(dispatcher),
		Auth:       appHTTP.NewAuthHandler(JWTService),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, reportSvc, src),
		Request:    appHTTP.NewRequestHandler(requestSvc),
		Admin:      appHTTP.NewAdminHandler(identitySvc),
	})

	if cfg.Slack.SigningSecret == "" {
		slog.Warn("SLACK_SIGNING_SECRET is not set, Slack requests are not verified")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "driver", cfg.Store.Driver, "timezone", cfg.App.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	scheduler.Stop()
	dispatcher.Wait()
	notifier.Stop()
	slog.Info("Shutdown complete")
}

func openRepositories(ctx context.Context, cfg *config.Config, policy upstream.Policy) (repositories, error) {
	switch cfg.Store.Driver {
	case config.DriverSheets:
		creds, err := oauth.ServiceAccountCredentials(ctx, cfg.Google.CredentialsFile, oauth.SpreadsheetsScope)
		if err != nil {
			return repositories{}, err
		}
		client, err := spreadsheet.NewGoogleClient(ctx, cfg.Google.SheetID, creds, policy)
		if err != nil {
			return repositories{}, err
		}
		return sheetRepositories(client), nil

	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgresql.Migrate(ctx, db); err != nil {
			db.Close()
			return repositories{}, err
		}
		return repositories{
			attendance: postgresql.NewAttendanceRepository(db),
			requests:   postgresql.NewRequestRepository(db),
			admins:     postgresql.NewAdminRepository(db),
			close:      db.Close,
		}, nil

	case config.DriverMemory:
		slog.Warn("Using the in-memory store, data is lost on restart")
		return sheetRepositories(spreadsheet.NewMemoryClient()), nil
	}
	return repositories{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func sheetRepositories(client spreadsheet.Client) repositories {
	book := sheets.NewBook(client)
	return repositories{
		attendance: sheets.NewAttendanceRepository(book),
		requests:   sheets.NewRequestRepository(book),
		admins:     sheets.NewAdminRepository(book),
		close:      func() {},
	}
}
