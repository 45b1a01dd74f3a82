package main

import (
	"time"

	"github.com/perchapp/perch/config"
	"github.com/perchapp/perch/models"
	"github.com/perchapp/perch/routes"
	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/store"
	"github.com/perchapp/perch/tasks"
	"github.com/perchapp/perch/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Session{}, &models.Post{}, &models.FileAttachment{})

	sessions := store.NewSessionStore(db)
	users := store.NewUserStore(db)
	posts := store.NewPostStore(db)
	attachments := store.NewAttachmentStore(db)

	auth := services.NewAuthService(sessions, users, time.Now)
	files := services.NewFileService(attachments, cfg.UploadDir, cfg.AttachmentRetention, time.Now)
	if err := files.EnsureFolders(); err != nil {
		utils.Sugar.Fatalf("prepare upload folders: %v", err)
	}
	mailer := utils.NewSMTPMailer(cfg.FrontendBaseURL)
	userService := services.NewUserService(users, posts, auth, files, mailer)
	postService := services.NewPostService(posts, files, time.Now)

	// Background maintenance: stale session eviction and orphan
	// attachment reclamation. Both stop cleanly on shutdown.
	sweeper := tasks.NewSessionSweeper(sessions, services.SessionTTL, cfg.SweepInterval, time.Now)
	reclaimer := tasks.NewAttachmentReclaimer(files, cfg.AttachmentRetention)
	sweeper.Start()
	reclaimer.Start()

	r := routes.SetupRouter(auth, userService, postService, files)

	utils.Sugar.Infof("starting server on port %s (graceful)", cfg.AppPort)
	err := utils.GraceServer(":"+cfg.AppPort, r)

	sweeper.Stop()
	reclaimer.Stop()

	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
