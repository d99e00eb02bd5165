package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/transport/http/handlers"
)

type Dependencies struct {
	Profiles         handlers.ProfileService
	Selector         handlers.CandidateSelector
	LikeLister       handlers.LikeLister
	Uploader         handlers.PhotoUploader
	Likes            handlers.LikesService
	PhotoInteraction handlers.PhotoInteractions
	Matchmaker       handlers.Matchmaker
	Degraded         func() []string
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	projector := handlers.NewProjector(deps.Config.Public.APIPrefix)
	healthHandler := handlers.NewHealthHandler(deps.Degraded)
	usersHandler := handlers.NewUsersHandler(deps.Profiles, deps.Selector, deps.LikeLister, deps.Uploader, projector, deps.Logger)
	likesHandler := handlers.NewLikesHandler(deps.Likes, deps.Logger)
	photoHandler := handlers.NewPhotoInteractionsHandler(deps.PhotoInteraction, deps.Logger)
	matchmakingHandler := handlers.NewMatchmakingHandler(deps.Matchmaker, projector, deps.Logger)

	r.Get("/healthz", healthHandler.Handle)
	r.Get("/api/health", healthHandler.Handle)

	prefix := deps.Config.Public.APIPrefix
	if prefix == "" {
		prefix = "/"
	}
	r.Route(prefix, func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", usersHandler.List)
			r.Get("/best_result/{user_id}", usersHandler.BestResult)
			r.Get("/from/{user_id}", usersHandler.LikedFrom)
			r.Get("/by/{user_id}", usersHandler.LikedBy)
			r.Get("/{user_id}", usersHandler.Get)
			r.Get("/{user_id}/photo", usersHandler.PrimaryPhoto)
			r.Get("/{user_id}/photo/{index}", usersHandler.SlotPhoto)
			r.Post("/{user_id}/photo/{index}", usersHandler.UploadPhoto)
			r.Delete("/{user_id}/photo/{index}", usersHandler.DeletePhoto)
			r.Post("/{user_id}/ping", usersHandler.Ping)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Get("/{from_user}/{to_user}", likesHandler.Status)
			r.Post("/", likesHandler.Create)
			r.Delete("/", likesHandler.Delete)
		})

		r.Route("/photo-interactions", func(r chi.Router) {
			r.Post("/likes", photoHandler.ToggleLike)
			r.Get("/likes/{owner_id}/{photo_index}", photoHandler.Likes)
			r.Post("/comments", photoHandler.AddComment)
			r.Get("/comments/{owner_id}/{photo_index}", photoHandler.Comments)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/matchmaking", matchmakingHandler.Find)
			r.Get("/matchmaking/status/{user_id}", matchmakingHandler.Status)
		})
	})
}
