package router

import (
	"net/http"

	"annotastore/handler"
	"annotastore/internal/attachment"
	"annotastore/internal/comment"
	"annotastore/internal/reaction"
	"annotastore/internal/token"
	"annotastore/internal/user"
	"annotastore/middleware"
)

type Services struct {
	Comments    *comment.Service
	Reactions   *reaction.Service
	Attachments *attachment.Service
	Users       *user.Service
	Tokens      *token.Service
}

type Options struct {
	APIKey        string
	CORSOrigin    string
	AttachmentMax int64
}

func Setup(svc Services, opts Options) http.Handler {
	mux := http.NewServeMux()

	comments := handler.NewAnnotationHandler(svc.Comments)
	reactions := handler.NewAnnotationHandler(svc.Reactions)
	attachments := handler.NewAttachmentHandler(svc.Attachments, opts.AttachmentMax)
	users := handler.NewUserHandler(svc.Users, svc.Tokens)
	auth := middleware.AuthMiddleware(svc.Tokens)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("POST /api/token", middleware.APIKeyMiddleware(opts.APIKey)(http.HandlerFunc(users.Token)))

	mux.Handle("POST /api/comments/get", auth(http.HandlerFunc(comments.Get)))
	mux.Handle("POST /api/comments/save", auth(http.HandlerFunc(comments.Save)))
	mux.Handle("POST /api/comments/delete", auth(http.HandlerFunc(comments.Delete)))
	mux.Handle("POST /api/comments/entries/delete", auth(http.HandlerFunc(comments.DeleteEntry)))

	mux.Handle("POST /api/reactions/get", auth(http.HandlerFunc(reactions.Get)))
	mux.Handle("POST /api/reactions/save", auth(http.HandlerFunc(reactions.Save)))
	mux.Handle("POST /api/reactions/delete", auth(http.HandlerFunc(reactions.Delete)))
	mux.Handle("POST /api/reactions/entries/delete", auth(http.HandlerFunc(reactions.DeleteEntry)))

	mux.Handle("POST /api/attachments/get", auth(http.HandlerFunc(attachments.Get)))
	mux.Handle("POST /api/attachments/save", auth(http.HandlerFunc(attachments.Save)))
	mux.Handle("POST /api/attachments/delete", auth(http.HandlerFunc(attachments.Delete)))
	mux.Handle("GET /api/attachments/{id}", auth(http.HandlerFunc(attachments.Download)))

	mux.Handle("POST /api/users/get", auth(http.HandlerFunc(users.Get)))
	mux.Handle("POST /api/users/save", auth(http.HandlerFunc(users.Save)))

	return middleware.LoggingMiddleware(middleware.CORSMiddleware(opts.CORSOrigin)(mux))
}
