package api

import (
	"log"
	"net/http"
	"os"

	"github.com/KNartey/Inkwell-server/cmd/utils"
	"github.com/KNartey/Inkwell-server/service/account"
	"github.com/KNartey/Inkwell-server/service/blog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	renderer := utils.NewRenderer(utils.TemplatesDir())

	accountHandler := account.NewHandler(s.db, renderer)
	accountHandler.RegisterRoutes(router)

	fileServer := http.FileServer(http.Dir(utils.UploadsRoot()))
	router.PathPrefix("/media/").Handler(http.StripPrefix("/media/", fileServer))

	// Registered last: the post detail route matches any /{slug}/ path.
	blogHandler := blog.NewHandler(s.db, renderer)
	blogHandler.RegisterRoutes(router)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, handlers.CombinedLoggingHandler(os.Stdout, router))
}
