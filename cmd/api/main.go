package main

import (
	"context"
	"log"
	"net/http"

	"stocktalk/api/router"
	"stocktalk/config"
	"stocktalk/db"
	_ "stocktalk/docs" // swag will generate this package
)

// @title           StockTalk API
// @version         1.0
// @description     Read API for cached stock community aggregates
// @BasePath        /api/v1
func main() {
	config.InitApp()
	if err := db.Init(context.Background()); err != nil {
		log.Fatal(err)
	}
	r := router.New()

	if err := r.Run(":8080"); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
