package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mercadia/ordenes-admin/docs"
	"github.com/mercadia/ordenes-admin/internal/cart"
	"github.com/mercadia/ordenes-admin/internal/config"
	"github.com/mercadia/ordenes-admin/internal/httpx"
	"github.com/mercadia/ordenes-admin/internal/inventory"
	ord "github.com/mercadia/ordenes-admin/internal/order"
	"github.com/mercadia/ordenes-admin/internal/product"
)

// @title        ordenes-admin order service
// @version      1.0
// @description  Order lifecycle and inventory reservation API.
// @BasePath     /
func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("pgx pool: %v", err)
	}
	defer pool.Close()

	svc := ord.NewService(
		ord.NewPGRepo(pool),
		inventory.NewPGLedger(pool),
		product.NewPGRepo(pool),
		cart.NewPGRepo(pool),
	)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/orders", createOrderHandler(svc))
	r.GET("/orders", listOrdersHandler(svc))
	r.GET("/orders/user/:user_id", listOrdersByUserHandler(svc))
	r.GET("/orders/:id", getOrderHandler(svc))
	r.PUT("/orders/:id/pay", payOrderHandler(svc))
	r.PUT("/orders/:id/deliver", deliverOrderHandler(svc))
	r.PUT("/orders/:id/status", updateOrderStatusHandler(svc))
	r.PUT("/orders/:id/cancel", cancelOrderHandler(svc))
	r.POST("/orders/:id/refund", refundOrderHandler(svc))
	r.PUT("/orders/:id/tracking", trackingHandler(svc))
	r.GET("/orders/:id/invoice", invoiceHandler(svc))

	log.Printf("order-service listening on %s", cfg.OrderSvcAddr)
	log.Fatal(r.Run(cfg.OrderSvcAddr))
}
