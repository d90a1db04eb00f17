package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"sugarsphere/internal/config"
	"sugarsphere/internal/database"
	"sugarsphere/internal/handlers"
	"sugarsphere/internal/middleware"
	"sugarsphere/internal/payment"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)
	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsurePaymentOrderIndexes(db); err != nil {
		log.Printf("payment order index warning: %v", err)
	}

	if err := handlers.SeedAdmin(db, config.AppEnv.AdminEmail, config.AppEnv.AdminPassword); err != nil {
		log.Printf("admin seed warning: %v", err)
	}

	gateway := payment.NewRazorpayGateway(config.AppEnv.RazorpayKeyID, config.AppEnv.RazorpayKeySecret)

	r := gin.Default()

	r.POST("/auth/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/auth/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))

	user := r.Group("")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/cart", handlers.GetCart(db))
		user.POST("/cart/add", handlers.AddToCart(db))
		user.PUT("/cart/update", handlers.UpdateCartItem(db))
		user.DELETE("/cart/remove/:productId", handlers.RemoveFromCart(db))
		user.DELETE("/cart/clear", handlers.ClearCart(db))

		user.POST("/checkout", handlers.InitiateCheckout(db, gateway))
		user.POST("/checkout/verify", handlers.VerifyPayment(db, gateway))

		user.GET("/orders", handlers.GetUserOrders(db))
		user.GET("/orders/:id", handlers.GetOrder(db))
		user.POST("/orders/:id/cancel", handlers.CancelOrder(db))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))
		admin.POST("/products/:id/restock", handlers.RestockProduct(db))

		admin.GET("/orders", handlers.GetAllOrders(db))
		admin.POST("/orders/:id/status", handlers.UpdateOrderStatus(db))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))

		admin.GET("/reconciliation", handlers.GetReconciliationQueue(db))
		admin.GET("/revenue", handlers.GetRevenueStats(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
