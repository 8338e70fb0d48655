package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/handlers"
	"github.com/shopnest/shopnest-backend-go/metrics"
	customMiddleware "github.com/shopnest/shopnest-backend-go/middleware"
)

func SetupRoutes(e *echo.Echo, h *handlers.Handler, auth *customMiddleware.Authenticator) {
	identify := auth.Identify()
	user := []echo.MiddlewareFunc{identify, customMiddleware.RequireUser}
	with := customMiddleware.WithCaller

	e.GET("/health", h.Health)
	e.GET("/metrics", metrics.Handler())

	// User routes
	users := e.Group("/user")
	users.POST("/createUser", with(h.CreateUser), auth.RequireProviderSession())
	users.PATCH("/informationUser", with(h.UpdateUserInformation), user...)
	users.PATCH("/updateImageUser", with(h.UpdateUserImage), user...)
	users.GET("/getAllOrders/:id", with(h.GetUserOrders), user...)
	users.PATCH("/myOrder/:id", with(h.UpdateMyOrder), user...)

	// Catalog routes (public)
	categories := e.Group("/category")
	categories.GET("/getAll", h.GetCategories)
	categories.GET("/:catPrefix", h.GetCategoryProducts)

	products := e.Group("/product")
	products.GET("/getAll", h.GetProducts)
	products.GET("/details/:productId", h.GetProductDetails)

	// Cart routes, open to guests
	cart := e.Group("/cartitems", identify)
	cart.POST("/addItem", with(h.AddCartItem))
	cart.GET("/getCartItems", with(h.GetCartItems))
	cart.PATCH("/updateItem", with(h.DecrementCartItem), customMiddleware.RequireUser)
	cart.DELETE("/deleteItem", with(h.DeleteCartItem))

	wishlist := e.Group("/washlist", user...)
	wishlist.POST("/addItem", with(h.ToggleWishlist))
	wishlist.GET("/getAll", with(h.GetWishlist))

	// Order routes
	orders := e.Group("/order", user...)
	orders.POST("/createOrder", with(h.CreateOrder))
	orders.GET("/findOrder", with(h.FindOrder))
	orders.GET("/getAllOrders", h.GetAllOrders, customMiddleware.RequireAdmin)
	orders.PATCH("/updateOrder/:orderId", h.UpdateOrderStatus, customMiddleware.RequireAdmin)

	// Mail routes
	mails := e.Group("/mails", user...)
	mails.POST("", with(h.CreateMail))
	mails.GET("/getAllMyMails", with(h.GetAllMyMails))
	mails.GET("/getAllMailsReceived", with(h.GetAllMailsReceived))
	mails.GET("/findMyEmailByOrderId", with(h.FindMyMailByOrder))
	mails.DELETE("/removeMyMail/:id", with(h.RemoveMyMail))
	mails.PATCH("/:id", with(h.UpdateMail))
	mails.POST("/:id/replies", with(h.ReplyToMyMail))
	mails.PATCH("/:id/read", with(h.MarkMyMailRead))

	// Admin dashboard
	admin := e.Group("/admin-dashboard", identify, customMiddleware.RequireAdmin)
	admin.GET("/categories", h.AdminGetCategories)
	admin.POST("/categories", h.AdminCreateCategory)
	admin.PATCH("/updateCategory/:id", h.AdminUpdateCategory)
	admin.DELETE("/deleteCategory/:id", h.AdminDeleteCategory)

	admin.GET("/products", h.AdminGetProducts)
	admin.POST("/createProduct", h.AdminCreateProduct)
	admin.PATCH("/updateProduct/:id", h.AdminUpdateProduct)
	admin.DELETE("/deleteProduct/:id", h.AdminDeleteProduct)

	admin.GET("/productStats/:id", h.GetProductStats)
	admin.GET("/productStatsByCategory/:categoryId", h.GetProductStatsByCategory)
	// misspelled path still called by deployed dashboards
	admin.GET("/proudctStatsByCategory/:categoryId", h.GetProductStatsByCategory)
	admin.GET("/overview", h.GetOverview)
	admin.GET("/sales", h.GetSales)

	admin.GET("/customers", h.GetCustomers)
	admin.PATCH("/updateUser/:id", with(h.UpdateCustomerRole))
	admin.DELETE("/deleteUser/:id", with(h.DeleteCustomer))

	admin.GET("/mails", h.AdminGetMails)
	admin.POST("/mails/:mailId/reply", with(h.AdminReplyToMail))
	admin.PATCH("/mails/:mailId/read", with(h.AdminMarkMailRead))
}
